package services

import (
	"context"

	"github.com/campuslostfound/lostfound/internal/matching"
	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/outbox"
	"github.com/campuslostfound/lostfound/internal/store"
)

// MatchService runs the pipeline on demand and lists recorded matches.
type MatchService struct {
	store  store.Store
	runner outbox.Runner
}

func NewMatchService(s store.Store, r outbox.Runner) *MatchService {
	return &MatchService{store: s, runner: r}
}

// Trigger runs the matching pipeline synchronously for one report.
func (s *MatchService) Trigger(ctx context.Context, t matching.Trigger) (*matching.Result, error) {
	return s.runner.Run(ctx, t)
}

// ListMatches returns matches involving any report owned by ownerID, newest first.
func (s *MatchService) ListMatches(ctx context.Context, ownerID string) ([]*model.MatchRecord, error) {
	return s.store.Matches().ListForOwner(ctx, ownerID)
}
