package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/events"
	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/store"
	"github.com/campuslostfound/lostfound/internal/validate"
)

// ReportService owns the report lifecycle. Matching is never run inline: Create
// commits an outbox job with the report and nudges the worker through the bus.
type ReportService struct {
	store store.Store
	bus   *events.Bus
	log   zerolog.Logger
}

func NewReportService(s store.Store, bus *events.Bus, log zerolog.Logger) *ReportService {
	return &ReportService{store: s, bus: bus, log: log}
}

func (s *ReportService) CreateReport(ctx context.Context, r *model.Report) (*model.Report, error) {
	in := *r
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	if in.OccurredAt != nil && *in.OccurredAt == "" {
		in.OccurredAt = nil
	}
	if err := validate.Report(&in); err != nil {
		return nil, err
	}

	out, err := s.store.Reports().Create(ctx, &in)
	if err != nil {
		return nil, err
	}
	if !s.bus.Publish(events.Event{Kind: events.EventReportCreated, ReportID: out.ReportID}) {
		s.log.Debug().Str("report_id", out.ReportID).Msg("wake-up dropped; worker will poll")
	}
	return out, nil
}

func (s *ReportService) GetReport(ctx context.Context, reportID string) (*model.Report, error) {
	return s.store.Reports().GetByID(ctx, reportID)
}

func (s *ReportService) ListReports(ctx context.Context, f model.ReportFilter) ([]*model.Report, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind must be lost or found", model.ErrValidation)
	}
	switch f.Status {
	case "", model.StatusOpen, model.StatusMatched, model.StatusResolved:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrValidation, f.Status)
	}
	return s.store.Reports().List(ctx, f)
}

func (s *ReportService) ListMine(ctx context.Context, ownerID string) ([]*model.Report, error) {
	return s.store.Reports().List(ctx, model.ReportFilter{OwnerID: ownerID})
}

// ResolveReport closes a report. Only its owner may do so.
func (s *ReportService) ResolveReport(ctx context.Context, actorID, reportID string) (*model.Report, error) {
	rep, err := s.store.Reports().GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rep.OwnerID != actorID {
		return nil, fmt.Errorf("report %s: %w", reportID, model.ErrForbidden)
	}
	if rep.Status == model.StatusResolved {
		return rep, nil
	}
	return s.store.Reports().Resolve(ctx, reportID)
}
