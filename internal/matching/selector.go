package matching

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/store"
)

// Selector loads the triggering report and its open counterparts in the same category.
type Selector struct {
	reports store.Reports
	max     int
	log     zerolog.Logger
}

func NewSelector(reports store.Reports, maxCandidates int, log zerolog.Logger) *Selector {
	return &Selector{reports: reports, max: maxCandidates, log: log}
}

// Select returns the report and up to max candidates in store order.
// A missing report yields model.ErrNotFound; no candidates is not an error.
func (s *Selector) Select(ctx context.Context, t Trigger) (*model.Report, []*model.Report, error) {
	rep, err := s.reports.GetByID(ctx, t.ItemID)
	if err != nil {
		return nil, nil, err
	}
	if string(rep.Kind) != t.ItemType {
		s.log.Warn().
			Str("report_id", rep.ReportID).
			Str("stored_kind", string(rep.Kind)).
			Str("trigger_kind", t.ItemType).
			Msg("trigger kind disagrees with stored report; using stored kind")
	}

	candidates, err := s.reports.List(ctx, model.ReportFilter{
		Kind:     rep.Kind.Opposite(),
		Status:   model.StatusOpen,
		Category: rep.Category,
		Limit:    s.max,
	})
	if err != nil {
		return nil, nil, err
	}
	return rep, candidates, nil
}
