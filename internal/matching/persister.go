package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/store"
)

// Persister records strong matches. The store's unique (lost, found) constraint is
// the only guard against concurrent runs producing the same pair.
type Persister struct {
	store      store.Store
	dispatcher *Dispatcher
	threshold  int
	log        zerolog.Logger
}

func NewPersister(st store.Store, d *Dispatcher, threshold int, log zerolog.Logger) *Persister {
	return &Persister{store: st, dispatcher: d, threshold: threshold, log: log}
}

// PersistSummary counts per-candidate outcomes of one Persist call.
type PersistSummary struct {
	Created  int
	Existing int
	Failed   int
}

// Persist handles each candidate at or above the threshold independently.
// reports must contain every report referenced by accepted, keyed by id.
func (p *Persister) Persist(ctx context.Context, accepted []model.MatchCandidate, reports map[string]*model.Report) PersistSummary {
	var sum PersistSummary
	for _, c := range accepted {
		if c.Confidence < p.threshold {
			continue
		}
		err := p.persistOne(ctx, c, reports)
		switch {
		case err == nil:
			sum.Created++
		case errors.Is(err, model.ErrConflict):
			sum.Existing++
			p.log.Debug().Str("lost_id", c.LostID).Str("found_id", c.FoundID).Msg("match already recorded")
		default:
			sum.Failed++
			p.log.Error().Stack().Err(err).
				Str("lost_id", c.LostID).
				Str("found_id", c.FoundID).
				Int("confidence", c.Confidence).
				Msg("persist match failed")
		}
	}
	return sum
}

func (p *Persister) persistOne(ctx context.Context, c model.MatchCandidate, reports map[string]*model.Report) error {
	lost, found := reports[c.LostID], reports[c.FoundID]
	if lost == nil || found == nil {
		return fmt.Errorf("match %s/%s: report not loaded", c.LostID, c.FoundID)
	}

	rec, err := p.store.Matches().Create(ctx, &model.MatchRecord{
		LostReportID:  c.LostID,
		FoundReportID: c.FoundID,
		Confidence:    c.Confidence,
		Status:        model.MatchPending,
	})
	if err != nil {
		return err
	}
	p.log.Info().
		Str("match_id", rec.MatchID).
		Str("lost_id", c.LostID).
		Str("found_id", c.FoundID).
		Int("confidence", c.Confidence).
		Msg("match recorded")

	// The record stands even if the status flip fails; owners are still notified.
	if err := p.store.Reports().MarkMatched(ctx, c.LostID, c.FoundID); err != nil {
		p.log.Error().Stack().Err(err).Str("match_id", rec.MatchID).Msg("mark reports matched failed")
	}
	p.dispatcher.Dispatch(ctx, rec, lost, found)
	return nil
}
