package matching

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/oracle"
	"github.com/campuslostfound/lostfound/internal/store"
)

// Pipeline wires selector, evaluator, persister and dispatcher.
type Pipeline struct {
	selector  *Selector
	evaluator *Evaluator
	persister *Persister
	log       zerolog.Logger
}

// New builds a pipeline over st, scoring pairs with o.
func New(st store.Store, o oracle.Oracle, cfg Config, log zerolog.Logger) *Pipeline {
	log = log.With().Str("component", "matching").Logger()
	return &Pipeline{
		selector:  NewSelector(st.Reports(), cfg.MaxCandidates, log),
		evaluator: NewEvaluator(o, cfg, log),
		persister: NewPersister(st, NewDispatcher(st.Notifications(), log), cfg.PersistThreshold, log),
		log:       log,
	}
}

// Validate rejects triggers missing an id or carrying an unknown kind.
func (t Trigger) Validate() error {
	if t.ItemID == "" || t.ItemType == "" {
		return fmt.Errorf("%w: missing itemId or itemType", model.ErrValidation)
	}
	if !model.ReportKind(t.ItemType).Valid() {
		return fmt.Errorf("%w: itemType must be lost or found", model.ErrValidation)
	}
	return nil
}

// Run matches one report end to end.
func (p *Pipeline) Run(ctx context.Context, t Trigger) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	rep, candidates, err := p.selector.Select(ctx, t)
	if err != nil {
		return nil, err
	}
	log := p.log.With().Str("report_id", rep.ReportID).Logger()
	if len(candidates) == 0 {
		log.Debug().Msg("no candidates")
		return &Result{Matches: []model.MatchCandidate{}, Message: msgNoCandidates}, nil
	}

	accepted := p.evaluator.Evaluate(ctx, rep, candidates)

	reports := make(map[string]*model.Report, len(candidates)+1)
	reports[rep.ReportID] = rep
	for _, c := range candidates {
		reports[c.ReportID] = c
	}
	sum := p.persister.Persist(ctx, accepted, reports)

	log.Info().
		Int("candidates", len(candidates)).
		Int("accepted", len(accepted)).
		Int("persisted", sum.Created).
		Int("existing", sum.Existing).
		Int("failed", sum.Failed).
		Msg("matching run complete")

	res := &Result{Matches: accepted, Persisted: sum.Created}
	if len(accepted) == 0 {
		res.Matches = []model.MatchCandidate{}
		res.Message = msgNoMatches
	} else {
		res.Message = foundMessage(len(accepted))
	}
	return res, nil
}
