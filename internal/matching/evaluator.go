package matching

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/oracle"
)

// Evaluator scores every candidate concurrently and keeps the accepted ones.
type Evaluator struct {
	oracle  oracle.Oracle
	accept  int
	limit   int
	timeout time.Duration
	log     zerolog.Logger
}

func NewEvaluator(o oracle.Oracle, cfg Config, log zerolog.Logger) *Evaluator {
	limit := cfg.MaxCandidates
	if limit <= 0 {
		limit = 1
	}
	return &Evaluator{oracle: o, accept: cfg.AcceptThreshold, limit: limit, timeout: cfg.OracleTimeout, log: log}
}

type outcome struct {
	ok      bool
	verdict oracle.Verdict
}

// Evaluate returns accepted candidates sorted by confidence, highest first. Equal
// confidences keep candidate order. Oracle failures drop the candidate and never
// fail the batch.
func (e *Evaluator) Evaluate(ctx context.Context, rep *model.Report, candidates []*model.Report) []model.MatchCandidate {
	outcomes := make([]outcome, len(candidates))

	var g errgroup.Group
	g.SetLimit(e.limit)
	for i, cand := range candidates {
		g.Go(func() error {
			lost, found := orient(rep, cand)
			callCtx := ctx
			if e.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, e.timeout)
				defer cancel()
			}
			v, err := e.oracle.Assess(callCtx, lost, found)
			if err != nil {
				e.log.Warn().Err(err).
					Str("report_id", rep.ReportID).
					Str("candidate_id", cand.ReportID).
					Msg("oracle gave no opinion")
				return nil
			}
			outcomes[i] = outcome{ok: true, verdict: v}
			return nil
		})
	}
	_ = g.Wait()

	var accepted []model.MatchCandidate
	for i, o := range outcomes {
		if !o.ok || o.verdict.Confidence < e.accept {
			continue
		}
		lost, found := orient(rep, candidates[i])
		accepted = append(accepted, model.MatchCandidate{
			LostID:     lost.ReportID,
			FoundID:    found.ReportID,
			Confidence: o.verdict.Confidence,
			Reasoning:  o.verdict.Reasoning,
		})
	}
	sort.SliceStable(accepted, func(a, b int) bool {
		return accepted[a].Confidence > accepted[b].Confidence
	})
	return accepted
}

// orient returns the pair as (lost, found) whichever side rep is on.
func orient(rep, cand *model.Report) (*model.Report, *model.Report) {
	if rep.Kind == model.KindLost {
		return rep, cand
	}
	return cand, rep
}
