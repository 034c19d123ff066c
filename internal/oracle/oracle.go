// Package oracle scores how likely a lost report and a found report describe the same item.
package oracle

import (
	"context"
	"errors"

	"github.com/campuslostfound/lostfound/internal/model"
)

// ErrNoOpinion marks an oracle answer that carried no usable confidence.
var ErrNoOpinion = errors.New("oracle: no opinion")

// Verdict is the oracle's judgment for one (lost, found) pair.
type Verdict struct {
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// Oracle judges a pair. Any error means "no opinion" to callers.
type Oracle interface {
	Assess(ctx context.Context, lost, found *model.Report) (Verdict, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, lost, found *model.Report) (Verdict, error)

func (f Func) Assess(ctx context.Context, lost, found *model.Report) (Verdict, error) {
	return f(ctx, lost, found)
}

// Static returns the same verdict for every pair. Used for local runs without an API key.
type Static struct {
	Confidence int
	Reasoning  string
}

func (s Static) Assess(ctx context.Context, _, _ *model.Report) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}
	return Verdict{Confidence: clamp(s.Confidence), Reasoning: s.Reasoning}, nil
}

func (Static) HealthPing(context.Context) error { return nil }

func clamp(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
