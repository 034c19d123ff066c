package matchworker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslostfound/lostfound/internal/config"
	"github.com/campuslostfound/lostfound/internal/matching"
	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/oracle"
	"github.com/campuslostfound/lostfound/internal/store/sqlite"
)

// downOracle fails every ping, like a gateway that is unreachable.
type downOracle struct{ oracle.Static }

func (downOracle) HealthPing(context.Context) error { return errors.New("connection refused") }

type runnerFunc func()

func (f runnerFunc) Run(context.Context, matching.Trigger) (*matching.Result, error) {
	f()
	return &matching.Result{}, nil
}

func TestWorkerWaitsForOracle(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.Bootstrap(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	_, err = st.Reports().Create(ctx, &model.Report{
		Kind: model.KindLost, Category: "Keys", Title: "Keys", Location: "Gym", OccurredOn: "2026-10-01", OwnerID: "alice",
	})
	require.NoError(t, err)

	cfg := config.NewForTesting()
	orc := downOracle{oracle.Static{Confidence: 90}}
	mon := NewMonitor(cfg, zerolog.Nop(), st, orc)
	mon.CheckNow(ctx)
	require.True(t, mon.IsUp("store"))
	require.False(t, mon.IsUp(OracleComponent))

	runs := 0
	runner := runnerFunc(func() { runs++ })
	w := NewWorker(st, runner, cfg, nil, zerolog.Nop()).
		PauseUnless(func() bool { return mon.IsUp(OracleComponent) })

	n, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Zero(t, runs)

	up := NewMonitor(cfg, zerolog.Nop(), st, orc.Static)
	up.CheckNow(ctx)
	w.PauseUnless(func() bool { return up.IsUp(OracleComponent) })
	n, err = w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, runs)
}
