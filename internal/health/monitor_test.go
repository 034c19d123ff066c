package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslostfound/lostfound/internal/health"
	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/oracle"
	"github.com/campuslostfound/lostfound/internal/store"
	"github.com/campuslostfound/lostfound/internal/store/sqlite"
)

// gateway stands in for the chat-completions endpoint; status is what /v1/models answers.
func gateway(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	t.Cleanup(srv.Close)
	return srv, &status
}

func newSQLite(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.Bootstrap(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestMonitor_OracleOutageIsNamed(t *testing.T) {
	ctx := context.Background()
	srv, status := gateway(t)
	orc := oracle.NewChatOracle(oracle.ChatConfig{BaseURL: srv.URL, Model: "gpt-4o-mini"})

	mon := health.NewMonitor(zerolog.Nop(), time.Second).
		Register("store", store.HealthCheck(newSQLite(t))).
		Register("oracle", oracle.HealthCheck(orc))

	mon.CheckNow(ctx)
	require.True(t, mon.IsHealthy())
	upSince := mon.Snapshot()["oracle"].Since

	// auth failures still prove the gateway answers
	status.Store(http.StatusUnauthorized)
	mon.CheckNow(ctx)
	assert.True(t, mon.IsUp("oracle"))
	assert.Equal(t, upSince, mon.Snapshot()["oracle"].Since, "unchanged state keeps its timestamp")

	status.Store(http.StatusBadGateway)
	mon.CheckNow(ctx)
	assert.False(t, mon.IsHealthy())
	assert.True(t, mon.IsUp("store"))
	assert.Equal(t, []string{"oracle"}, mon.Down())
	assert.Contains(t, mon.Snapshot()["oracle"].Error, "502")

	status.Store(http.StatusOK)
	mon.CheckNow(ctx)
	assert.True(t, mon.IsHealthy())
	assert.Empty(t, mon.Down())
	assert.Empty(t, mon.Snapshot()["oracle"].Error)
}

func TestMonitor_ClosedStoreIsDown(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.Bootstrap(ctx, ":memory:")
	require.NoError(t, err)

	mon := health.NewMonitor(zerolog.Nop(), time.Second).
		Register("store", store.HealthCheck(st))
	mon.CheckNow(ctx)
	require.True(t, mon.IsUp("store"))

	require.NoError(t, st.Close())
	mon.CheckNow(ctx)
	assert.False(t, mon.IsHealthy())
	assert.Equal(t, []string{"store"}, mon.Down())
}

// plainStore hides HealthPing so the lookup fallback is used.
type plainStore struct{ store.Store }

func TestStoreHealthCheck_LookupFallback(t *testing.T) {
	check := store.HealthCheck(plainStore{newSQLite(t)})
	assert.NoError(t, check(context.Background()))
}

func TestOracleHealthCheck_FuncAlwaysUp(t *testing.T) {
	orc := oracle.Func(func(context.Context, *model.Report, *model.Report) (oracle.Verdict, error) {
		return oracle.Verdict{}, nil
	})
	assert.NoError(t, oracle.HealthCheck(orc)(context.Background()))
}

func TestMonitor_NotCheckedYet(t *testing.T) {
	assert.False(t, health.NewMonitor(zerolog.Nop(), time.Second).IsHealthy(), "empty monitor")

	mon := health.NewMonitor(zerolog.Nop(), time.Second).
		Register("store", func(context.Context) error { return nil })
	assert.False(t, mon.IsHealthy())
	assert.Equal(t, "not checked yet", mon.Snapshot()["store"].Error)
	assert.False(t, mon.IsUp("images"), "unknown component")
}

func TestMonitor_HungCheckTimesOut(t *testing.T) {
	mon := health.NewMonitor(zerolog.Nop(), 20*time.Millisecond).
		Register("oracle", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

	start := time.Now()
	mon.CheckNow(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, mon.Snapshot()["oracle"].Error, "deadline exceeded")
}

func TestMonitor_StartTracksTransitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv, status := gateway(t)

	mon := health.NewMonitor(zerolog.Nop(), time.Second).
		Register("store", store.HealthCheck(newSQLite(t))).
		Register("oracle", oracle.HealthCheck(oracle.NewChatOracle(oracle.ChatConfig{BaseURL: srv.URL})))
	go mon.Start(ctx, 10*time.Millisecond)

	waitTrue(t, mon.IsHealthy)
	status.Store(http.StatusServiceUnavailable)
	waitTrue(t, func() bool { return !mon.IsHealthy() })
	status.Store(http.StatusOK)
	waitTrue(t, mon.IsHealthy)
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
