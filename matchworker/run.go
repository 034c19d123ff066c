// Package matchworker runs the outbox worker that drives the matching pipeline.
package matchworker

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/config"
	"github.com/campuslostfound/lostfound/internal/events"
	"github.com/campuslostfound/lostfound/internal/factory"
	"github.com/campuslostfound/lostfound/internal/health"
	"github.com/campuslostfound/lostfound/internal/logger"
	"github.com/campuslostfound/lostfound/internal/matching"
	"github.com/campuslostfound/lostfound/internal/oracle"
	"github.com/campuslostfound/lostfound/internal/outbox"
	"github.com/campuslostfound/lostfound/internal/store"
)

// Run starts a standalone worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("match-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("config")
		return err
	}
	if err := logger.SetGlobalLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("unknown log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("store unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	orc := factory.NewOracle(cfg, log)
	mon := NewMonitor(cfg, log, st, orc)
	go mon.Start(ctx, time.Duration(cfg.HealthIntervalSeconds)*time.Second)

	pipe := matching.New(st, orc, matching.ConfigFrom(cfg), log)
	w := NewWorker(st, pipe, cfg, nil, log).
		PauseUnless(func() bool { return mon.IsUp(OracleComponent) })

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("match worker exit")
		return err
	}
	return nil
}

// OracleComponent is the health component name of the judge oracle.
const OracleComponent = "oracle"

// NewMonitor registers the components every matching process depends on.
// Callers start it.
func NewMonitor(cfg *config.Config, log zerolog.Logger, st store.Store, orc oracle.Oracle) *health.Monitor {
	return health.NewMonitor(log, time.Duration(cfg.HealthCheckTimeoutSeconds)*time.Second).
		Register("store", store.HealthCheck(st)).
		Register(OracleComponent, oracle.HealthCheck(orc))
}

// NewWorker builds an outbox worker from configuration. A non-nil bus lets
// in-process report creation wake the worker without waiting for the next poll.
func NewWorker(st store.Store, r outbox.Runner, cfg *config.Config, bus *events.Bus, log zerolog.Logger) *outbox.Worker {
	w := outbox.NewWorker(st.Outbox(), r, outbox.Config{
		BatchSize: cfg.WorkerBatchSize,
		Interval:  time.Duration(cfg.WorkerIntervalSeconds) * time.Second,
		// one lease must outlast a full pipeline run
		LeaseFor: time.Duration(cfg.MaxCandidates+1) * cfg.OracleTimeout(),
	}, log.With().Str("component", "match-worker").Logger())
	if bus != nil {
		w.WakeOn(bus)
	}
	return w
}
