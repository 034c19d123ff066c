// Package lostfoundservice wires the HTTP API, health checks and the embedded match worker.
package lostfoundservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/api"
	"github.com/campuslostfound/lostfound/internal/auth"
	"github.com/campuslostfound/lostfound/internal/config"
	"github.com/campuslostfound/lostfound/internal/events"
	"github.com/campuslostfound/lostfound/internal/factory"
	"github.com/campuslostfound/lostfound/internal/health"
	"github.com/campuslostfound/lostfound/internal/imagestore"
	"github.com/campuslostfound/lostfound/internal/logger"
	"github.com/campuslostfound/lostfound/internal/matching"
	"github.com/campuslostfound/lostfound/internal/oracle"
	"github.com/campuslostfound/lostfound/internal/services"
	"github.com/campuslostfound/lostfound/internal/store"
	"github.com/campuslostfound/lostfound/matchworker"
)

// Run starts the lost-and-found HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("lostfound-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	if err := logger.SetGlobalLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("unknown log level")
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("image_store", cfg.ImageStore).
		Int("http_port", cfg.HTTPPort).
		Str("oracle_model", cfg.OracleModel).
		Msg("Lost and found service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	authorizer, err := auth.NewAuthorizerFactory(cfg).CreateAuthorizer()
	if err != nil {
		log.Error().Stack().Err(err).Msg("Authorizer unavailable")
		return err
	}
	uploader, localImages, err := factory.NewImages(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Image store unavailable")
		return err
	}
	orc := factory.NewOracle(cfg, log)

	bus := events.NewBus(64)
	pipe := matching.New(st, orc, matching.ConfigFrom(cfg), log)

	mon := startHealthMonitor(ctx, cfg, log, st, orc, uploader)

	router := api.NewRouter(api.Deps{
		Reports:       services.NewReportService(st, bus, log),
		Matches:       services.NewMatchService(st, pipe),
		Notifications: services.NewNotificationService(st),
		Uploader:      uploader,
		Authorizer:    authorizer,
		Health:        mon,
		LocalImages:   localImages,
	})

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, mon); err != nil {
		log.Error().Stack().Err(err).Strs("down", mon.Down()).Msg("startup health check failed")
		return err
	}

	if cfg.WorkerEnabled {
		w := matchworker.NewWorker(st, pipe, cfg, bus, log).
			PauseUnless(func() bool { return mon.IsUp(matchworker.OracleComponent) })
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Stack().Err(err).Msg("embedded match worker stopped")
			}
		}()
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// startHealthMonitor registers the store, the oracle and object storage and
// starts checking them in the background.
func startHealthMonitor(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, orc oracle.Oracle, images *imagestore.Uploader) *health.Monitor {
	mon := matchworker.NewMonitor(cfg, log, st, orc)
	if images != nil {
		mon.Register("images", images.HealthPing)
	}
	go mon.Start(ctx, time.Duration(cfg.HealthIntervalSeconds)*time.Second)
	return mon
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// POST /api/match waits on the oracle
		WriteTimeout: cfg.OracleTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth interface{ IsHealthy() bool }) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
