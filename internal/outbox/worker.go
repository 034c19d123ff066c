package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/events"
	"github.com/campuslostfound/lostfound/internal/matching"
	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/store"
)

// ErrPermanent marks job failures that retrying cannot fix.
var ErrPermanent = errors.New("permanent job failure")

// Runner executes the matching pipeline for one trigger.
type Runner interface {
	Run(ctx context.Context, t matching.Trigger) (*matching.Result, error)
}

// Config controls batch size, polling cadence and retry policy.
type Config struct {
	BatchSize   int           // number of rows to lease per cycle
	Interval    time.Duration // poll interval
	LeaseFor    time.Duration // how long a leased row stays invisible to other workers
	MaxAttempts int           // attempts before a job is marked failed
	MaxBackoff  time.Duration
}

// Worker leases outbox rows and runs the matching pipeline for each.
type Worker struct {
	outbox store.Outbox
	runner Runner
	wake   <-chan events.Event
	ready  func() bool
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(ob store.Outbox, r Runner, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.LeaseFor <= 0 {
		cfg.LeaseFor = 5 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 300 * time.Second
	}
	return &Worker{outbox: ob, runner: r, cfg: cfg, log: log, now: time.Now}
}

// WakeOn makes the worker poll immediately whenever bus publishes.
func (w *Worker) WakeOn(bus *events.Bus) *Worker {
	w.wake = bus.Subscribe()
	return w
}

// PauseUnless stops the worker from leasing while ready reports false. Jobs
// stay queued with their attempt counts untouched.
func (w *Worker) PauseUnless(ready func() bool) *Worker {
	w.ready = ready
	return w
}

// Run starts the polling loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("match worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("match worker stopping")
			return ctx.Err()
		case <-ticker.C:
		case evt := <-w.wake:
			w.log.Debug().Str("report_id", evt.ReportID).Msg("woken by event")
		}
		// Drain the batch fully before sleeping again.
		for {
			n, err := w.ProcessOnce(ctx)
			if err != nil {
				// Log and continue; per-row backoff prevents hot-looping
				w.log.Error().Err(err).Msg("outbox processOnce")
				break
			}
			if n < w.cfg.BatchSize || ctx.Err() != nil {
				break
			}
		}
	}
}

// ProcessOnce leases one batch and handles it. It returns the number of leased jobs.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	if w.ready != nil && !w.ready() {
		w.log.Debug().Msg("dependencies down; not leasing")
		return 0, nil
	}
	jobs, err := w.outbox.Lease(ctx, w.cfg.BatchSize, w.cfg.LeaseFor)
	if err != nil {
		return 0, err
	}
	for _, j := range jobs {
		if err := w.handle(ctx, j); err != nil {
			w.markFailed(ctx, j, err)
			continue
		}
		if e := w.outbox.MarkDone(ctx, j.ID); e != nil {
			w.log.Error().Err(e).Int64("id", j.ID).Msg("markDone error")
		}
	}
	return len(jobs), nil
}

// handle executes the outbox operation.
func (w *Worker) handle(ctx context.Context, j model.OutboxJob) error {
	switch j.Op {
	case store.OpMatchReport:
		var t matching.Trigger
		if err := json.Unmarshal(j.Payload, &t); err != nil {
			return fmt.Errorf("%w: bad payload: %v", ErrPermanent, err)
		}
		res, err := w.runner.Run(ctx, t)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrValidation) {
				return fmt.Errorf("%w: %v", ErrPermanent, err)
			}
			return err
		}
		w.log.Info().
			Str("report_id", t.ItemID).
			Int("matches", len(res.Matches)).
			Int("persisted", res.Persisted).
			Str("message", res.Message).
			Msg("match job done")
		return nil
	default:
		return fmt.Errorf("%w: unknown op: %s", ErrPermanent, j.Op)
	}
}

func (w *Worker) markFailed(ctx context.Context, j model.OutboxJob, cause error) {
	attempt := j.AttemptCount + 1
	final := errors.Is(cause, ErrPermanent) || attempt >= w.cfg.MaxAttempts
	next := w.now().Add(Backoff(j.AttemptCount, w.cfg.MaxBackoff))

	ev := w.log.Warn()
	if final {
		ev = w.log.Error().Stack()
	}
	ev.Err(cause).
		Int64("id", j.ID).
		Str("report_id", j.AggregateID).
		Int("attempt", attempt).
		Bool("final", final).
		Msg("match job failed")

	if e := w.outbox.MarkFailed(ctx, j.ID, next, final, cause); e != nil {
		w.log.Error().Err(e).Int64("id", j.ID).Msg("markFailed error")
	}
}

// Backoff returns 2^(attempts+1) seconds, capped at max.
func Backoff(attempts int, max time.Duration) time.Duration {
	secs := math.Pow(2, float64(attempts+1))
	d := time.Duration(secs) * time.Second
	if secs > max.Seconds() || d > max {
		return max
	}
	return d
}
