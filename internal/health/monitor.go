// Package health tracks whether the components a lost-and-found deployment
// depends on (the store, the judge oracle, object storage) are reachable.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pinger is implemented by components that can report their own reachability.
// HealthPing returns nil while the component is usable.
type Pinger interface {
	HealthPing(ctx context.Context) error
}

// Check reports whether one component is usable.
type Check func(ctx context.Context) error

// Status is the last observed state of a component.
type Status struct {
	Up    bool      `json:"up"`
	Error string    `json:"error,omitempty"`
	Since time.Time `json:"since"`
}

const notChecked = "not checked yet"

// Monitor runs registered checks on a timer and caches the outcome, so request
// paths and the worker read health without touching the network.
type Monitor struct {
	mu      sync.RWMutex
	order   []string
	checks  map[string]Check
	status  map[string]Status
	timeout time.Duration
	log     zerolog.Logger
}

// NewMonitor returns an empty monitor. Each check gets at most timeout to answer.
func NewMonitor(log zerolog.Logger, timeout time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Monitor{
		checks:  map[string]Check{},
		status:  map[string]Status{},
		timeout: timeout,
		log:     log,
	}
}

// Register adds a component. Registering a name twice replaces its check.
func (m *Monitor) Register(name string, c Check) *Monitor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.checks[name]; !ok {
		m.order = append(m.order, name)
	}
	m.checks[name] = c
	m.status[name] = Status{Error: notChecked}
	return m
}

// CheckNow runs every check once and records the results.
func (m *Monitor) CheckNow(ctx context.Context) {
	m.mu.RLock()
	names := append([]string(nil), m.order...)
	m.mu.RUnlock()

	for _, name := range names {
		m.mu.RLock()
		check := m.checks[name]
		m.mu.RUnlock()

		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := check(cctx)
		cancel()
		m.record(name, err)
	}
}

func (m *Monitor) record(name string, err error) {
	m.mu.Lock()
	prev := m.status[name]
	next := Status{Up: err == nil, Since: prev.Since}
	if err != nil {
		next.Error = err.Error()
	}
	changed := prev.Up != next.Up || prev.Since.IsZero()
	if changed {
		next.Since = time.Now().UTC()
	}
	m.status[name] = next
	m.mu.Unlock()

	switch {
	case !changed:
	case next.Up:
		m.log.Info().Str("component", name).Msg("health: UP")
	default:
		m.log.Error().Str("component", name).Err(err).Msg("health: DOWN")
	}
}

// Start checks immediately, then every interval until ctx ends.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.CheckNow(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

// IsHealthy is true once every registered component has answered its last check.
// A monitor with no components is never healthy.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return false
	}
	for _, name := range m.order {
		if !m.status[name].Up {
			return false
		}
	}
	return true
}

// IsUp reports the cached state of one component. Unknown names are down.
func (m *Monitor) IsUp(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status[name].Up
}

// Snapshot copies the per-component status.
func (m *Monitor) Snapshot() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Status, len(m.status))
	for k, v := range m.status {
		out[k] = v
	}
	return out
}

// Down lists the components whose last check failed, sorted by name.
func (m *Monitor) Down() []string {
	var down []string
	for name, s := range m.Snapshot() {
		if !s.Up {
			down = append(down, name)
		}
	}
	sort.Strings(down)
	return down
}
