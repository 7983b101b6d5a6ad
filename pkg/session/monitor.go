// Package session watches idle players and moves their sessions through
// active -> warned -> expired purely from elapsed time. It never touches
// game state; level, attempts and the won flag belong to the engine.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/promptlock/gauntlet/pkg/analytics"
	"github.com/promptlock/gauntlet/pkg/config"
	"github.com/promptlock/gauntlet/pkg/store"
	"github.com/promptlock/gauntlet/pkg/syncutil"
)

// Kind is the transition a sweep emitted for one handle.
type Kind string

const (
	KindWarned  Kind = "warned"
	KindExpired Kind = "expired"
)

// Transition is one warn/expire emission, returned to the caller for
// outbound notification delivery.
type Transition struct {
	Handle string
	Kind   Kind
	Level  int
}

// MonitorConfig wires a Monitor.
type MonitorConfig struct {
	Store store.Store

	// Locks must be the same keyed mutex the engine uses, so a sweep
	// transition never interleaves with message processing for a handle.
	Locks *syncutil.KeyedMutex

	WarnThreshold   time.Duration
	ExpiryThreshold time.Duration

	// Parallelism bounds concurrent per-record updates in one sweep.
	// <= 0 keeps the default of 8.
	Parallelism int

	Tracker analytics.Tracker
}

// Monitor computes idle-time transitions over all stored records.
type Monitor struct {
	cfg MonitorConfig
	sem *syncutil.Semaphore
}

// NewMonitor validates thresholds and returns a monitor. An inverted
// threshold pair is a configuration error.
func NewMonitor(cfg MonitorConfig) (*Monitor, error) {
	if cfg.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if cfg.WarnThreshold <= 0 || cfg.WarnThreshold >= cfg.ExpiryThreshold {
		return nil, &config.ConfigError{
			Field:  "GAUNTLET_WARN_AFTER",
			Reason: fmt.Sprintf("warn threshold (%s) must be positive and less than expiry threshold (%s)", cfg.WarnThreshold, cfg.ExpiryThreshold),
		}
	}
	if cfg.Locks == nil {
		cfg.Locks = syncutil.NewKeyedMutex()
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 8
	}
	if cfg.Tracker == nil {
		cfg.Tracker = analytics.NopTracker{}
	}
	return &Monitor{cfg: cfg, sem: syncutil.NewSemaphore(cfg.Parallelism)}, nil
}

// Sweep walks every record and emits at most one transition per handle.
// Expiry takes precedence: a player who crossed both thresholds since the
// last sweep is reported expired only, never warned-then-expired.
func (m *Monitor) Sweep(ctx context.Context, now time.Time) ([]Transition, error) {
	// Enumerate candidates first; the mutation runs per handle under the
	// shared lock so the enumeration snapshot being stale is fine.
	var candidates []string
	err := m.cfg.Store.ForEach(ctx, func(rec *store.UserRecord) error {
		if rec.Won() || rec.Session == store.SessionExpired {
			return nil
		}
		if now.Sub(rec.LastActive) >= m.cfg.WarnThreshold {
			candidates = append(candidates, rec.Handle)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("session: enumerate records: %w", err)
	}

	var (
		mu          sync.Mutex
		transitions []Transition
		errs        []error
		wg          sync.WaitGroup
	)

	for _, handle := range candidates {
		if err := m.sem.Acquire(ctx); err != nil {
			wg.Wait()
			return transitions, fmt.Errorf("session: sweep canceled: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer m.sem.Release()

			tr, err := m.transition(ctx, handle, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if tr != nil {
				transitions = append(transitions, *tr)
			}
		}()
	}
	wg.Wait()

	return transitions, errors.Join(errs...)
}

// transition re-evaluates one handle under the shared per-handle lock and
// mutates session fields only.
func (m *Monitor) transition(ctx context.Context, handle string, now time.Time) (*Transition, error) {
	unlock := m.cfg.Locks.Lock(handle)
	defer unlock()

	var tr *Transition
	_, err := m.cfg.Store.Update(ctx, handle, func(rec *store.UserRecord) (*store.UserRecord, error) {
		tr = nil
		// The record may have changed since enumeration: the player may
		// have sent a message, won, or already expired.
		if rec == nil || rec.Won() || rec.Session == store.SessionExpired {
			return nil, store.ErrSkipUpdate
		}

		idle := now.Sub(rec.LastActive)
		switch {
		case idle >= m.cfg.ExpiryThreshold:
			rec.Session = store.SessionExpired
			tr = &Transition{Handle: handle, Kind: KindExpired, Level: rec.Level}
		case idle >= m.cfg.WarnThreshold && rec.Session == store.SessionActive:
			rec.Session = store.SessionWarned
			tr = &Transition{Handle: handle, Kind: KindWarned, Level: rec.Level}
		default:
			return nil, store.ErrSkipUpdate
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("session: update %q: %w", handle, err)
	}

	if tr != nil {
		name := analytics.EventSessionWarning
		if tr.Kind == KindExpired {
			name = analytics.EventSessionExpired
		}
		m.cfg.Tracker.Track(analytics.NewEvent(name, tr.Handle, tr.Level, nil))
	}
	return tr, nil
}
