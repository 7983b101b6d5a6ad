package session

import (
	"context"
	"log"
	"time"
)

// Notifier receives the transitions of one sweep for outbound delivery.
// Delivery itself (warning texts, welcome-back buttons) lives outside the
// core.
type Notifier func(ctx context.Context, transitions []Transition)

// Runner drives periodic sweeps until its context is canceled.
type Runner struct {
	monitor  *Monitor
	interval time.Duration
	notify   Notifier
}

// NewRunner builds a runner. interval <= 0 defaults to one minute.
func NewRunner(monitor *Monitor, interval time.Duration, notify Notifier) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{monitor: monitor, interval: interval, notify: notify}
}

// Run blocks, sweeping on every tick. Cancellation stops the scheduler
// before the next cycle; an in-flight sweep finishes.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("[SWEEP] session monitor running every %s", r.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[SWEEP] session monitor stopped")
			return
		case <-ticker.C:
			r.sweepOnce(ctx)
		}
	}
}

func (r *Runner) sweepOnce(ctx context.Context) {
	start := time.Now()
	transitions, err := r.monitor.Sweep(ctx, start)
	if err != nil {
		log.Printf("[SWEEP] sweep finished with errors: %v", err)
	}
	if len(transitions) > 0 {
		log.Printf("[SWEEP] %d transition(s) in %s", len(transitions), time.Since(start).Round(time.Millisecond))
		if r.notify != nil {
			r.notify(ctx, transitions)
		}
	}
}
