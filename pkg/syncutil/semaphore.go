// Package syncutil provides the concurrency primitives shared by the
// progression engine and the session lifecycle monitor: a capacity semaphore
// for bounding parallel work and a keyed mutex for per-handle exclusion.
package syncutil

import (
	"context"
	"sync/atomic"
)

// Semaphore bounds concurrent operations. The sweep loop uses it to cap
// parallel per-record updates; the analytics emitter uses it to keep
// fire-and-forget goroutines from accumulating.
type Semaphore struct {
	slots   chan struct{}
	dropped atomic.Int64
}

// NewSemaphore creates a semaphore with the given capacity.
func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = 100
	}
	return &Semaphore{
		slots: make(chan struct{}, capacity),
	}
}

// TryAcquire attempts to take a slot without blocking. Returns false if at
// capacity; callers that drop work on false should monitor DroppedCount.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Acquire blocks until a slot is available or the context is cancelled.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. Must pair with a successful TryAcquire or Acquire.
func (s *Semaphore) Release() {
	select {
	case <-s.slots:
	default:
	}
}

// DroppedCount returns how many TryAcquire calls were refused at capacity.
func (s *Semaphore) DroppedCount() int64 {
	return s.dropped.Load()
}

// InUse returns the number of slots currently held.
func (s *Semaphore) InUse() int {
	return len(s.slots)
}
