package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no record exists for the handle.
var ErrNotFound = errors.New("store: record not found")

// ErrUnavailable wraps any store timeout or connection failure. Callers see
// no partial mutation when this is returned.
var ErrUnavailable = errors.New("store: unavailable")

// ErrSkipUpdate can be returned from an Update callback to commit nothing.
// Update then returns the loaded record unchanged with a nil error.
var ErrSkipUpdate = errors.New("store: skip update")

// Store is the user record store consumed by the engine and the lifecycle
// monitor. Implementations refresh the record TTL on every write.
type Store interface {
	// Get loads the record for handle, or ErrNotFound.
	Get(ctx context.Context, handle string) (*UserRecord, error)

	// Put writes the record unconditionally and refreshes its TTL.
	Put(ctx context.Context, handle string, rec *UserRecord) error

	// Update atomically applies fn to the current record for handle.
	// fn receives nil when no record exists and may return a fresh one.
	// Returning ErrSkipUpdate commits nothing; any other error aborts.
	// The committed record is returned.
	Update(ctx context.Context, handle string, fn func(*UserRecord) (*UserRecord, error)) (*UserRecord, error)

	// ForEach visits every stored record. The visit order is unspecified.
	// Returning a non-nil error from fn stops the enumeration.
	ForEach(ctx context.Context, fn func(*UserRecord) error) error
}

// RankCounter allocates gap-free 1-based winner ranks. Next must be a single
// atomic increment-and-read, safe under arbitrary concurrent winners.
type RankCounter interface {
	Next(ctx context.Context) (int64, error)
}

// WinnerRecord is written once per player on the first transition into the
// won state, and never overwritten.
type WinnerRecord struct {
	Handle   string        `json:"handle"`
	Rank     int64         `json:"rank"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
	WonAt    time.Time     `json:"won_at"`
}

// WinnerStore persists winner records and serves the leaderboard.
type WinnerStore interface {
	// CreateWinner records a win. Idempotent per handle: a second call for
	// the same handle is a no-op.
	CreateWinner(ctx context.Context, w WinnerRecord) error

	// Leaderboard returns winners ordered by rank ascending, at most limit
	// entries (limit <= 0 means a small default).
	Leaderboard(ctx context.Context, limit int) ([]WinnerRecord, error)
}
