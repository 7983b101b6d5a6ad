package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// MemoryWinnerStore keeps winner records in process memory. Used in tests
// and when no Postgres DSN is configured.
type MemoryWinnerStore struct {
	mu      sync.Mutex
	byName  map[string]WinnerRecord
	ordered []WinnerRecord
}

// NewMemoryWinnerStore creates an empty in-memory winner store.
func NewMemoryWinnerStore() *MemoryWinnerStore {
	return &MemoryWinnerStore{byName: make(map[string]WinnerRecord)}
}

// CreateWinner implements WinnerStore. Repeat wins for a handle are no-ops.
func (s *MemoryWinnerStore) CreateWinner(_ context.Context, w WinnerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[w.Handle]; exists {
		return nil
	}
	s.byName[w.Handle] = w
	s.ordered = append(s.ordered, w)
	sort.Slice(s.ordered, func(i, j int) bool { return s.ordered[i].Rank < s.ordered[j].Rank })
	return nil
}

// Leaderboard implements WinnerStore.
func (s *MemoryWinnerStore) Leaderboard(_ context.Context, limit int) ([]WinnerRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := min(limit, len(s.ordered))
	out := make([]WinnerRecord, n)
	copy(out, s.ordered[:n])
	return out, nil
}

// MemoryRankCounter is an atomic in-process rank allocator for tests and
// single-instance deployments without Redis-backed ranks.
type MemoryRankCounter struct {
	last atomic.Int64
}

// Next implements RankCounter.
func (c *MemoryRankCounter) Next(_ context.Context) (int64, error) {
	return c.last.Add(1), nil
}
