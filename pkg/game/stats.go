package game

import (
	"context"
	"errors"
	"time"

	"github.com/promptlock/gauntlet/pkg/analytics"
	"github.com/promptlock/gauntlet/pkg/store"
)

// Stats is a read-only aggregation over all user records.
type Stats struct {
	TotalUsers  int         `json:"total_users"`
	Winners     int         `json:"winners"`
	LevelCounts map[int]int `json:"level_counts"`
}

// Stats walks every stored record and tallies players per level.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{LevelCounts: make(map[int]int)}
	err := e.cfg.Store.ForEach(ctx, func(rec *store.UserRecord) error {
		stats.TotalUsers++
		stats.LevelCounts[rec.Level]++
		if rec.Won() {
			stats.Winners++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// LeaderboardEntry is one public leaderboard row. Handles are masked so the
// board can be displayed without exposing phone numbers.
type LeaderboardEntry struct {
	Handle   string        `json:"handle"`
	Rank     int64         `json:"rank"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
}

// Leaderboard returns winners ordered by completion rank, masked.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	winners, err := e.cfg.Winners.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(winners))
	for _, w := range winners {
		entries = append(entries, LeaderboardEntry{
			Handle:   analytics.MaskHandle(w.Handle),
			Rank:     w.Rank,
			Attempts: w.Attempts,
			Duration: w.Duration,
		})
	}
	return entries, nil
}

// Progress summarizes one player's standing for the my_progress button.
func (e *Engine) Progress(ctx context.Context, handle string) (string, error) {
	rec, err := e.cfg.Store.Get(ctx, handle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return e.cfg.Catalog.ProgressMessage(1, 0, false), nil
		}
		return "", err
	}
	return e.cfg.Catalog.ProgressMessage(rec.Level, rec.Attempts, rec.Won()), nil
}
