package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const winnersSchema = `
CREATE TABLE IF NOT EXISTS game_winners (
	handle       TEXT PRIMARY KEY,
	rank         BIGINT NOT NULL UNIQUE,
	attempts     INTEGER NOT NULL,
	duration_ms  BIGINT NOT NULL,
	won_at       TIMESTAMPTZ NOT NULL
)`

// PostgresWinnerStore persists winner records in a game_winners table.
type PostgresWinnerStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPostgresWinnerStore connects, ensures the schema exists, and returns
// the store. Connection or schema failures are startup errors.
func NewPostgresWinnerStore(ctx context.Context, dsn string, timeout time.Duration) (*PostgresWinnerStore, error) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("winner store: connect: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := pool.Exec(initCtx, winnersSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("winner store: ensure schema: %w", err)
	}

	return &PostgresWinnerStore{pool: pool, timeout: timeout}, nil
}

// Close releases the connection pool.
func (s *PostgresWinnerStore) Close() {
	s.pool.Close()
}

// CreateWinner implements WinnerStore. ON CONFLICT DO NOTHING makes a repeat
// win for the same handle a no-op, so the first record always stands.
func (s *PostgresWinnerStore) CreateWinner(ctx context.Context, w WinnerRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO game_winners (handle, rank, attempts, duration_ms, won_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (handle) DO NOTHING`,
		w.Handle, w.Rank, w.Attempts, w.Duration.Milliseconds(), w.WonAt)
	if err != nil {
		return fmt.Errorf("%w: create winner %q: %v", ErrUnavailable, w.Handle, err)
	}
	return nil
}

// Leaderboard implements WinnerStore, ordered by completion rank.
func (s *PostgresWinnerStore) Leaderboard(ctx context.Context, limit int) ([]WinnerRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT handle, rank, attempts, duration_ms, won_at
		 FROM game_winners ORDER BY rank ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: leaderboard: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var winners []WinnerRecord
	for rows.Next() {
		var w WinnerRecord
		var durationMS int64
		if err := rows.Scan(&w.Handle, &w.Rank, &w.Attempts, &durationMS, &w.WonAt); err != nil {
			return nil, fmt.Errorf("winner store: scan row: %w", err)
		}
		w.Duration = time.Duration(durationMS) * time.Millisecond
		winners = append(winners, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: leaderboard: %v", ErrUnavailable, err)
	}
	return winners, nil
}
