package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix = "user:"
	rankKey       = "winners:rank"

	// casRetries bounds the optimistic-concurrency loop in Update. The
	// per-handle mutex in front of the store makes contention rare; retries
	// only absorb external writers.
	casRetries = 5

	scanBatch = 100
)

// RedisStore keeps user records as JSON values under user:<handle> with a
// sliding TTL, refreshed on every write.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisStore wraps an existing client. ttl is the sliding record
// expiration; timeout bounds every individual store operation.
func NewRedisStore(client *redis.Client, ttl, timeout time.Duration) *RedisStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisStore{client: client, ttl: ttl, timeout: timeout}
}

func userKey(handle string) string {
	return userKeyPrefix + handle
}

// unavailable maps a transport failure into the StorageUnavailable class,
// keeping the operation and handle in the message.
func unavailable(op, handle string, err error) error {
	return fmt.Errorf("%w: %s %q: %v", ErrUnavailable, op, handle, err)
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, handle string) (*UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, userKey(handle)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get", handle, err)
	}

	var rec UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("store: decode record %q: %w", handle, err)
	}
	return &rec, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, handle string, rec *UserRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode record %q: %w", handle, err)
	}
	if err := s.client.Set(ctx, userKey(handle), data, s.ttl).Err(); err != nil {
		return unavailable("put", handle, err)
	}
	return nil
}

// Update implements Store using WATCH/MULTI optimistic concurrency: the key
// is watched, fn runs on the loaded record, and the write commits only if no
// other writer touched the key in between. Conflicts retry a bounded number
// of times.
func (s *RedisStore) Update(ctx context.Context, handle string, fn func(*UserRecord) (*UserRecord, error)) (*UserRecord, error) {
	key := userKey(handle)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var committed *UserRecord
	var fnErr error

	txn := func(tx *redis.Tx) error {
		fnErr = nil
		committed = nil

		var current *UserRecord
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// fn sees nil and may seed a fresh record.
		case err != nil:
			return err
		default:
			current = &UserRecord{}
			if err := json.Unmarshal(data, current); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
		}

		next, err := fn(current)
		if err != nil {
			fnErr = err
			if errors.Is(err, ErrSkipUpdate) {
				committed = current
			}
			return nil // abort the transaction without retrying
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			fnErr = fmt.Errorf("encode record: %w", err)
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err == nil {
			committed = next
		}
		return err
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue // key changed underneath us, retry
		}
		if err != nil {
			return nil, unavailable("update", handle, err)
		}
		if fnErr != nil && !errors.Is(fnErr, ErrSkipUpdate) {
			return nil, fnErr
		}
		return committed, nil
	}
	return nil, unavailable("update", handle, errors.New("too many concurrent modifications"))
}

// ForEach implements Store, walking user:* with SCAN so enumeration never
// blocks the server. Records deleted between SCAN and GET are skipped.
func (s *RedisStore) ForEach(ctx context.Context, fn func(*UserRecord) error) error {
	var cursor uint64
	for {
		scanCtx, cancel := context.WithTimeout(ctx, s.timeout)
		keys, next, err := s.client.Scan(scanCtx, cursor, userKeyPrefix+"*", scanBatch).Result()
		cancel()
		if err != nil {
			return unavailable("scan", userKeyPrefix+"*", err)
		}

		for _, key := range keys {
			getCtx, cancel := context.WithTimeout(ctx, s.timeout)
			data, err := s.client.Get(getCtx, key).Bytes()
			cancel()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return unavailable("get", key, err)
			}

			var rec UserRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("store: decode record %q: %w", key, err)
			}
			if err := fn(&rec); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// RedisRankCounter allocates winner ranks with a single INCR, which is
// atomic on the server and therefore gap-free under concurrent winners.
type RedisRankCounter struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisRankCounter wraps an existing client.
func NewRedisRankCounter(client *redis.Client, timeout time.Duration) *RedisRankCounter {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisRankCounter{client: client, timeout: timeout}
}

// Next implements RankCounter.
func (c *RedisRankCounter) Next(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rank, err := c.client.Incr(ctx, rankKey).Result()
	if err != nil {
		return 0, unavailable("incr", rankKey, err)
	}
	return rank, nil
}
