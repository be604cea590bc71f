package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisKV implements KV on Redis. TTLs map directly to key expiry, so
// PurgeExpired is a no-op — Redis reaps expired keys itself.
type RedisKV struct {
	rdb *redis.Client
}

// NewRedis creates a RedisKV against the given address.
func NewRedis(addr string, db int) *RedisKV {
	return &RedisKV{
		rdb: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
	}
}

// NewRedisWithClient wraps an existing client. Test seam for miniredis.
func NewRedisWithClient(rdb *redis.Client) *RedisKV {
	return &RedisKV{rdb: rdb}
}

func (s *RedisKV) Close() error {
	return s.rdb.Close()
}

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "redis: get")
	}
	return val, true, nil
}

func (s *RedisKV) Upsert(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 0 // no expiry
	}
	if err := s.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return eris.Wrap(err, "redis: set")
	}
	return nil
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return eris.Wrap(err, "redis: del")
	}
	return nil
}

func (s *RedisKV) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	var deleted int
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, eris.Wrap(err, "redis: del matched key")
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, eris.Wrap(err, "redis: scan")
	}
	return deleted, nil
}

func (s *RedisKV) Count(ctx context.Context, pattern string) (int, error) {
	var n int
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return n, eris.Wrap(err, "redis: scan")
	}
	return n, nil
}

func (s *RedisKV) PurgeExpired(_ context.Context) (int, error) {
	return 0, nil
}
