// Package store provides the durable keyed store behind the cache layer and
// the classification decision cache.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/stagesignal/event-cli/internal/config"
)

// KV is the durable keyed store contract. Keys are namespaced strings
// ("search:...", "extract:...", "decision:..."); payloads are opaque JSON.
// A ttl <= 0 on Upsert means the row never expires. Expired rows are treated
// as absent on Get and may be lazily deleted.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Upsert(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteByPattern removes all keys matching a glob-style pattern
	// ("decision:*") and returns the number of rows removed.
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
	// Count reports how many keys match a glob-style pattern.
	Count(ctx context.Context, pattern string) (int, error)
	// PurgeExpired removes rows whose TTL has lapsed.
	PurgeExpired(ctx context.Context) (int, error)
	Close() error
}

// Open constructs the KV backend named by the store configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (KV, error) {
	switch cfg.Driver {
	case "sqlite", "":
		kv, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := kv.Migrate(ctx); err != nil {
			kv.Close()
			return nil, err
		}
		return kv, nil
	case "postgres":
		kv, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := kv.Migrate(ctx); err != nil {
			kv.Close()
			return nil, err
		}
		return kv, nil
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisDB), nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
