package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool abstracts the subset of pgxpool.Pool used by PostgresKV so tests can
// substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresKV implements KV using pgxpool. Used when multiple workers share
// one decision/extraction cache.
type PostgresKV struct {
	pool Pool
}

// NewPostgres creates a PostgresKV with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresKV, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresKV{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Test seam.
func NewPostgresWithPool(pool Pool) *PostgresKV {
	return &PostgresKV{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS kv_cache (
	key        TEXT PRIMARY KEY,
	payload    BYTEA NOT NULL,
	written_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_kv_cache_expires_at ON kv_cache(expires_at);
`

// Migrate creates the kv_cache table.
func (s *PostgresKV) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresKV) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT payload FROM kv_cache
		 WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`,
		key,
	)

	var payload []byte
	err := row.Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get")
	}
	return payload, true, nil
}

func (s *PostgresKV) Upsert(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = time.Now().UTC().Add(ttl)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO kv_cache (key, payload, written_at, expires_at) VALUES ($1, $2, now(), $3)
		 ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			written_at = now(),
			expires_at = EXCLUDED.expires_at`,
		key, payload, expiresAt,
	)
	return eris.Wrap(err, "postgres: upsert")
}

func (s *PostgresKV) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM kv_cache WHERE key = $1`, key)
	return eris.Wrap(err, "postgres: delete")
}

func (s *PostgresKV) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM kv_cache WHERE key LIKE $1 ESCAPE '\'`, globToLike(pattern),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete by pattern")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresKV) Count(ctx context.Context, pattern string) (int, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM kv_cache WHERE key LIKE $1 ESCAPE '\'`, globToLike(pattern),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count")
	}
	return n, nil
}

func (s *PostgresKV) PurgeExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM kv_cache WHERE expires_at IS NOT NULL AND expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge expired")
	}
	return int(tag.RowsAffected()), nil
}
