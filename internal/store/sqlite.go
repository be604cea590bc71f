package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteKV implements KV using modernc.org/sqlite. This is the default
// backend: zero external infrastructure, good enough for single-host runs.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteKV{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS kv_cache (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	written_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_kv_cache_expires_at ON kv_cache(expires_at);
`

// Migrate creates the kv_cache table.
func (s *SQLiteKV) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM kv_cache
		 WHERE key = ? AND (expires_at IS NULL OR expires_at > datetime('now'))`,
		key,
	)

	var payload []byte
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get")
	}
	return payload, true, nil
}

func (s *SQLiteKV) Upsert(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = time.Now().UTC().Add(ttl)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_cache (key, payload, written_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
			payload = excluded.payload,
			written_at = excluded.written_at,
			expires_at = excluded.expires_at`,
		key, payload, time.Now().UTC(), expiresAt,
	)
	return eris.Wrap(err, "sqlite: upsert")
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_cache WHERE key = ?`, key)
	return eris.Wrap(err, "sqlite: delete")
}

func (s *SQLiteKV) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_cache WHERE key LIKE ? ESCAPE '\'`, globToLike(pattern),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete by pattern")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteKV) Count(ctx context.Context, pattern string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kv_cache WHERE key LIKE ? ESCAPE '\'`, globToLike(pattern),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count")
	}
	return n, nil
}

func (s *SQLiteKV) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_cache WHERE expires_at IS NOT NULL AND expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// globToLike converts a glob-style pattern ("decision:*") to a SQL LIKE
// pattern. Literal % and _ in keys are escaped.
func globToLike(pattern string) string {
	r := strings.NewReplacer("%", `\%`, "_", `\_`)
	return strings.ReplaceAll(r.Replace(pattern), "*", "%")
}
