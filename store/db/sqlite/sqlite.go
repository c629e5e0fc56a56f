package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/repairdesk/internal/profile"
	"github.com/hrygo/repairdesk/store"
)

// ============================================================================
// SQLITE SUPPORT
// ============================================================================
// A single key/value table. Useful when the local state should be
// inspectable with ordinary SQL tooling.
// ============================================================================

type DB struct {
	db *sql.DB
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	return Open(profile.DSN)
}

// Open opens the SQLite file at dsn and ensures the schema exists.
func Open(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create directory for %s", dsn)
		}
	}

	db, err := sql.Open("sqlite", dsn+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", dsn)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS local_storage (
			key TEXT NOT NULL PRIMARY KEY,
			value TEXT NOT NULL,
			updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
		)`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to migrate local_storage")
	}
	return &DB{db: db}, nil
}

func (d *DB) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read key %s", key)
	}
	return value, nil
}

func (d *DB) Set(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO local_storage (key, value, updated_ts)
		VALUES (?, ?, strftime('%s', 'now'))
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_ts = EXCLUDED.updated_ts`, key, value)
	if err != nil {
		return errors.Wrapf(err, "failed to write key %s", key)
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, key string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return errors.Wrapf(err, "failed to delete key %s", key)
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

var _ store.Driver = (*DB)(nil)
