package bolt

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/hrygo/repairdesk/internal/profile"
	"github.com/hrygo/repairdesk/plugin/support/timeout"
	"github.com/hrygo/repairdesk/store"
)

var bucketName = []byte("local_storage")

// DB is the default local driver: a single BoltDB file in the data directory.
type DB struct {
	db *bolt.DB
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	return Open(profile.DSN)
}

// Open opens (creating when needed) the BoltDB file at path.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("bolt path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory for %s", path)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout.StoreOpenTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bolt database: %s", path)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create bucket")
	}
	return &DB{db: db}, nil
}

func (d *DB) Get(_ context.Context, key string) (string, error) {
	var (
		value string
		found bool
	)
	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			// v is only valid inside the transaction.
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to read key %s", key)
	}
	if !found {
		return "", store.ErrNotFound
	}
	return value, nil
}

func (d *DB) Set(_ context.Context, key, value string) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	})
}

func (d *DB) Delete(_ context.Context, key string) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (d *DB) Close() error {
	return d.db.Close()
}

var _ store.Driver = (*DB)(nil)
