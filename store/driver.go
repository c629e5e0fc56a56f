package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Driver when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// Driver is an interface for store driver.
// It is the durable key/value space the client keeps its local state in,
// the counterpart of browser storage.
type Driver interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
