// Package memory provides an in-process store driver.
// State lives only as long as the process; used for tests and ephemeral runs.
package memory

import (
	"context"
	"sync"

	"github.com/hrygo/repairdesk/store"
)

// Driver implements store.Driver on a map.
type Driver struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{values: make(map[string]string)}
}

func (d *Driver) Get(_ context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (d *Driver) Set(_ context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.values[key] = value
	return nil
}

func (d *Driver) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.values, key)
	return nil
}

func (d *Driver) Close() error {
	return nil
}

var _ store.Driver = (*Driver)(nil)
