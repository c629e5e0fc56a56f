// Package session provides the durable conversation identity.
//
// The identifier is created once, persisted in the local store and reused
// for every message sent from the same storage context. It is never mutated
// and never explicitly destroyed.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/repairdesk/store"
)

// Storage is the subset of store.Driver the identity needs.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Identity creates and persists the conversation session id.
type Identity struct {
	storage Storage
	key     string
	now     func() time.Time
	logger  *slog.Logger

	mu sync.Mutex
	// id is the first id resolved; later calls return it without reading storage.
	id string
}

// Option configures an Identity.
type Option func(*Identity)

// WithClock overrides the time source used for the id's time component.
func WithClock(now func() time.Time) Option {
	return func(i *Identity) { i.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Identity) { i.logger = logger }
}

// NewIdentity creates an Identity backed by storage. storage may be nil,
// in which case ids are valid for the current process only.
func NewIdentity(storage Storage, opts ...Option) *Identity {
	i := &Identity{
		storage: storage,
		key:     store.SessionIDKey,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// GetOrCreate returns the persisted session id, creating and persisting one
// on first use. The first id resolved is kept for the life of this Identity,
// even if the stored value changes later. It never fails: when storage cannot
// be read or written the id lives only as long as this Identity.
func (i *Identity) GetOrCreate(ctx context.Context) string {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.id == "" {
		i.id = i.resolve(ctx)
	}
	return i.id
}

func (i *Identity) resolve(ctx context.Context) string {
	if i.storage == nil {
		return i.generate()
	}

	existing, err := i.storage.Get(ctx, i.key)
	switch {
	case err == nil && strings.TrimSpace(existing) != "":
		return existing
	case err != nil && !errors.Is(err, store.ErrNotFound):
		i.logger.Warn("session storage unavailable, using in-process session id", "error", err)
		return i.generate()
	}

	id := i.generate()
	if err := i.storage.Set(ctx, i.key, id); err != nil {
		i.logger.Warn("failed to persist session id", "error", err)
	}
	return id
}

// generate returns session_<unix millis>_<random suffix>.
func (i *Identity) generate() string {
	suffix := strings.ToLower(shortuuid.New())
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return fmt.Sprintf("session_%d_%s", i.now().UnixMilli(), suffix)
}
