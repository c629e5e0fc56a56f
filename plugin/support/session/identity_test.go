package session

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/repairdesk/store"
	"github.com/hrygo/repairdesk/store/memory"
)

var sessionIDPattern = regexp.MustCompile(`^session_\d+_[0-9a-z]{1,9}$`)

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstCall_PersistsOnce", func(t *testing.T) {
		storage := NewMockStorage()
		identity := NewIdentity(storage)

		id := identity.GetOrCreate(ctx)
		assert.Regexp(t, sessionIDPattern, id)
		assert.Equal(t, 1, storage.Writes)

		persisted, err := storage.Get(ctx, store.SessionIDKey)
		require.NoError(t, err)
		assert.Equal(t, id, persisted)
	})

	t.Run("ConsecutiveCalls_SameValue", func(t *testing.T) {
		storage := NewMockStorage()
		identity := NewIdentity(storage)

		first := identity.GetOrCreate(ctx)
		second := identity.GetOrCreate(ctx)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, storage.Writes)
	})

	t.Run("StoredValueChangedLater_KeepsFirst", func(t *testing.T) {
		storage := NewMockStorage()
		identity := NewIdentity(storage)

		first := identity.GetOrCreate(ctx)
		require.NoError(t, storage.Set(ctx, store.SessionIDKey, "session_other_tab"))
		assert.Equal(t, first, identity.GetOrCreate(ctx))
		assert.Equal(t, "session_other_tab", NewIdentity(storage).GetOrCreate(ctx))
	})

	t.Run("NewIdentity_SameStorage_ReusesValue", func(t *testing.T) {
		driver := memory.NewDriver()

		first := NewIdentity(driver).GetOrCreate(ctx)
		second := NewIdentity(driver).GetOrCreate(ctx)
		assert.Equal(t, first, second)
	})

	t.Run("TimeComponent", func(t *testing.T) {
		fixed := time.UnixMilli(1700000000123)
		identity := NewIdentity(NewMockStorage(), WithClock(func() time.Time { return fixed }))

		assert.Regexp(t, `^session_1700000000123_`, identity.GetOrCreate(ctx))
	})

	t.Run("NilStorage_ProcessOnly", func(t *testing.T) {
		identity := NewIdentity(nil)

		first := identity.GetOrCreate(ctx)
		assert.Regexp(t, sessionIDPattern, first)
		assert.Equal(t, first, identity.GetOrCreate(ctx))
	})

	t.Run("ReadFailure_FallsBack", func(t *testing.T) {
		storage := NewMockStorage()
		storage.GetErr = errors.New("disk unavailable")
		identity := NewIdentity(storage)

		first := identity.GetOrCreate(ctx)
		assert.NotEmpty(t, first)
		assert.Equal(t, first, identity.GetOrCreate(ctx))
		assert.Equal(t, 0, storage.Writes)
	})

	t.Run("WriteFailure_FallsBack", func(t *testing.T) {
		storage := NewMockStorage()
		storage.SetErr = errors.New("quota exceeded")
		identity := NewIdentity(storage)

		first := identity.GetOrCreate(ctx)
		assert.NotEmpty(t, first)
		assert.Equal(t, first, identity.GetOrCreate(ctx))
	})

	t.Run("ConcurrentCalls_SameValue", func(t *testing.T) {
		identity := NewIdentity(NewMockStorage())

		var wg sync.WaitGroup
		ids := make([]string, 20)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i] = identity.GetOrCreate(ctx)
			}(i)
		}
		wg.Wait()

		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
	})
}

func TestGeneratedIDsDiffer(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewIdentity(nil).GetOrCreate(context.Background())
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
