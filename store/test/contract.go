// Package test holds the behaviour every store driver must share.
package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/repairdesk/store"
)

// RunDriverContract exercises the store.Driver contract against driver.
func RunDriverContract(t *testing.T, driver store.Driver) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_MissingKey", func(t *testing.T) {
		_, err := driver.Get(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Set_And_Get", func(t *testing.T) {
		require.NoError(t, driver.Set(ctx, store.SessionIDKey, "session_1700000000000_abc"))

		got, err := driver.Get(ctx, store.SessionIDKey)
		require.NoError(t, err)
		assert.Equal(t, "session_1700000000000_abc", got)
	})

	t.Run("Set_Overwrites", func(t *testing.T) {
		require.NoError(t, driver.Set(ctx, "k", "v1"))
		require.NoError(t, driver.Set(ctx, "k", "v2"))

		got, err := driver.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v2", got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, driver.Set(ctx, "gone", "soon"))
		require.NoError(t, driver.Delete(ctx, "gone"))

		_, err := driver.Get(ctx, "gone")
		assert.ErrorIs(t, err, store.ErrNotFound)

		// Deleting a missing key is not an error.
		assert.NoError(t, driver.Delete(ctx, "gone"))
	})

	t.Run("Timeline_RoundTrip", func(t *testing.T) {
		s := store.New(driver)

		record, err := s.LoadTimeline(ctx, "s1")
		require.NoError(t, err)
		assert.Nil(t, record)

		require.NoError(t, s.SaveTimeline(ctx, &store.TimelineRecord{
			SessionID: "s1",
			Messages: []store.TimelineMessage{
				{ID: "m1", Text: "こんにちは", Sender: "system"},
				{ID: "m2", Text: "バッテリーが上がりません", Sender: "user"},
			},
		}))

		record, err = s.LoadTimeline(ctx, "s1")
		require.NoError(t, err)
		require.NotNil(t, record)
		require.Len(t, record.Messages, 2)
		assert.Equal(t, "バッテリーが上がりません", record.Messages[1].Text)
		assert.False(t, record.UpdatedAt.IsZero())

		require.NoError(t, s.DeleteTimeline(ctx, "s1"))
		record, err = s.LoadTimeline(ctx, "s1")
		require.NoError(t, err)
		assert.Nil(t, record)
	})
}
