package timeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/repairdesk/store"
	"github.com/hrygo/repairdesk/store/memory"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestAppendOrder(t *testing.T) {
	tl := New("s1")

	tl.AppendText(SenderSystem, "ようこそ")
	tl.AppendText(SenderUser, "バッテリーが上がりません")
	tl.AppendText(SenderAI, "バッテリーの劣化が考えられます")

	want := []Message{
		{Sender: SenderSystem, Text: "ようこそ"},
		{Sender: SenderUser, Text: "バッテリーが上がりません"},
		{Sender: SenderAI, Text: "バッテリーの劣化が考えられます"},
	}
	got := tl.All()
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Message{}, "ID", "Timestamp")); diff != "" {
		t.Errorf("timeline mismatch (-want +got):\n%s", diff)
	}
	for _, m := range got {
		assert.NotEmpty(t, m.ID)
	}
}

func TestTimestampsStrictlyIncrease(t *testing.T) {
	// A frozen clock must still yield strictly increasing timestamps.
	tl := New("s1", WithClock(fixedClock(time.Unix(1700000000, 0))))
	for i := 0; i < 5; i++ {
		tl.AppendText(SenderUser, "x")
	}

	all := tl.All()
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i].Timestamp.After(all[i-1].Timestamp), "entry %d not after %d", i, i-1)
	}
}

func TestAppendKeepsGivenID(t *testing.T) {
	tl := New("s1")
	stored := tl.Append(Message{ID: "fixed", Sender: SenderUser, Text: "hi"})
	assert.Equal(t, "fixed", stored.ID)
}

func TestAllReturnsCopy(t *testing.T) {
	tl := New("s1")
	tl.AppendText(SenderUser, "original")

	all := tl.All()
	all[0].Text = "mutated"
	assert.Equal(t, "original", tl.All()[0].Text)
}

func TestEmptinessAndComposer(t *testing.T) {
	tests := []struct {
		name              string
		entries           []Sender
		wantEmpty         bool
		wantExchange      bool
		wantFirstComposer bool
	}{
		{"no messages", nil, true, false, true},
		{"welcome only", []Sender{SenderSystem}, false, false, true},
		{"welcome then user", []Sender{SenderSystem, SenderUser}, false, true, false},
		{"failed greeting then user", []Sender{SenderUser}, false, true, false},
		{"system notice after user", []Sender{SenderUser, SenderSystem}, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := New("s1")
			for _, s := range tt.entries {
				tl.AppendText(s, "text")
			}
			assert.Equal(t, tt.wantEmpty, tl.IsEmpty())
			assert.Equal(t, tt.wantExchange, tl.HasExchange())
			assert.Equal(t, tt.wantFirstComposer, tl.ShowFirstComposer())
		})
	}
}

func TestListenersObserveAppendOrder(t *testing.T) {
	tl := New("s1")

	var (
		mu   sync.Mutex
		seen []string
	)
	tl.OnAppend(func(m Message) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, m.ID)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tl.AppendText(SenderAI, "reply")
		}()
	}
	wg.Wait()

	var ids []string
	for _, m := range tl.All() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, ids, seen)
}

func TestPersister(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.NewDriver())
	p := NewPersister(s, nil)

	original := New("s1")
	p.Attach(original)
	original.AppendText(SenderSystem, "ようこそ")
	original.AppendText(SenderUser, "冷えない")

	t.Run("Restore_IntoEmptyTimeline", func(t *testing.T) {
		restored := New("s1")
		n, err := p.Restore(ctx, restored)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		if diff := cmp.Diff(original.All(), restored.All(), cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
			t.Errorf("restored timeline mismatch (-want +got):\n%s", diff)
		}
		assert.True(t, restored.HasExchange())
	})

	t.Run("Restore_NonEmptyTimeline_NoOp", func(t *testing.T) {
		busy := New("s1")
		busy.AppendText(SenderUser, "already here")

		n, err := p.Restore(ctx, busy)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.Equal(t, 1, busy.Len())
	})

	t.Run("Restore_UnknownSession", func(t *testing.T) {
		n, err := p.Restore(ctx, New("other"))
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}
