package timeline

import (
	"context"
	"log/slog"

	"github.com/hrygo/repairdesk/store"
)

// Persister mirrors a timeline into the local store after every append.
type Persister struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPersister creates a Persister writing to s.
func NewPersister(s *store.Store, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{store: s, logger: logger}
}

// Restore loads the persisted timeline of t's session into t.
// It returns the number of restored messages; t must be empty.
func (p *Persister) Restore(ctx context.Context, t *Timeline) (int, error) {
	record, err := p.store.LoadTimeline(ctx, t.SessionID())
	if err != nil || record == nil {
		return 0, err
	}

	messages := make([]Message, 0, len(record.Messages))
	for _, m := range record.Messages {
		messages = append(messages, Message{
			ID:        m.ID,
			Text:      m.Text,
			Sender:    Sender(m.Sender),
			Timestamp: m.Timestamp,
		})
	}
	if !t.restore(messages) {
		return 0, nil
	}
	return len(messages), nil
}

// Attach saves t on every subsequent append. Save failures are logged;
// they never affect the in-memory timeline.
func (p *Persister) Attach(t *Timeline) {
	t.OnAppend(func(Message) {
		if err := p.Save(context.Background(), t); err != nil {
			p.logger.Warn("failed to persist timeline", "session_id", t.SessionID(), "error", err)
		}
	})
}

// Save writes the current contents of t.
func (p *Persister) Save(ctx context.Context, t *Timeline) error {
	all := t.All()
	record := &store.TimelineRecord{
		SessionID: t.SessionID(),
		Messages:  make([]store.TimelineMessage, 0, len(all)),
	}
	for _, m := range all {
		record.Messages = append(record.Messages, store.TimelineMessage{
			ID:        m.ID,
			Text:      m.Text,
			Sender:    string(m.Sender),
			Timestamp: m.Timestamp,
		})
	}
	return p.store.SaveTimeline(ctx, record)
}
