// Package timeline holds the append-only conversation log.
package timeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// Message is a single immutable timeline entry.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
}

// Listener is notified after each append, in append order.
type Listener func(Message)

// Timeline is an append-only, ordered sequence of messages for one session.
// Entries are never reordered or deleted; timestamps strictly increase.
type Timeline struct {
	sessionID string
	now       func() time.Time

	mu        sync.Mutex
	messages  []Message
	listeners []Listener
	// notifyMu serializes listener calls so they observe append order.
	notifyMu sync.Mutex
}

// Option configures a Timeline.
type Option func(*Timeline)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Timeline) { t.now = now }
}

// New creates an empty timeline keyed by sessionID.
func New(sessionID string, opts ...Option) *Timeline {
	t := &Timeline{
		sessionID: sessionID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SessionID returns the session the timeline belongs to.
func (t *Timeline) SessionID() string {
	return t.sessionID
}

// OnAppend registers a listener. Listeners must not append to the same timeline.
func (t *Timeline) OnAppend(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Append adds msg at the end of the timeline and returns the stored entry.
// A missing ID is generated; the timestamp is assigned at append time and
// bumped when needed so that it is strictly greater than the previous one.
func (t *Timeline) Append(msg Message) Message {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Timestamp = t.now()
	if n := len(t.messages); n > 0 {
		if last := t.messages[n-1].Timestamp; !msg.Timestamp.After(last) {
			msg.Timestamp = last.Add(time.Nanosecond)
		}
	}
	t.messages = append(t.messages, msg)
	listeners := append([]Listener(nil), t.listeners...)
	t.mu.Unlock()

	for _, l := range listeners {
		l(msg)
	}
	return msg
}

// AppendText is a shorthand for Append with only sender and text.
func (t *Timeline) AppendText(sender Sender, text string) Message {
	return t.Append(Message{Sender: sender, Text: text})
}

// All returns a copy of the messages in order.
func (t *Timeline) All() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

// Len returns the number of messages.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// IsEmpty is true only before the first append.
func (t *Timeline) IsEmpty() bool {
	return t.Len() == 0
}

// HasExchange reports whether the timeline holds anything besides a leading
// system welcome message.
func (t *Timeline) HasExchange() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, m := range t.messages {
		if i == 0 && m.Sender == SenderSystem {
			continue
		}
		return true
	}
	return false
}

// ShowFirstComposer reports whether the first-message composer should be shown
// instead of the standard one. A failed greeting leaves the timeline empty and
// the first composer usable.
func (t *Timeline) ShowFirstComposer() bool {
	return !t.HasExchange()
}

// restore loads previously persisted messages into an empty timeline
// without notifying listeners.
func (t *Timeline) restore(messages []Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.messages) > 0 {
		return false
	}
	t.messages = append(t.messages, messages...)
	return true
}
