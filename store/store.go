package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const (
	// SessionIDKey is the storage key holding the conversation session id.
	SessionIDKey = "repairdesk.session_id"

	timelineKeyPrefix = "repairdesk.timeline."
)

// Store provides typed access to locally persisted client state.
type Store struct {
	driver Driver
}

// New creates a new instance of Store.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// TimelineMessage is the persisted form of a conversation message.
type TimelineMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// TimelineRecord is the persisted conversation timeline for one session.
type TimelineRecord struct {
	SessionID string            `json:"session_id"`
	Messages  []TimelineMessage `json:"messages"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SaveTimeline replaces the persisted timeline of a session.
func (s *Store) SaveTimeline(ctx context.Context, record *TimelineRecord) error {
	if record == nil || record.SessionID == "" {
		return errors.New("timeline record requires a session id")
	}
	record.UpdatedAt = time.Now()

	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal timeline")
	}
	if err := s.driver.Set(ctx, timelineKeyPrefix+record.SessionID, string(data)); err != nil {
		return errors.Wrapf(err, "failed to save timeline for session %s", record.SessionID)
	}
	return nil
}

// LoadTimeline returns the persisted timeline of a session, or nil when none exists.
func (s *Store) LoadTimeline(ctx context.Context, sessionID string) (*TimelineRecord, error) {
	raw, err := s.driver.Get(ctx, timelineKeyPrefix+sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load timeline for session %s", sessionID)
	}

	var record TimelineRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal timeline")
	}
	return &record, nil
}

// DeleteTimeline removes the persisted timeline of a session.
func (s *Store) DeleteTimeline(ctx context.Context, sessionID string) error {
	return s.driver.Delete(ctx, timelineKeyPrefix+sessionID)
}
