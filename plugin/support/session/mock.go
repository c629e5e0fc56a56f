package session

import (
	"context"
	"sync"

	"github.com/hrygo/repairdesk/store"
)

// MockStorage is an in-memory Storage for testing.
// GetErr and SetErr, when set, are returned by every call.
type MockStorage struct {
	mu     sync.Mutex
	values map[string]string

	GetErr error
	SetErr error

	Writes int
}

// NewMockStorage creates an empty MockStorage.
func NewMockStorage() *MockStorage {
	return &MockStorage{values: make(map[string]string)}
}

func (m *MockStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return "", m.GetErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (m *MockStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[key] = value
	m.Writes++
	return nil
}

var _ Storage = (*MockStorage)(nil)
