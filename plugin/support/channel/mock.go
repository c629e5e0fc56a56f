package channel

import (
	"context"
	"sync"

	"github.com/hrygo/repairdesk/server/gateway"
)

// MockBackend is a scripted Backend for testing.
// The n-th SendMessage is answered with Replies[n]; when that reply has a
// Gate, the call blocks until the gate is closed.
type MockBackend struct {
	mu sync.Mutex

	StartErr error
	Replies  []MockReply

	// OnSend runs at the start of each SendMessage, before blocking.
	OnSend func(req *gateway.ChatRequest)

	Starts   int
	Requests []gateway.ChatRequest
	// CtxErrs records ctx.Err() observed when each call returns.
	CtxErrs []error
}

// MockReply is one scripted SendMessage result.
type MockReply struct {
	Reply *gateway.ChatReply
	Err   error
	Gate  chan struct{}
}

func (m *MockBackend) StartConversation(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Starts++
	return m.StartErr
}

func (m *MockBackend) SendMessage(ctx context.Context, req *gateway.ChatRequest) (*gateway.ChatReply, error) {
	m.mu.Lock()
	idx := len(m.Requests)
	m.Requests = append(m.Requests, *req)
	onSend := m.OnSend
	var r MockReply
	if idx < len(m.Replies) {
		r = m.Replies[idx]
	} else {
		r = MockReply{Reply: &gateway.ChatReply{}}
	}
	m.mu.Unlock()

	if onSend != nil {
		onSend(req)
	}
	if r.Gate != nil {
		<-r.Gate
	}

	m.mu.Lock()
	m.CtxErrs = append(m.CtxErrs, ctx.Err())
	m.mu.Unlock()
	return r.Reply, r.Err
}

// RequestCount returns the number of SendMessage calls.
func (m *MockBackend) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// ContextErrors returns a copy of the recorded context errors.
func (m *MockBackend) ContextErrors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.CtxErrs...)
}

// StaticSession is a SessionProvider returning a fixed id.
type StaticSession string

func (s StaticSession) GetOrCreate(context.Context) string {
	return string(s)
}

var _ Backend = (*MockBackend)(nil)
