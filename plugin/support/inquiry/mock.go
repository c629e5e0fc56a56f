package inquiry

import (
	"context"
	"strconv"
	"sync"

	"github.com/hrygo/repairdesk/server/gateway"
)

// MockBackend is a Backend for testing. A nil func answers with a canned success.
type MockBackend struct {
	DiagnoseFn   func(ctx context.Context, req *gateway.DiagnoseRequest) (*gateway.DiagnoseReply, error)
	EstimateFn   func(ctx context.Context, req *gateway.EstimateRequest) (*gateway.EstimateReply, error)
	CreateDealFn func(ctx context.Context, req *gateway.DealRequest) (*gateway.DealReply, error)
	AddNoteFn    func(ctx context.Context, dealID, note string) (*gateway.NoteReply, error)

	mu        sync.Mutex
	diagnoses []gateway.DiagnoseRequest
	estimates []gateway.EstimateRequest
	deals     []gateway.DealRequest
	notes     []gateway.NoteRequest
}

func (m *MockBackend) Diagnose(ctx context.Context, req *gateway.DiagnoseRequest) (*gateway.DiagnoseReply, error) {
	m.mu.Lock()
	m.diagnoses = append(m.diagnoses, *req)
	m.mu.Unlock()
	if m.DiagnoseFn != nil {
		return m.DiagnoseFn(ctx, req)
	}
	return &gateway.DiagnoseReply{Response: "診断結果"}, nil
}

func (m *MockBackend) Estimate(ctx context.Context, req *gateway.EstimateRequest) (*gateway.EstimateReply, error) {
	m.mu.Lock()
	m.estimates = append(m.estimates, *req)
	m.mu.Unlock()
	if m.EstimateFn != nil {
		return m.EstimateFn(ctx, req)
	}
	return &gateway.EstimateReply{TotalCostMin: 10000, TotalCostMax: 30000}, nil
}

func (m *MockBackend) CreateDeal(ctx context.Context, req *gateway.DealRequest) (*gateway.DealReply, error) {
	m.mu.Lock()
	m.deals = append(m.deals, *req)
	n := len(m.deals)
	m.mu.Unlock()
	if m.CreateDealFn != nil {
		return m.CreateDealFn(ctx, req)
	}
	return &gateway.DealReply{DealID: gateway.ID("deal-" + strconv.Itoa(n))}, nil
}

func (m *MockBackend) AddNote(ctx context.Context, dealID, note string) (*gateway.NoteReply, error) {
	m.mu.Lock()
	m.notes = append(m.notes, gateway.NoteRequest{Note: note})
	m.mu.Unlock()
	if m.AddNoteFn != nil {
		return m.AddNoteFn(ctx, dealID, note)
	}
	return &gateway.NoteReply{Success: true}, nil
}

// Calls returns the total number of backend calls.
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.diagnoses) + len(m.estimates) + len(m.deals) + len(m.notes)
}

// DealRequests returns the recorded deal requests.
func (m *MockBackend) DealRequests() []gateway.DealRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]gateway.DealRequest(nil), m.deals...)
}

// DiagnoseRequests returns the recorded diagnosis requests.
func (m *MockBackend) DiagnoseRequests() []gateway.DiagnoseRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]gateway.DiagnoseRequest(nil), m.diagnoses...)
}

var _ Backend = (*MockBackend)(nil)
