package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/repairdesk/internal/observability"
	"github.com/hrygo/repairdesk/internal/profile"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", WithMetrics(observability.NewMetrics()))
}

func TestNewClientFromProfile(t *testing.T) {
	assert.Equal(t, profile.LocalBackendURL, NewClientFromProfile(&profile.Profile{Mode: "dev"}).BaseURL())
	assert.Equal(t, profile.ProductionBackendURL, NewClientFromProfile(&profile.Profile{Mode: "prod"}).BaseURL())
	assert.Equal(t, "https://override.example.com", NewClientFromProfile(&profile.Profile{Mode: "dev", BackendURL: "https://override.example.com"}).BaseURL())
}

func TestSendMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "バッテリーが上がりません", req.Message)
		assert.Equal(t, "s1", req.SessionID)

		_, _ = io.WriteString(w, `{"answer":"バッテリー交換をおすすめします"}`)
	})

	reply, err := client.SendMessage(context.Background(), &ChatRequest{Message: "バッテリーが上がりません", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "バッテリー交換をおすすめします", reply.Answer)
}

func TestStatusErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error field preferred", 400, `{"error":"phone is invalid","message":"ignored"}`, "phone is invalid"},
		{"message field", 422, `{"message":"category missing"}`, "category missing"},
		{"nested error object", 500, `{"error":{"message":"db down"}}`, "db down"},
		{"detail field", 404, `{"detail":"deal not found"}`, "deal not found"},
		{"no json body", 503, `upstream unavailable`, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.Estimate(context.Background(), &EstimateRequest{Symptoms: "冷えない", Category: "エアコン"})
			require.Error(t, err)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.wantMsg, statusErr.Message)
			assert.Equal(t, FailureBackend, ClassifyFailure(err))
		})
	}
}

func TestCreateDeal(t *testing.T) {
	t.Run("numeric deal id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var req DealRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "shop-1", req.PartnerPageID)
			assert.Equal(t, "email", req.NotificationMethod)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"deal_id": 4021}`)
		})

		reply, err := client.CreateDeal(context.Background(), &DealRequest{PartnerPageID: "shop-1", NotificationMethod: "email"})
		require.NoError(t, err)
		assert.Equal(t, ID("4021"), reply.DealID)
	})

	t.Run("missing deal id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		})

		_, err := client.CreateDeal(context.Background(), &DealRequest{})
		assert.Error(t, err)
	})
}

func TestAddNoteEscapesDealID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/deals/a%2Fb/notes", r.URL.EscapedPath())

		var req NoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "来週伺います", req.Note)
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	reply, err := client.AddNote(context.Background(), "a/b", "来週伺います")
	require.NoError(t, err)
	assert.True(t, reply.Success)
}

func TestListShopsAndCases(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/shops":
			assert.Equal(t, "岡山県", r.URL.Query().Get("prefecture"))
			_, _ = io.WriteString(w, `{"shops":[{"id":"shop-1","name":"岡山オート","prefecture":"岡山県"}]}`)
		case "/api/cases":
			assert.Equal(t, "shop-1", r.URL.Query().Get("shop_id"))
			_, _ = io.WriteString(w, `{"cases":[{"id":7,"status":"received"}]}`)
		case "/api/cases/7/status":
			assert.Equal(t, http.MethodPatch, r.Method)
			_, _ = io.WriteString(w, `{"id":7,"status":"in_progress"}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	shops, err := client.ListShops(ctx, ShopQuery{Prefecture: "岡山県"})
	require.NoError(t, err)
	require.Len(t, shops, 1)
	assert.Equal(t, "岡山オート", shops[0].Name)

	cases, err := client.ListCases(ctx, CaseQuery{ShopID: "shop-1"})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, ID("7"), cases[0].ID)

	updated, err := client.UpdateCaseStatus(ctx, "7", "in_progress")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", updated.Status)
}

func TestConnectivityFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, WithMetrics(observability.NewMetrics()))
	err := client.StartConversation(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, FailureNetwork, ClassifyFailure(err))

	appErr := ToAppError(err)
	assert.Equal(t, NetworkMessage, appErr.UserMessage())
}

func TestCapabilityPaths(t *testing.T) {
	assert.Equal(t, "/api/deals/:dealId/notes", CapAddNote.RoutePattern())
	assert.Equal(t, "/api/chat", CapChat.RoutePattern())
	assert.Equal(t, "/api/cases/42/status", CapUpdateCaseStatus.Expand(map[string]string{"caseId": "42"}))
	assert.Len(t, Capabilities(), 9)
}
