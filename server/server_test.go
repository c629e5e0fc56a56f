package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/repairdesk/internal/observability"
	"github.com/hrygo/repairdesk/internal/profile"
	"github.com/hrygo/repairdesk/server/gateway"
)

func TestServer_ForwardsAndRateLimits(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"answer":"ok"}`)
	}))
	defer backend.Close()

	p := &profile.Profile{Mode: "dev", Addr: "127.0.0.1", Port: 0, RateLimitPerSecond: 1, RateLimitBurst: 2}
	metrics := observability.NewMetrics()
	s := NewServer(p, gateway.NewClient(backend.URL, gateway.WithMetrics(metrics)), metrics)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Shutdown(shutdownCtx))
	}()
	require.NotEmpty(t, s.Addr())

	post := func() *http.Response {
		resp, err := http.Post("http://"+s.Addr()+"/api/chat", "application/json", strings.NewReader(`{"message":"a","session_id":"s"}`))
		require.NoError(t, err)
		return resp
	}

	for i := 0; i < 2; i++ {
		resp := post()
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"answer":"ok"}`, string(body))
	}

	resp := post()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
}
