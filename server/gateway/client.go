// Package gateway is the boundary between the support flows and the backend.
//
// Each call targets one logical capability, is JSON in / JSON out over a
// single request, and is never retried. Besides base URL selection the only
// behaviour added here is surfacing the backend status code verbatim.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/repairdesk/internal/observability"
	"github.com/hrygo/repairdesk/internal/profile"
	"github.com/hrygo/repairdesk/plugin/support/timeout"
)

// maxBodyBytes bounds how much of a backend response is read.
const maxBodyBytes = 4 << 20

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	// Message is the body's error/message field, or the status text.
	Message string
	Body    []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Client calls backend capabilities.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout.ProxyRequestTimeout},
		logger:     slog.Default(),
		metrics:    observability.GlobalMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromProfile creates a client for the backend selected by the profile.
func NewClientFromProfile(p *profile.Profile, opts ...Option) *Client {
	return NewClient(p.ResolveBackendURL(), opts...)
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call performs one JSON request. out may be nil.
func (c *Client) call(ctx context.Context, capability Capability, params map[string]string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "failed to encode %s request", capability.Name)
		}
		body = bytes.NewReader(data)
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if in != nil {
		header.Set("Content-Type", "application/json")
	}

	path := capability.Expand(params)
	resp, err := c.Forward(ctx, capability.Method, path, query.Encode(), body, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrapf(err, "failed to read %s response", capability.Name)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := extractMessage(data)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg, Body: data}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", capability.Name)
	}
	return nil
}

// Forward sends one request to the backend and returns the raw response.
// Status codes are not interpreted; the caller owns resp.Body.
func (c *Client) Forward(ctx context.Context, method, path, rawQuery string, body io.Reader, header http.Header) (*http.Response, error) {
	target := c.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", path)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	c.metrics.RecordRequest("backend")
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordDuration("backend", time.Since(start))
	if err != nil {
		c.metrics.RecordFailure("backend")
		c.logger.Warn("backend request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Debug("backend request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int(observability.LogFieldStatus, resp.StatusCode),
		slog.Int64(observability.LogFieldDuration, time.Since(start).Milliseconds()),
	)
	return resp, nil
}

// StartConversation announces a new conversation for sessionID.
func (c *Client) StartConversation(ctx context.Context, sessionID string) error {
	return c.call(ctx, CapStartConversation, nil, nil, &StartConversationRequest{SessionID: sessionID}, nil)
}

// SendMessage sends one chat turn.
func (c *Client) SendMessage(ctx context.Context, req *ChatRequest) (*ChatReply, error) {
	var reply ChatReply
	if err := c.call(ctx, CapChat, nil, nil, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Diagnose requests an AI diagnosis of a symptom.
func (c *Client) Diagnose(ctx context.Context, req *DiagnoseRequest) (*DiagnoseReply, error) {
	var reply DiagnoseReply
	if err := c.call(ctx, CapDiagnose, nil, nil, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Estimate requests a cost estimate for a symptom.
func (c *Client) Estimate(ctx context.Context, req *EstimateRequest) (*EstimateReply, error) {
	var reply EstimateReply
	if err := c.call(ctx, CapEstimate, nil, nil, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// CreateDeal submits an inquiry to a partner shop.
func (c *Client) CreateDeal(ctx context.Context, req *DealRequest) (*DealReply, error) {
	var reply DealReply
	if err := c.call(ctx, CapCreateDeal, nil, nil, req, &reply); err != nil {
		return nil, err
	}
	if reply.DealID == "" {
		return nil, errors.New("backend response is missing deal_id")
	}
	return &reply, nil
}

// AddNote attaches a customer note to an existing deal.
func (c *Client) AddNote(ctx context.Context, dealID, note string) (*NoteReply, error) {
	var reply NoteReply
	if err := c.call(ctx, CapAddNote, map[string]string{"dealId": dealID}, nil, &NoteRequest{Note: note}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ListShops lists partner shops.
func (c *Client) ListShops(ctx context.Context, q ShopQuery) ([]Shop, error) {
	query := url.Values{}
	if q.Prefecture != "" {
		query.Set("prefecture", q.Prefecture)
	}
	if q.Category != "" {
		query.Set("category", q.Category)
	}

	var reply shopsReply
	if err := c.call(ctx, CapListShops, nil, query, nil, &reply); err != nil {
		return nil, err
	}
	return reply.Shops, nil
}

// ListCases lists cases, optionally for one shop or status.
func (c *Client) ListCases(ctx context.Context, q CaseQuery) ([]Case, error) {
	query := url.Values{}
	if q.ShopID != "" {
		query.Set("shop_id", q.ShopID)
	}
	if q.Status != "" {
		query.Set("status", q.Status)
	}

	var reply casesReply
	if err := c.call(ctx, CapListCases, nil, query, nil, &reply); err != nil {
		return nil, err
	}
	return reply.Cases, nil
}

// UpdateCaseStatus changes the status of a case.
func (c *Client) UpdateCaseStatus(ctx context.Context, caseID, status string) (*Case, error) {
	var reply Case
	if err := c.call(ctx, CapUpdateCaseStatus, map[string]string{"caseId": caseID}, nil, &CaseStatusRequest{Status: status}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
