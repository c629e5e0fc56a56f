// Package proxy exposes the backend capabilities over HTTP.
//
// Requests are forwarded one to one: method, path, query and body go out
// unchanged and the backend status, content type and body come back
// unchanged. A transport failure answers 502.
package proxy

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/repairdesk/internal/observability"
	"github.com/hrygo/repairdesk/plugin/support/timeout"
	"github.com/hrygo/repairdesk/server/gateway"
)

// forwardedHeaders are copied from the incoming request to the backend.
var forwardedHeaders = []string{
	echo.HeaderContentType,
	echo.HeaderAccept,
	"Accept-Language",
}

// Forwarder sends one raw request to the backend.
type Forwarder interface {
	Forward(ctx context.Context, method, path, rawQuery string, body io.Reader, header http.Header) (*http.Response, error)
}

// Service registers the forwarding routes.
type Service struct {
	forwarder Forwarder
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(forwarder Forwarder, opts ...Option) *Service {
	s := &Service{
		forwarder: forwarder,
		logger:    slog.Default(),
		metrics:   observability.GlobalMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a route per capability and GET /healthz to the group.
func (s *Service) Register(g *echo.Group) {
	for _, capability := range gateway.Capabilities() {
		g.Add(capability.Method, capability.RoutePattern(), s.forward(capability))
	}
	g.GET("/healthz", s.health)
}

func (s *Service) forward(capability gateway.Capability) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		reqCtx := observability.NewRequestContext(s.logger, capability.Name, "")
		s.metrics.RecordRequest(capability.Name)

		header := http.Header{}
		for _, key := range forwardedHeaders {
			if v := req.Header.Get(key); v != "" {
				header.Set(key, v)
			}
		}

		resp, err := s.forwarder.Forward(req.Context(), req.Method, req.URL.EscapedPath(), req.URL.RawQuery, req.Body, header)
		s.metrics.RecordDuration(capability.Name, reqCtx.Duration())
		if err != nil {
			s.metrics.RecordFailure(capability.Name)
			appErr := gateway.ToAppError(err)
			reqCtx.Warn("forward failed",
				slog.String(observability.LogFieldErrorCode, string(appErr.Code)),
				slog.String("error", observability.Truncate(err.Error(), timeout.MaxTruncateLength)),
			)
			return c.JSON(http.StatusBadGateway, map[string]string{"error": appErr.UserMessage()})
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			s.metrics.RecordFailure(capability.Name)
		}
		reqCtx.Debug("forwarded",
			slog.Int(observability.LogFieldStatus, resp.StatusCode),
			reqCtx.DurationAttr(),
		)

		contentType := resp.Header.Get(echo.HeaderContentType)
		if contentType == "" {
			contentType = echo.MIMEApplicationJSON
		}
		return c.Stream(resp.StatusCode, contentType, resp.Body)
	}
}

// health reports the request counters.
func (s *Service) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"metrics": s.metrics.Snapshot(),
	})
}
