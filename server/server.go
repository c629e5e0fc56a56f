// Package server runs the HTTP front of the gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/repairdesk/internal/observability"
	"github.com/hrygo/repairdesk/internal/profile"
	"github.com/hrygo/repairdesk/server/middleware"
	"github.com/hrygo/repairdesk/server/router/proxy"
)

type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
	httpServer *http.Server
	listener   net.Listener
}

// NewServer builds the front for the given forwarder, usually a *gateway.Client.
func NewServer(p *profile.Profile, forwarder proxy.Forwarder, metrics *observability.Metrics) *Server {
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}

	echoServer := echo.New()
	echoServer.Debug = p.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomw.Recover())

	rootGroup := echoServer.Group("")
	rootGroup.Use(echomw.CORS())
	rootGroup.Use(middleware.NewRateLimiter(p.RateLimitPerSecond, p.RateLimitBurst).Middleware())
	proxy.NewService(forwarder, proxy.WithMetrics(metrics)).Register(rootGroup)

	return &Server{
		Profile:    p,
		echoServer: echoServer,
		httpServer: &http.Server{
			Handler:           echoServer,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start listens on the profile address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to serve", "error", err)
		}
	}()
	slog.Info("gateway listening", "addr", listener.Addr().String(), "mode", s.Profile.Mode)
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shutdown server")
	}
	slog.Info("gateway stopped")
	return nil
}
