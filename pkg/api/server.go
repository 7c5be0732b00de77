// Package api provides the HTTP surface: the webhook endpoints, health,
// agent-tracker introspection, and Prometheus metrics.
package api

import (
	"context"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/config"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/metrics"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/pipeline"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/tracker"
)

// Orchestrator is the pipeline entry point the webhook handlers drive.
type Orchestrator interface {
	Process(ctx context.Context, ev *pipeline.Event) *pipeline.Response
}

// Server is the HTTP API server.
type Server struct {
	echo         *echo.Echo
	httpServer   *http.Server
	cfg          *config.Config
	orchestrator Orchestrator
	tracker      *tracker.Tracker
}

// NewServer creates the API server and registers all routes.
func NewServer(cfg *config.Config, orchestrator Orchestrator, tr *tracker.Tracker) *Server {
	s := &Server{
		echo:         echo.New(),
		cfg:          cfg,
		orchestrator: orchestrator,
		tracker:      tr,
	}
	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	// Webhook payloads are small; reject oversized bodies at the HTTP
	// read level before deserialization.
	s.echo.Use(middleware.BodyLimit(1024 * 1024))
	s.echo.Use(middleware.Recover())
	s.echo.Use(securityHeaders())
	s.echo.Use(requestLogger())

	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// Both webhook paths are exact aliases of the same handler.
	s.echo.POST("/webhook", s.webhookHandler)
	s.echo.POST("/webhook/letta", s.webhookHandler)

	s.echo.GET("/agent-tracker/status", s.trackerStatusHandler)
	s.echo.POST("/agent-tracker/reset", s.trackerResetHandler)
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the underlying handler for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}
