// Package httpapi exposes the hub over a JSON HTTP API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hubsync/hubsync/internal/hub"
)

// Server is the HTTP API wrapper around a hub.
type Server struct {
	h *Handlers
	e *echo.Echo
}

func NewServer(h *hub.Hub) *Server {
	s := &Server{h: &Handlers{Hub: h}, e: echo.New()}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.Recover())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.e.GET("/healthz", s.h.HandleHealthz)

	s.e.GET("/integrations", s.h.HandleListIntegrations)
	s.e.POST("/integrations", s.h.HandleRegisterIntegration)
	s.e.GET("/integrations/:id", s.h.HandleGetIntegration)
	s.e.PUT("/integrations/:id", s.h.HandleReplaceIntegration)
	s.e.DELETE("/integrations/:id", s.h.HandleRemoveIntegration)
	s.e.POST("/integrations/:id/sync", s.h.HandleSyncIntegration)

	s.e.POST("/sync", s.h.HandleSyncAll)
	s.e.GET("/health", s.h.HandleHealth)
	s.e.GET("/health/:id", s.h.HandleHealth)
	s.e.GET("/events", s.h.HandleEvents)
}

// Handler returns the routing tree for serving or for tests.
func (s *Server) Handler() http.Handler { return s.e }

// Start serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http api listening", "addr", addr)
		errCh <- s.e.StartServer(srv)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
