// Package web serves the kiosk UI and the JSON API in front of the
// attendance flows.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Calendar-One/face-attendance-ui/internal/attendance"
	"github.com/Calendar-One/face-attendance-ui/internal/camera"
	"github.com/Calendar-One/face-attendance-ui/internal/config"
	"github.com/Calendar-One/face-attendance-ui/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server

	manager      *camera.Manager
	poller       *attendance.Poller
	registration *attendance.Registration
	log          *attendance.Log
	notifier     *attendance.Notifier
}

// NewServer creates a new web server on top of the attendance flows.
func NewServer(
	cfg *config.Config,
	manager *camera.Manager,
	poller *attendance.Poller,
	registration *attendance.Registration,
	attLog *attendance.Log,
	notifier *attendance.Notifier,
) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:       cfg,
		router:       r,
		manager:      manager,
		poller:       poller,
		registration: registration,
		log:          attLog,
		notifier:     notifier,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long timeout for SSE and the MJPEG preview
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and releases the camera.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	s.poller.Stop()
	s.manager.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
