package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Calendar-One/face-attendance-ui/internal/web/handlers"
	"github.com/Calendar-One/face-attendance-ui/internal/web/static"
)

func (s *Server) setupRoutes() {
	cameraHandler := handlers.NewCameraHandler(s.manager, s.config.Camera.FPS)
	pollerHandler := handlers.NewPollerHandler(s.poller)
	registrationHandler := handlers.NewRegistrationHandler(s.registration)
	attendanceHandler := handlers.NewAttendanceHandler(s.log)
	eventsHandler := handlers.NewEventsHandler(s.notifier)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Camera session
		r.Post("/camera/start", cameraHandler.Start)
		r.Post("/camera/stop", cameraHandler.Stop)
		r.Get("/camera/status", cameraHandler.Status)
		r.Get("/camera/preview", cameraHandler.Preview)

		// Verification polling loop
		r.Post("/poller/start", pollerHandler.Start)
		r.Post("/poller/stop", pollerHandler.Stop)
		r.Get("/poller/status", pollerHandler.Status)

		// Flow notices (SSE)
		r.Get("/events", eventsHandler.Stream)

		// Registration flow
		r.Post("/registration/capture", registrationHandler.Capture)
		r.Get("/registration/images", registrationHandler.List)
		r.Delete("/registration/images/{id}", registrationHandler.Remove)
		r.Get("/registration/images/{id}/preview", registrationHandler.Preview)
		r.Post("/registration/register", registrationHandler.Register)
		r.Post("/registration/reset", registrationHandler.Reset)
		r.Post("/registration/verify-once", registrationHandler.VerifyOnce)

		// Attendance log
		r.Get("/attendance", attendanceHandler.List)
	})

	// Kiosk page
	s.router.Get("/", s.serveIndex)
}

// serveIndex serves the embedded kiosk page.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(static.IndexHTML())
}
