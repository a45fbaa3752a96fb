package web

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ebudnikov/dateguard/internal/calendar"
	"github.com/ebudnikov/dateguard/internal/pipeline"
	"github.com/ebudnikov/dateguard/internal/tasks"
	"github.com/ebudnikov/dateguard/internal/web/handlers"
)

func (s *Server) setupRoutes(cal *calendar.Service, pipe *pipeline.Pipeline, queue *tasks.Queue, initialDelay time.Duration) {
	calendarHandler := handlers.NewCalendarHandler(cal)
	photosHandler := handlers.NewPhotosHandler(pipe, queue, initialDelay)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Calendar
		r.Get("/calendar/day", calendarHandler.Day)
		r.Get("/calendar/month/{year}/{month}", calendarHandler.Month)
		r.Get("/calendar/upcoming", calendarHandler.Upcoming)
		r.Get("/calendar/easter/{year}", calendarHandler.Easter)
		r.Get("/calendar/search", calendarHandler.Search)

		// Photos
		r.Post("/photos/check", photosHandler.Check)
		r.Post("/photos/{id}/process", photosHandler.Process)
		r.Get("/photos/tasks/{taskId}", photosHandler.TaskStatus)
	})
}
