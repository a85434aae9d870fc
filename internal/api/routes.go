package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bcourtine/customweek-api/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health                          liveness + registry count
//	GET  /api/v1/week/today               classify today
//	GET  /api/v1/week/date/{date}         classify a date
//	GET  /api/v1/week/start/{year}/{week} first day of a week
//	GET  /api/v1/week/year/{year}         week-year summary
//	GET  /api/v1/week/range               weeks covering a date range
//	GET  /api/v1/specs                    list registered rules
//	GET  /api/v1/specs/{name}             one registered rule
//	POST /api/v1/specs                    register a rule   (admin)
//	DEL  /api/v1/specs/{name}             remove a rule     (admin)
//
// Calculation endpoints take either ?spec=NAME (registry lookup, default
// from configuration) or ?first_day=&min_days= for an ad-hoc rule.
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/week", func(r chi.Router) {
			r.Get("/today", handlers.GetTodayWeek)
			r.Get("/date/{date}", handlers.GetDateWeek)
			r.Get("/start/{year}/{week}", handlers.GetWeekStart)
			r.Get("/year/{year}", handlers.GetWeekYear)
			r.Get("/range", handlers.GetRangeWeeks)
		})

		r.Route("/specs", func(r chi.Router) {
			r.Get("/", handlers.ListSpecs)
			r.Get("/{name}", handlers.GetSpec)

			// Mutations require the admin key
			r.Group(func(r chi.Router) {
				r.Use(AdminOnlyMiddleware(cfg, logger))
				r.Post("/", handlers.CreateSpec)
				r.Delete("/{name}", handlers.DeleteSpec)
			})
		})
	})

	return r
}
