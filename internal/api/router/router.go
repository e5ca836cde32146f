// Package router assembles the HTTP surface: public booking and reporting
// routes plus the admin-only mutations behind JWT auth.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vaxtrack/vaxtrack-platform/internal/appointments"
	"github.com/vaxtrack/vaxtrack-platform/internal/hospitals"
	httpmiddleware "github.com/vaxtrack/vaxtrack-platform/internal/http/middleware"
	"github.com/vaxtrack/vaxtrack-platform/internal/reports"
	"github.com/vaxtrack/vaxtrack-platform/internal/users"
	"github.com/vaxtrack/vaxtrack-platform/internal/vaccines"
	"github.com/vaxtrack/vaxtrack-platform/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes
// unmounted so partial deployments and tests can wire only what they need.
type Config struct {
	Logger              *logging.Logger
	HospitalsHandler    *hospitals.Handler
	VaccinesHandler     *vaccines.Handler
	UsersHandler        *users.Handler
	AppointmentsHandler *appointments.Handler
	ReportsHandler      *reports.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string
	RateLimitPerSecond  float64
	RateLimitBurst      int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Admin-only mutations get JWT protection when a secret is configured.
	// Without one the routes stay open, matching single-operator deployments.
	adminOnly := func(next http.Handler) http.Handler { return next }
	if cfg.AdminAuthSecret != "" {
		adminOnly = httpmiddleware.AdminJWT(cfg.AdminAuthSecret)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.HospitalsHandler != nil {
			api.Route("/hospitals", func(r chi.Router) {
				r.Get("/", cfg.HospitalsHandler.List)
				r.With(adminOnly).Post("/", cfg.HospitalsHandler.Create)
				r.With(adminOnly).Delete("/{id}", cfg.HospitalsHandler.Delete)
			})
		}
		if cfg.VaccinesHandler != nil {
			api.Route("/vaccines", func(r chi.Router) {
				r.Get("/", cfg.VaccinesHandler.List)
				r.With(adminOnly).Post("/", cfg.VaccinesHandler.Create)
				r.With(adminOnly).Delete("/{id}", cfg.VaccinesHandler.Delete)
			})
		}
		if cfg.UsersHandler != nil {
			api.Route("/users", func(r chi.Router) {
				r.Post("/register", cfg.UsersHandler.Register)
				r.With(adminOnly).Get("/", cfg.UsersHandler.List)
			})
		}
		if cfg.AppointmentsHandler != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.Create)
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Get("/user/{username}", cfg.AppointmentsHandler.ListForUser)
				r.With(adminOnly).Put("/{id}/approve", cfg.AppointmentsHandler.Decide)
				r.With(adminOnly).Delete("/{id}", cfg.AppointmentsHandler.Delete)
			})
		}
		if cfg.ReportsHandler != nil {
			api.Route("/reports", func(r chi.Router) {
				r.Get("/demographics/age", cfg.ReportsHandler.AgeDemographics)
				r.Get("/demographics/gender", cfg.ReportsHandler.GenderDemographics)
				r.Get("/demographics/preexisting", cfg.ReportsHandler.DiseaseDemographics)
				r.Get("/demographics/profession", cfg.ReportsHandler.ProfessionDemographics)
				r.Get("/daily-doses", cfg.ReportsHandler.DailyDoses)
				r.Get("/population-coverage", cfg.ReportsHandler.PopulationCoverage)
				r.Get("/vaccine-distribution", cfg.ReportsHandler.VaccineDistribution)
				r.Get("/hospital-performance", cfg.ReportsHandler.HospitalPerformance)
				r.With(adminOnly).Get("/debug/data-integrity", cfg.ReportsHandler.DataIntegrity)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
