package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/booking"
	"github.com/wolfman30/sofia-scheduler/internal/calendarbridge"
	"github.com/wolfman30/sofia-scheduler/internal/clinic"
	httpmiddleware "github.com/wolfman30/sofia-scheduler/internal/http/middleware"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

// HealthCheck probes one dependency for /health.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	Tools           *booking.Handler
	Appointments    *appointments.Handler
	Clinic          *clinic.Handler
	AdminAuthSecret string
	MetricsHandler  http.Handler

	// Breaker is reported on /health when calendar mirroring is enabled.
	Breaker *calendarbridge.CircuitBreaker
	Checks  map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(cfg))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Voice agent tool surface.
	if cfg.Tools != nil {
		r.Mount("/tools", cfg.Tools.Routes())
	}

	// Staff routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.Appointments != nil {
				admin.Mount("/appointments", cfg.Appointments.Routes())
			}
			if cfg.Clinic != nil {
				admin.Mount("/clinic", cfg.Clinic.Routes())
			}
		})
	}

	return r
}

type healthResponse struct {
	Status  string            `json:"status"`
	Breaker string            `json:"calendar_breaker,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func healthHandler(cfg *Config) http.HandlerFunc {
	names := make([]string, 0, len(cfg.Checks))
	for name := range cfg.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if cfg.Breaker != nil {
			resp.Breaker = cfg.Breaker.State().String()
		}
		if len(names) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			resp.Checks = make(map[string]string, len(names))
			for _, name := range names {
				if err := cfg.Checks[name](ctx); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
