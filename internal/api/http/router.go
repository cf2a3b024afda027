package apihttp

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountinghttp "oliver-admin/internal/accounting/interfaces/http"
	"oliver-admin/internal/auth"
	"oliver-admin/internal/logging"
)

// Config tunes the outer HTTP surface.
type Config struct {
	CORSOrigins        []string
	RateLimitPerMinute int
}

// Deps are the handlers mounted by the router. Nil handlers are not mounted.
type Deps struct {
	DB         *sql.DB
	Auth       *auth.Middleware
	Accounting *accountinghttp.Handler
	Files      http.Handler
	Realtime   http.HandlerFunc
	Metrics    http.Handler
}

// NewRouter assembles middleware and routes.
func NewRouter(cfg Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if deps.Auth != nil {
		r.Use(deps.Auth.Wrap)
	}

	r.Get("/healthz", healthz(deps.DB))
	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)
	if deps.Files != nil {
		r.Handle("/files/*", deps.Files)
	}
	if deps.Realtime != nil {
		r.Get("/admin/ws", deps.Realtime)
	}
	if deps.Accounting != nil {
		r.Route("/admin/accounting", func(r chi.Router) {
			if cfg.RateLimitPerMinute > 0 {
				r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
			}
			deps.Accounting.Routes(r)
		})
	}
	return r
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
