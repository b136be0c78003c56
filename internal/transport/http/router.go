// Package http assembles the top-level router from per-domain handlers.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Onahi7/napps-sub001/internal/platform/middleware"
	platformredis "github.com/Onahi7/napps-sub001/internal/platform/redis"
)

// Registrar is the mounting contract every domain handler implements.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the process-wide router: shared middleware, operational
// endpoints, and every domain handler mounted under /api/v1.
func NewRouter(logger *slog.Logger, db *sql.DB, cache *platformredis.Client, handlers ...Registrar) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", healthHandler(db, cache))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		for _, h := range handlers {
			h.Register(api)
		}
	})
	return r
}

func healthHandler(db *sql.DB, cache *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if cache != nil {
			if err := cache.Health(ctx); err != nil {
				http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
