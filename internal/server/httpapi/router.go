// Package httpapi is the HTTP transport of the lingoplay backend: auth
// endpoints, the authentication gate, uploads, health and metrics.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/logging"
	"github.com/dmitrijs2005/lingoplay/internal/server/config"
	"github.com/dmitrijs2005/lingoplay/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	cfg     *config.Config
	logger  logging.Logger
	users   *services.UserService
	uploads *services.UploadService
	db      Pinger
	metrics *Metrics
}

func NewHandler(cfg *config.Config, logger logging.Logger, users *services.UserService, uploads *services.UploadService, db Pinger, metrics *Metrics) *Handler {
	return &Handler{
		cfg:     cfg,
		logger:  logger.With("module", "http"),
		users:   users,
		uploads: uploads,
		db:      db,
		metrics: metrics,
	}
}

// Routes builds the chi router with all endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.Limit(100, time.Minute, httprate.WithKeyFuncs(httprate.KeyByRealIP)))
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/refresh", h.handleRefresh)
		r.Post("/logout", h.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.gate)

		r.Get("/users/current", h.handleCurrentUser)

		r.Route("/uploads", func(r chi.Router) {
			r.Post("/games", h.handleCreateGame)
			r.Get("/games", h.handleListGames)
			r.Get("/games/{id}", h.handleGetGame)

			r.Post("/videos", h.handleUploadVideo)
			r.Get("/videos", h.handleListVideos)
			r.Get("/videos/{id}", h.handleGetVideo)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error(ctx, "health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logRequests logs one line per request and feeds the request counter.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			h.metrics.observeRequest(r, status)
			h.logger.Info(r.Context(), "request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
