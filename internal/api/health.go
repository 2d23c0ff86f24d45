package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/quizzical/internal/store"
	"github.com/go-chi/chi/v5"
)

// StatusReporter receives the outcome of each health check.
type StatusReporter interface {
	SetServing(serving bool)
}

// HealthHandler reports service health.
type HealthHandler struct {
	repo     store.Repository
	reporter StatusReporter
	timeout  time.Duration
}

// NewHealthHandler creates a health handler. reporter may be nil.
func NewHealthHandler(repo store.Repository, reporter StatusReporter) *HealthHandler {
	return &HealthHandler{repo: repo, reporter: reporter, timeout: 2 * time.Second}
}

// RegisterHealth registers the health route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}

// Health pings the database.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		h.report(false)
		JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}

	h.report(true)
	JSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "ok",
	})
}

func (h *HealthHandler) report(serving bool) {
	if h.reporter != nil {
		h.reporter.SetServing(serving)
	}
}
