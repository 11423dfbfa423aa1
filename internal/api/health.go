package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/insurx/insurx-web/internal/config"
)

const healthCheckTimeout = 5 * time.Second

// Pinger checks a dependency's reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checks map[string]Pinger
	cfg    *config.Config
	logger *slog.Logger
}

// NewHealthHandler creates a health handler. checks maps a dependency name
// to its pinger.
func NewHealthHandler(checks map[string]Pinger, cfg *config.Config, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, cfg: cfg, logger: logger}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := "healthy"
	statusCode := http.StatusOK

	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Error("Health check failed", "check", name, "error", err)
			checks[name] = "unreachable"
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{
		"status": status,
		"checks": checks,
	}
	if h.cfg != nil {
		body["features"] = map[string]bool{
			"generative": h.cfg.GenerativeEnabled(),
			"payments":   h.cfg.PaymentsEnabled(),
		}
	}
	JSON(w, statusCode, body)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}
