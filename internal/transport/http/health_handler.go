package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"cricpulse/internal/services"
)

// HealthHandler serves the health check endpoint.
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("component", "health_handler")),
	}
}

// Check handles GET /api/health. A degraded dataset still returns 200;
// the body carries the detail.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Check(r.Context()))
}
