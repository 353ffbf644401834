package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "cricpulse/internal/errors"

	"cricpulse/internal/operations"
	"cricpulse/internal/services"
)

// OperationsHandler controls pipeline execution over HTTP.
type OperationsHandler struct {
	service      *services.OperationService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOperationsHandler creates an operations handler.
func NewOperationsHandler(service *services.OperationService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	return &OperationsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "operations_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the operation routes.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/start", h.Start)
	r.Get("/", h.List)
	r.Get("/steps", h.Steps)
	r.Get("/{id}", h.GetStatus)

	return r
}

// Start handles POST /api/operations/start
func (h *OperationsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req operations.OperationRequest
	// An empty body means the full pipeline.
	if r.Body != nil && r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
	}
	resp, err := h.service.Start(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, resp)
}

// List handles GET /api/operations
func (h *OperationsHandler) List(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.List(r.Context()))
}

// Steps handles GET /api/operations/steps
func (h *OperationsHandler) Steps(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Steps(r.Context()))
}

// GetStatus handles GET /api/operations/{id}
func (h *OperationsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "operation id is required"))
		return
	}
	status, err := h.service.GetStatus(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}
