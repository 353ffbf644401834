// Package http exposes the dashboard API: aggregate cricket analytics,
// model predictions and pipeline control, with RFC 7807 error responses.
package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "cricpulse/internal/errors"

	"cricpulse/internal/services"
)

// DataHandler serves the aggregate analytics endpoints.
type DataHandler struct {
	service      *services.DataService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a data handler.
func NewDataHandler(service *services.DataService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/overview", h.GetOverview)
	r.Get("/top-scorers", h.GetTopScorers)
	r.Get("/wicket-takers", h.GetWicketTakers)
	r.Get("/venues", h.GetVenues)
	r.Get("/toss-impact", h.GetTossImpact)
	r.Get("/run-distribution", h.GetRunDistribution)
	r.Get("/reports", h.GetReports)

	return r
}

// limitParam parses the optional ?n= query parameter.
func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.ErrValidation("n", "must be an integer")
	}
	return n, nil
}

// GetOverview handles GET /api/data/overview
func (h *DataHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.GetOverview(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, overview)
}

// GetTopScorers handles GET /api/data/top-scorers?n=10
func (h *DataHandler) GetTopScorers(w http.ResponseWriter, r *http.Request) {
	n, err := limitParam(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	stats, err := h.service.GetTopScorers(r.Context(), n)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}

// GetWicketTakers handles GET /api/data/wicket-takers?n=10
func (h *DataHandler) GetWicketTakers(w http.ResponseWriter, r *http.Request) {
	n, err := limitParam(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	stats, err := h.service.GetTopWicketTakers(r.Context(), n)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}

// GetVenues handles GET /api/data/venues
func (h *DataHandler) GetVenues(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetVenuePerformance(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}

// GetTossImpact handles GET /api/data/toss-impact
func (h *DataHandler) GetTossImpact(w http.ResponseWriter, r *http.Request) {
	impact, err := h.service.GetTossImpact(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, impact)
}

// GetRunDistribution handles GET /api/data/run-distribution?by=innings
func (h *DataHandler) GetRunDistribution(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.GetRunDistribution(r.Context(), r.URL.Query().Get("by"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, buckets)
}

// GetReports handles GET /api/data/reports
func (h *DataHandler) GetReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListReports(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, reports)
}
