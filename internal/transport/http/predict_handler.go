package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "cricpulse/internal/errors"

	"cricpulse/internal/services"
	"cricpulse/pkg/contracts/domain"
)

// PredictHandler serves model predictions.
type PredictHandler struct {
	service      *services.PredictionService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPredictHandler creates a prediction handler.
func NewPredictHandler(service *services.PredictionService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PredictHandler {
	return &PredictHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "predict_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the prediction routes.
func (h *PredictHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/win", h.PredictWin)
	r.Post("/innings-score", h.PredictInningsScore)
	r.Post("/player-performance", h.PredictPlayerPerformance)
	r.Get("/history", h.GetHistory)
	r.Get("/models", h.GetModels)

	return r
}

// decode parses a JSON request body into dst.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierrors.InvalidRequestWithError(err)
	}
	return nil
}

// PredictWin handles POST /api/predict/win
func (h *PredictHandler) PredictWin(w http.ResponseWriter, r *http.Request) {
	var req domain.WinPredictionRequest
	if err := decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	pred, err := h.service.PredictWin(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, pred)
}

// PredictInningsScore handles POST /api/predict/innings-score
func (h *PredictHandler) PredictInningsScore(w http.ResponseWriter, r *http.Request) {
	var req domain.InningsScoreRequest
	if err := decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	pred, err := h.service.PredictInningsScore(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, pred)
}

// PredictPlayerPerformance handles POST /api/predict/player-performance
func (h *PredictHandler) PredictPlayerPerformance(w http.ResponseWriter, r *http.Request) {
	var req domain.PlayerPerformanceRequest
	if err := decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	pred, err := h.service.PredictPlayerPerformance(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, pred)
}

// GetHistory handles GET /api/predict/history?n=20
func (h *PredictHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("n", "must be an integer"))
			return
		}
		n = parsed
	}
	records, err := h.service.History(r.Context(), n)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.PredictionRecord{}
	}
	render.JSON(w, r, records)
}

// GetModels handles GET /api/predict/models
func (h *PredictHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.ModelsAvailable())
}
