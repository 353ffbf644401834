package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	apierrors "cricpulse/internal/errors"

	"cricpulse/internal/predict"
	"cricpulse/pkg/contracts/domain"
)

// PredictionService validates prediction requests and runs them through
// the trained models.
type PredictionService struct {
	predictor *predict.Predictor
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewPredictionService creates a prediction service around a predictor.
func NewPredictionService(predictor *predict.Predictor, logger *slog.Logger) *PredictionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictionService{
		predictor: predictor,
		validate:  validator.New(),
		logger:    logger.With(slog.String("component", "prediction_service")),
	}
}

// wrapPredictErr maps predictor failures onto API errors.
func wrapPredictErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, predict.ErrNotTrained) {
		return apierrors.NewWithDetails(apierrors.ErrModelNotFound.StatusCode,
			apierrors.ErrModelNotFound.ErrorCode, apierrors.ErrModelNotFound.Message, err.Error())
	}
	return apierrors.NewWithDetails(apierrors.ErrUnprocessableEntity.StatusCode,
		apierrors.ErrUnprocessableEntity.ErrorCode, apierrors.ErrUnprocessableEntity.Message, err.Error())
}

// validationErrors converts validator output to field-level API errors.
func (s *PredictionService) validationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierrors.InvalidRequestWithError(err)
	}
	fields := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: "failed on the '" + fe.Tag() + "' rule",
		})
	}
	return apierrors.NewValidationErrors(fields)
}

// PredictWin returns the probability that team1 beats team2.
func (s *PredictionService) PredictWin(ctx context.Context, req domain.WinPredictionRequest) (*domain.WinPrediction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, s.validationErrors(err)
	}
	pred, err := s.predictor.PredictWin(ctx, req)
	if err != nil {
		return nil, wrapPredictErr(err)
	}
	return pred, nil
}

// PredictInningsScore returns a projected innings total.
func (s *PredictionService) PredictInningsScore(ctx context.Context, req domain.InningsScoreRequest) (*domain.InningsScorePrediction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, s.validationErrors(err)
	}
	pred, err := s.predictor.PredictInningsScore(ctx, req)
	if err != nil {
		return nil, wrapPredictErr(err)
	}
	return pred, nil
}

// PredictPlayerPerformance returns a projected run contribution.
func (s *PredictionService) PredictPlayerPerformance(ctx context.Context, req domain.PlayerPerformanceRequest) (*domain.PlayerPerformancePrediction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, s.validationErrors(err)
	}
	pred, err := s.predictor.PredictPlayerPerformance(ctx, req)
	if err != nil {
		return nil, wrapPredictErr(err)
	}
	return pred, nil
}

// History returns the most recent persisted predictions.
func (s *PredictionService) History(ctx context.Context, n int) ([]domain.PredictionRecord, error) {
	records, err := s.predictor.History(ctx, n)
	if err != nil {
		s.logger.WarnContext(ctx, "prediction history unavailable", slog.String("error", err.Error()))
		return nil, apierrors.ErrInternalServer
	}
	return records, nil
}

// ModelsAvailable reports which model bundles exist on disk.
func (s *PredictionService) ModelsAvailable() map[string]bool {
	return s.predictor.ModelsAvailable()
}
