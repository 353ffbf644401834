package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "cricpulse/internal/errors"

	"cricpulse/internal/predict"
	"cricpulse/pkg/contracts/domain"
)

func newPredictionService(t *testing.T) *PredictionService {
	t.Helper()
	paths := testPaths(t)
	predictor := predict.NewPredictor(paths, nil, discardLogger())
	return NewPredictionService(predictor, discardLogger())
}

func TestPredictWinValidation(t *testing.T) {
	svc := newPredictionService(t)

	_, err := svc.PredictWin(context.Background(), domain.WinPredictionRequest{Team1: "Mumbai Indians"})
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
}

func TestPredictWinTossDecisionValidation(t *testing.T) {
	svc := newPredictionService(t)

	_, err := svc.PredictWin(context.Background(), domain.WinPredictionRequest{
		Team1:        "Mumbai Indians",
		Team2:        "Chennai Super Kings",
		TossDecision: "run",
	})
	require.Error(t, err)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
}

func TestPredictWinModelMissing(t *testing.T) {
	svc := newPredictionService(t)

	_, err := svc.PredictWin(context.Background(), domain.WinPredictionRequest{
		Team1: "Mumbai Indians",
		Team2: "Chennai Super Kings",
	})
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "MODEL_NOT_FOUND", apiErr.ErrorCode)
}

func TestPredictInningsScoreModelMissing(t *testing.T) {
	svc := newPredictionService(t)

	_, err := svc.PredictInningsScore(context.Background(), domain.InningsScoreRequest{
		Team:    "Mumbai Indians",
		Innings: 1,
	})
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "MODEL_NOT_FOUND", apiErr.ErrorCode)
}

func TestModelsAvailableEmpty(t *testing.T) {
	svc := newPredictionService(t)

	models := svc.ModelsAvailable()
	assert.False(t, models["win"])
	assert.False(t, models["innings_score"])
	assert.False(t, models["player_performance"])
}
