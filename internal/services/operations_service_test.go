package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "cricpulse/internal/errors"

	"cricpulse/internal/operations"
)

type noopStep struct {
	operations.BaseStage
	delay time.Duration
}

func (s *noopStep) Execute(ctx context.Context, state *operations.OperationState) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func newTestService(t *testing.T, steps ...operations.Step) *OperationService {
	t.Helper()
	m := operations.NewManager(nil, nil, nil, discardLogger())
	for _, step := range steps {
		require.NoError(t, m.RegisterStage(step))
	}
	return NewOperationService(m, discardLogger())
}

func quickStep(id string) *noopStep {
	return &noopStep{BaseStage: operations.NewBaseStage(id, id)}
}

func waitForStatus(t *testing.T, svc *OperationService, id, want string) *StatusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := svc.GetStatus(context.Background(), id)
		if err == nil && resp.Status == want {
			return resp
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("operation %s never reached status %s", id, want)
	return nil
}

func TestOperationServiceStartAndStatus(t *testing.T) {
	svc := newTestService(t, quickStep("scraping"), quickStep("cleaning"))

	resp, err := svc.Start(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.OperationID)
	assert.Equal(t, "running", resp.Status)

	status := waitForStatus(t, svc, resp.OperationID, "completed")
	require.Len(t, status.Steps, 2)
	assert.Equal(t, "completed", status.Steps[0].Status)
}

func TestOperationServiceUnknownStep(t *testing.T) {
	svc := newTestService(t, quickStep("scraping"))

	_, err := svc.Start(context.Background(), operations.OperationRequest{Step: "bogus"})
	require.Error(t, err)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
}

func TestOperationServiceConflict(t *testing.T) {
	slow := &noopStep{BaseStage: operations.NewBaseStage("slow", "slow"), delay: 500 * time.Millisecond}
	svc := newTestService(t, slow)

	first, err := svc.Start(context.Background(), operations.OperationRequest{ID: "op-1"})
	require.NoError(t, err)

	waitForStatus(t, svc, first.OperationID, "running")

	_, err = svc.Start(context.Background(), operations.OperationRequest{ID: "op-2"})
	require.Error(t, err)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "OPERATION_RUNNING", apiErr.ErrorCode)

	waitForStatus(t, svc, first.OperationID, "completed")
}

func TestOperationServiceStatusNotFound(t *testing.T) {
	svc := newTestService(t, quickStep("scraping"))

	_, err := svc.GetStatus(context.Background(), "missing")
	require.Error(t, err)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "OPERATION_NOT_FOUND", apiErr.ErrorCode)
}

func TestOperationServiceSteps(t *testing.T) {
	svc := newTestService(t, quickStep("scraping"), quickStep("cleaning"))
	assert.Equal(t, []string{"scraping", "cleaning"}, svc.Steps(context.Background()))
}
