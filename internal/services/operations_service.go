package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apierrors "cricpulse/internal/errors"

	"cricpulse/internal/operations"
)

// OperationService exposes pipeline execution to the HTTP layer.
type OperationService struct {
	manager *operations.Manager
	logger  *slog.Logger
}

// NewOperationService creates an operation service around a manager.
func NewOperationService(manager *operations.Manager, logger *slog.Logger) *OperationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationService{
		manager: manager,
		logger:  logger.With(slog.String("component", "operation_service")),
	}
}

// StartResponse acknowledges an accepted operation.
type StartResponse struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
	Step        string `json:"step,omitempty"`
}

// Start launches an operation in the background and returns immediately.
// The pipeline can run for many minutes; progress streams over the
// websocket and the status endpoint.
func (s *OperationService) Start(ctx context.Context, req operations.OperationRequest) (*StartResponse, error) {
	if s.manager.IsRunning() {
		return nil, apierrors.ErrOperationRunning
	}
	if req.Step != "" && req.Step != "full_pipeline" {
		if _, err := s.manager.GetRegistry().Get(req.Step); err != nil {
			return nil, apierrors.ErrValidation("step", "unknown step "+req.Step)
		}
	}
	if req.ID == "" {
		req.ID = operations.NewOperationID()
	}

	go func() {
		// Detached from the request context so the pipeline survives
		// the HTTP response.
		runCtx := context.Background()
		start := time.Now()
		if _, err := s.manager.Execute(runCtx, req); err != nil {
			s.logger.Error("operation failed",
				slog.String("operation_id", req.ID),
				slog.Duration("duration", time.Since(start)),
				slog.String("error", err.Error()))
			return
		}
		s.logger.Info("operation completed",
			slog.String("operation_id", req.ID),
			slog.Duration("duration", time.Since(start)))
	}()

	return &StartResponse{
		OperationID: req.ID,
		Status:      string(operations.OperationStatusRunning),
		Step:        req.Step,
	}, nil
}

// StatusResponse reports the state of one operation.
type StatusResponse struct {
	OperationID string                 `json:"operation_id"`
	Status      string                 `json:"status"`
	Duration    string                 `json:"duration,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Steps       []StepStatusResponse   `json:"steps"`
	Manifest    map[string]interface{} `json:"manifest,omitempty"`
}

// StepStatusResponse reports the state of one step inside an operation.
type StepStatusResponse struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Status   string                 `json:"status"`
	Progress float64                `json:"progress"`
	Message  string                 `json:"message,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// GetStatus returns the current state of an operation by ID.
func (s *OperationService) GetStatus(ctx context.Context, id string) (*StatusResponse, error) {
	state, ok := s.manager.GetOperation(id)
	if !ok {
		return nil, apierrors.ErrOperationNotFound
	}
	return buildStatusResponse(state), nil
}

// List returns every known operation, newest first.
func (s *OperationService) List(ctx context.Context) []*StatusResponse {
	states := s.manager.ListOperations()
	out := make([]*StatusResponse, 0, len(states))
	for _, state := range states {
		out = append(out, buildStatusResponse(state))
	}
	return out
}

// Steps lists the registered pipeline steps in execution order.
func (s *OperationService) Steps(ctx context.Context) []string {
	return s.manager.GetRegistry().IDs()
}

func buildStatusResponse(state *operations.OperationState) *StatusResponse {
	resp := &StatusResponse{
		OperationID: state.ID,
		Status:      string(state.GetStatus()),
	}
	if d := state.Duration(); d > 0 {
		resp.Duration = d.Round(time.Millisecond).String()
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	for _, id := range operations.StageOrder {
		step := state.GetStage(id)
		if step == nil {
			continue
		}
		resp.Steps = append(resp.Steps, StepStatusResponse{
			ID:       step.ID,
			Name:     step.Name,
			Status:   string(step.GetStatus()),
			Progress: step.GetProgress(),
			Message:  step.GetMessage(),
			Error:    step.GetError(),
			Metadata: step.MetadataSnapshot(),
		})
	}
	// Single-step runs on steps outside the default order still show up.
	if len(resp.Steps) == 0 {
		for id, step := range state.Steps {
			resp.Steps = append(resp.Steps, StepStatusResponse{
				ID:       id,
				Name:     step.Name,
				Status:   string(step.GetStatus()),
				Progress: step.GetProgress(),
				Message:  step.GetMessage(),
				Error:    step.GetError(),
				Metadata: step.MetadataSnapshot(),
			})
		}
	}

	if v, ok := state.GetContext("manifest"); ok {
		if manifest, ok := v.(*operations.PipelineManifest); ok {
			resp.Manifest = manifestSummary(manifest)
		}
	}
	return resp
}

func manifestSummary(m *operations.PipelineManifest) map[string]interface{} {
	data := make([]string, 0)
	for name := range m.AvailableData {
		data = append(data, name)
	}
	return map[string]interface{}{
		"status":           m.Status,
		"available_data":   strings.Join(data, ","),
		"completed_stages": len(m.CompletedStages),
	}
}
