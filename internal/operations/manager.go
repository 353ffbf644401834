package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cricpulse/internal/infrastructure"
)

// WebSocketHub receives operation status updates for connected clients
type WebSocketHub interface {
	BroadcastUpdate(eventType, step, status string, metadata interface{})
}

// noopHub swallows updates when no hub is wired (CLI binaries)
type noopHub struct{}

func (noopHub) BroadcastUpdate(string, string, string, interface{}) {}

// Manager orchestrates operation execution. Stages run sequentially;
// the pipeline is inherently ordered because each stage consumes the
// previous stage's files.
type Manager struct {
	registry *Registry
	config   *Config
	hub      WebSocketHub
	logger   *slog.Logger

	mu         sync.RWMutex
	operations map[string]*OperationState
	running    bool
}

// NewManager creates an operation manager
func NewManager(hub WebSocketHub, registry *Registry, config *Config, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if hub == nil {
		hub = noopHub{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry:   registry,
		config:     config,
		hub:        hub,
		logger:     logger.With(slog.String("component", "operations")),
		operations: make(map[string]*OperationState),
	}
}

// NewOperationID generates a unique operation identifier
func NewOperationID() string {
	return uuid.New().String()
}

// IsRunning reports whether an operation is currently executing
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// RegisterStage registers a step with the manager
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered stages
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetOperation returns the state of an operation by ID
func (m *Manager) GetOperation(id string) (*OperationState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.operations[id]
	return state, ok
}

// ListOperations returns all known operation states
func (m *Manager) ListOperations() []*OperationState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*OperationState, 0, len(m.operations))
	for _, state := range m.operations {
		out = append(out, state)
	}
	return out
}

// Execute runs an operation. Only one operation runs at a time; a
// second Execute while one is running returns an error.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil, fmt.Errorf("operation already running")
	}
	m.running = true
	state := NewOperationState(req.ID)
	m.operations[req.ID] = state
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	steps, err := m.resolveSteps(req)
	if err != nil {
		state.Fail(err)
		return m.createResponse(state), err
	}

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	manifest := NewPipelineManifest(req.ID)
	manifest.SetStatus("running")
	state.SetContext("manifest", manifest)

	state.Start()
	m.hub.BroadcastUpdate(EventTypeOperationStatus, "", string(OperationStatusRunning), map[string]interface{}{
		"operation_id": req.ID,
		"steps":        m.registry.IDs(),
	})

	execErr := m.executeSequential(ctx, state, steps)

	if execErr != nil {
		state.Fail(execErr)
		manifest.SetStatus("failed")
		m.hub.BroadcastUpdate(EventTypeOperationError, "", string(OperationStatusFailed), map[string]interface{}{
			"operation_id": req.ID,
			"error":        execErr.Error(),
		})
	} else {
		state.Complete()
		manifest.SetStatus("completed")
		m.hub.BroadcastUpdate(EventTypeOperationComplete, "", string(OperationStatusCompleted), map[string]interface{}{
			"operation_id": req.ID,
			"duration":     state.Duration().String(),
		})
	}

	return m.createResponse(state), execErr
}

// resolveSteps picks the single requested step or the full pipeline
func (m *Manager) resolveSteps(req OperationRequest) ([]Step, error) {
	if req.Step != "" && req.Step != "full_pipeline" {
		step, err := m.registry.Get(req.Step)
		if err != nil {
			return nil, err
		}
		return []Step{step}, nil
	}
	steps := m.registry.All()
	if len(steps) == 0 {
		return nil, fmt.Errorf("no steps registered")
	}
	return steps, nil
}

// executeSequential runs steps one by one, skipping the remainder after
// a failure unless ContinueOnError is set.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		select {
		case <-ctx.Done():
			state.Cancel()
			return NewCancellationError(step.ID())
		default:
		}

		if i > 0 && !m.config.ContinueOnError {
			prev := state.GetStage(steps[i-1].ID())
			if prev != nil && prev.GetStatus() != StepStatusCompleted {
				stepState := state.GetStage(step.ID())
				stepState.Skip(fmt.Sprintf("previous step %s not completed", steps[i-1].ID()))
				m.broadcastStep(state.ID, stepState)
				continue
			}
		}

		if err := m.executeStage(ctx, state, step); err != nil {
			if !m.config.ContinueOnError {
				return err
			}
			m.logger.WarnContext(ctx, "step failed, continuing",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// executeStage runs a single step with timeout and retry
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}

	if err := step.Validate(state); err != nil {
		stepState.Skip(fmt.Sprintf("validation failed: %v", err))
		m.broadcastStep(state.ID, stepState)
		return NewValidationError(step.ID(), err.Error())
	}

	stageCtx, cancel := context.WithTimeout(ctx, m.config.GetStageTimeout(step.ID()))
	defer cancel()

	retry := m.config.RetryConfig
	delay := retry.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		stepState.Start()
		m.broadcastStep(state.ID, stepState)

		start := time.Now()
		err := step.Execute(stageCtx, state)
		infrastructure.StageDurationSeconds.WithLabelValues(step.ID()).Observe(time.Since(start).Seconds())

		if err == nil {
			stepState.Complete()
			infrastructure.StageRunsTotal.WithLabelValues(step.ID(), "success").Inc()
			m.broadcastStep(state.ID, stepState)
			m.recordManifest(state, step, stepState, nil)
			return nil
		}
		lastErr = err
		infrastructure.StageRunsTotal.WithLabelValues(step.ID(), "failure").Inc()

		m.logger.WarnContext(ctx, "step attempt failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)

		if !IsRetryable(err) || attempt == retry.MaxAttempts {
			break
		}

		select {
		case <-stageCtx.Done():
			stepState.Fail(stageCtx.Err())
			m.broadcastStep(state.ID, stepState)
			return NewCancellationError(step.ID())
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * retry.Multiplier)
		if delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}
	}

	stepState.Fail(lastErr)
	m.broadcastStep(state.ID, stepState)
	m.recordManifest(state, step, stepState, lastErr)
	return NewExecutionError(step.ID(), lastErr)
}

func (m *Manager) recordManifest(state *OperationState, step Step, stepState *StepState, err error) {
	v, ok := state.GetContext("manifest")
	if !ok {
		return
	}
	manifest, ok := v.(*PipelineManifest)
	if !ok {
		return
	}
	exec := StageExecution{
		StageID: step.ID(),
		Status:  string(stepState.GetStatus()),
	}
	if stepState.StartTime != nil {
		exec.StartTime = *stepState.StartTime
	}
	if stepState.EndTime != nil {
		exec.EndTime = *stepState.EndTime
	}
	if err != nil {
		exec.Error = err.Error()
	}
	manifest.RecordStage(exec)
}

func (m *Manager) broadcastStep(operationID string, stepState *StepState) {
	m.hub.BroadcastUpdate(EventTypeOperationProgress, stepState.ID, string(stepState.GetStatus()), map[string]interface{}{
		"operation_id": operationID,
		"progress":     stepState.GetProgress(),
		"message":      stepState.GetMessage(),
	})
}

func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Steps,
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}
