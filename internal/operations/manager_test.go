package operations

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStep is a configurable step for manager tests
type fakeStep struct {
	BaseStage
	executeFn  func(ctx context.Context, state *OperationState) error
	validateFn func(state *OperationState) error
	calls      int
	mu         sync.Mutex
}

func newFakeStep(id string, executeFn func(ctx context.Context, state *OperationState) error) *fakeStep {
	return &fakeStep{
		BaseStage: NewBaseStage(id, id),
		executeFn: executeFn,
	}
}

func (f *fakeStep) Execute(ctx context.Context, state *OperationState) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.executeFn != nil {
		return f.executeFn(ctx, state)
	}
	return nil
}

func (f *fakeStep) Validate(state *OperationState) error {
	if f.validateFn != nil {
		return f.validateFn(state)
	}
	return nil
}

func (f *fakeStep) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingHub captures broadcast events
type recordingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHub) BroadcastUpdate(eventType, step, status string, _ interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, eventType+"/"+step+"/"+status)
}

func (h *recordingHub) all() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func fastConfig() *Config {
	cfg := NewConfig()
	cfg.RetryConfig = RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
	return cfg
}

func TestManagerExecuteFullPipeline(t *testing.T) {
	hub := &recordingHub{}
	m := NewManager(hub, nil, fastConfig(), nil)

	var order []string
	for _, id := range []string{"a", "b", "c"} {
		id := id
		require.NoError(t, m.RegisterStage(newFakeStep(id, func(ctx context.Context, state *OperationState) error {
			order = append(order, id)
			return nil
		})))
	}

	resp, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, resp.Status)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Len(t, resp.Steps, 3)
	for _, step := range resp.Steps {
		assert.Equal(t, StepStatusCompleted, step.GetStatus())
	}

	events := hub.all()
	assert.Contains(t, events, "operation:complete//completed")
}

func TestManagerExecuteSingleStep(t *testing.T) {
	m := NewManager(nil, nil, fastConfig(), nil)

	stepA := newFakeStep("a", nil)
	stepB := newFakeStep("b", nil)
	require.NoError(t, m.RegisterStage(stepA))
	require.NoError(t, m.RegisterStage(stepB))

	resp, err := m.Execute(context.Background(), OperationRequest{Step: "b"})
	require.NoError(t, err)

	assert.Equal(t, 0, stepA.callCount())
	assert.Equal(t, 1, stepB.callCount())
	assert.Len(t, resp.Steps, 1)
}

func TestManagerUnknownStep(t *testing.T) {
	m := NewManager(nil, nil, fastConfig(), nil)
	require.NoError(t, m.RegisterStage(newFakeStep("a", nil)))

	_, err := m.Execute(context.Background(), OperationRequest{Step: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestManagerRetriesThenSucceeds(t *testing.T) {
	m := NewManager(nil, nil, fastConfig(), nil)

	attempts := 0
	require.NoError(t, m.RegisterStage(newFakeStep("flaky", func(ctx context.Context, state *OperationState) error {
		attempts++
		if attempts < 3 {
			return NewExecutionError("flaky", fmt.Errorf("transient"))
		}
		return nil
	})))

	resp, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, OperationStatusCompleted, resp.Status)
}

func TestManagerFailureSkipsRemainingSteps(t *testing.T) {
	m := NewManager(nil, nil, fastConfig(), nil)

	require.NoError(t, m.RegisterStage(newFakeStep("first", func(ctx context.Context, state *OperationState) error {
		return NewFatalError("broken", nil)
	})))
	later := newFakeStep("later", nil)
	require.NoError(t, m.RegisterStage(later))

	resp, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)

	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, StepStatusFailed, resp.Steps["first"].GetStatus())
	assert.Equal(t, 0, later.callCount())
}

func TestManagerFatalErrorNotRetried(t *testing.T) {
	m := NewManager(nil, nil, fastConfig(), nil)

	step := newFakeStep("fatal", func(ctx context.Context, state *OperationState) error {
		return NewFatalError("no point retrying", nil)
	})
	require.NoError(t, m.RegisterStage(step))

	_, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, step.callCount())
}

func TestManagerValidationSkips(t *testing.T) {
	m := NewManager(nil, nil, fastConfig(), nil)

	step := newFakeStep("guarded", nil)
	step.validateFn = func(state *OperationState) error {
		return fmt.Errorf("inputs missing")
	}
	require.NoError(t, m.RegisterStage(step))

	resp, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, 0, step.callCount())
	assert.Equal(t, StepStatusSkipped, resp.Steps["guarded"].GetStatus())
}

func TestManagerRejectsConcurrentOperations(t *testing.T) {
	m := NewManager(nil, nil, fastConfig(), nil)

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, m.RegisterStage(newFakeStep("slow", func(ctx context.Context, state *OperationState) error {
		close(started)
		<-release
		return nil
	})))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := m.Execute(context.Background(), OperationRequest{ID: "op-1"})
		assert.NoError(t, err)
	}()

	<-started
	_, err := m.Execute(context.Background(), OperationRequest{ID: "op-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	close(release)
	<-done
}

func TestManagerGetOperation(t *testing.T) {
	m := NewManager(nil, nil, fastConfig(), nil)
	require.NoError(t, m.RegisterStage(newFakeStep("a", nil)))

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "my-op"})
	require.NoError(t, err)
	require.Equal(t, "my-op", resp.ID)

	state, ok := m.GetOperation("my-op")
	require.True(t, ok)
	assert.Equal(t, OperationStatusCompleted, state.GetStatus())

	_, ok = m.GetOperation("missing")
	assert.False(t, ok)
}

func TestManagerCancelledContext(t *testing.T) {
	m := NewManager(nil, nil, fastConfig(), nil)
	require.NoError(t, m.RegisterStage(newFakeStep("a", nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := m.Execute(ctx, OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, OperationStatusFailed, resp.Status)
}

func TestStepStateConcurrentReadsAndWrites(t *testing.T) {
	state := NewStepState(StageIDScraping, StageNameScraping)
	state.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				state.UpdateProgress(float64(j), fmt.Sprintf("pass %d", n))
				state.SetMetadata("rows", j)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = state.GetProgress()
				_ = state.GetMessage()
				_ = state.GetStatus()
			}
		}()
	}
	wg.Wait()

	state.Complete()
	assert.Equal(t, StepStatusCompleted, state.GetStatus())
	assert.Equal(t, float64(100), state.GetProgress())
}

func TestRegistryOrderAndDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeStep("x", nil)))
	require.NoError(t, r.Register(newFakeStep("y", nil)))

	assert.Equal(t, []string{"x", "y"}, r.IDs())

	err := r.Register(newFakeStep("x", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}
