package operations

import (
	"fmt"
	"sync"
)

// Registry holds the registered pipeline steps in execution order.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds a step. Registration order is execution order for the
// full pipeline.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	if step.ID() == "" {
		return fmt.Errorf("cannot register step with empty ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.steps[step.ID()]; exists {
		return fmt.Errorf("step %s already registered", step.ID())
	}
	r.steps[step.ID()] = step
	r.order = append(r.order, step.ID())
	return nil
}

// Get returns a registered step by ID
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, ok := r.steps[id]
	if !ok {
		return nil, fmt.Errorf("step not found: %s", id)
	}
	return step, nil
}

// All returns the registered steps in execution order
func (r *Registry) All() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()
	steps := make([]Step, 0, len(r.order))
	for _, id := range r.order {
		steps = append(steps, r.steps[id])
	}
	return steps
}

// IDs returns the registered step IDs in execution order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}
