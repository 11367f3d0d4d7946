package orchestrator

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gridwerk/gridwerk/internal/scenario"
)

// RunStatus is the externally visible state of a scenario (or leaf) run,
// polled by whatever UI sits outside the core.
type RunStatus int

const (
	StatusPending RunStatus = iota
	StatusRunning
	StatusComplete
	StatusError
)

// String returns a stable lower-case name.
func (s RunStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("RunStatus(%d)", int(s))
	}
}

// ScenarioRun is the tracked state of one scenario within a batch.
type ScenarioRun struct {
	ID       uuid.UUID
	Scenario string
	Status   RunStatus
	Leaves   map[string]RunStatus
}

// RunRegistry tracks run status for every scenario and leaf of one batch.
// It is owned by the orchestrator, created at batch start and torn down at
// batch end; there is no ambient global equivalent.
type RunRegistry struct {
	mu   sync.Mutex
	runs map[string]*ScenarioRun
}

// NewRunRegistry returns an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[string]*ScenarioRun)}
}

// Begin registers a scenario as pending and returns its run id.
func (r *RunRegistry) Begin(scenarioName string) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	run := &ScenarioRun{
		ID:       uuid.New(),
		Scenario: scenarioName,
		Status:   StatusPending,
		Leaves:   make(map[string]RunStatus),
	}
	r.runs[scenarioName] = run
	return run.ID
}

// SetStatus is the single mutation point for a scenario's run status.
func (r *RunRegistry) SetStatus(scenarioName string, status RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[scenarioName]; ok {
		run.Status = status
	}
}

// Status reads a scenario's run status; unknown scenarios are pending.
func (r *RunRegistry) Status(scenarioName string) RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[scenarioName]; ok {
		return run.Status
	}
	return StatusPending
}

// SetLeafStatus records the state of one leaf of a scenario.
func (r *RunRegistry) SetLeafStatus(scenarioName string, leaf scenario.Leaf, status RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[scenarioName]; ok {
		run.Leaves[leaf.String()] = status
	}
}

// LeafStatus reads the state of one leaf; unknown leaves are pending.
func (r *RunRegistry) LeafStatus(scenarioName string, leaf scenario.Leaf) RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[scenarioName]; ok {
		if s, ok := run.Leaves[leaf.String()]; ok {
			return s
		}
	}
	return StatusPending
}
