package assets

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// TaskState tells whether a Task has a run in flight.
type TaskState int

const (
	// No run is armed, or the last run finished.
	TaskStateIdle TaskState = iota
	// A run has been started and has not returned yet.
	TaskStateRunning
)

func (s TaskState) String() string {
	switch s {
	case TaskStateIdle:
		return "idle"
	case TaskStateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Task runs one function at a time off the calling goroutine.
// A Task can be restarted once its previous run has returned.
type Task struct {
	mu       sync.Mutex
	executor Executor
	logger   core.Logger
	runID    uuid.UUID
	done     chan struct{}
}

// NewTask creates an idle task. WithExecutor and WithLogger apply.
func NewTask(opts ...Option) *Task {
	o := newOptions(opts...)
	return newTask(o.executor, o.logger)
}

func newTask(e Executor, l core.Logger) *Task {
	return &Task{executor: e, logger: l}
}

// Start arms the task and hands fn to the executor. It fails with
// core.ErrTaskRunning while the previous run has not returned.
func (t *Task) Start(fn func()) (uuid.UUID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runningLocked() {
		return uuid.Nil, fmt.Errorf("start task %s: %w", t.runID, core.ErrTaskRunning)
	}

	done := make(chan struct{})
	t.done = done
	t.runID = uuid.New()
	runID := t.runID

	t.logger.Debugf("task %s started", runID)
	t.executor.Go(func() {
		defer close(done)
		fn()
	})
	return runID, nil
}

func (t *Task) runningLocked() bool {
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// IsFinished is true when no run is armed or the armed run returned.
func (t *Task) IsFinished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.runningLocked()
}

// State is TaskStateRunning while the armed run has not returned.
func (t *Task) State() TaskState {
	if t.IsFinished() {
		return TaskStateIdle
	}
	return TaskStateRunning
}

// RunID identifies the last started run. uuid.Nil before the first Start.
func (t *Task) RunID() uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runID
}

// Wait blocks until the armed run returned, then disarms the task.
func (t *Task) Wait() {
	_ = t.WaitContext(context.Background())
}

// WaitContext is Wait bounded by ctx. The run itself is never cancelled.
func (t *Task) WaitContext(ctx context.Context) error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	t.mu.Lock()
	if t.done == done {
		t.done = nil
	}
	t.mu.Unlock()
	return nil
}
