package automation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentdesk-desktop/internal/models"
	"rentdesk-desktop/internal/services/frequency"
)

// ErrNotFound is returned when an automation id does not exist in the store.
var ErrNotFound = errors.New("automation not found")

// Repository persists automation records. All operations are ctx-aware and
// may fail with a backend error; the engine propagates those rather than
// swallowing them.
type Repository interface {
	List(ctx context.Context) ([]models.Automation, error)
	GetByID(ctx context.Context, id string) (*models.Automation, error)
	Create(ctx context.Context, a *models.Automation) error
	Update(ctx context.Context, a *models.Automation) error
	Delete(ctx context.Context, id string) error
}

// Executor performs an automation's side effect (send an email, generate a
// document). The engine only needs the success/failure signal.
type Executor interface {
	Execute(ctx context.Context, a *models.Automation) error
}

// RunRecorder stores per-attempt execution records for observability.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *models.AutomationRun) error
}

// Execution result statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Skip reasons
const (
	ReasonInFlight = "already executing"
	ReasonVanished = "automation no longer exists"
)

// ExecutionResult reports the outcome of one execution attempt.
type ExecutionResult struct {
	AutomationID string `json:"automation_id"`
	Status       string `json:"status"` // success, failed, skipped
	Reason       string `json:"reason,omitempty"`
}

// DefaultExecutionTimeout bounds a single executor invocation.
const DefaultExecutionTimeout = 2 * time.Minute

// Engine runs due automations exactly once per scan, advances their schedule
// on success and leaves them due on failure. A mutex-guarded in-flight set
// keyed by automation id prevents concurrent executions of the same
// automation; conflicting attempts are skipped, not queued.
type Engine struct {
	ctx      context.Context
	repo     Repository
	executor Executor
	recorder RunRecorder
	timeout  time.Duration

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// NewEngine creates a new automation engine
func NewEngine(ctx context.Context, repo Repository, executor Executor, recorder RunRecorder, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultExecutionTimeout
	}
	return &Engine{
		ctx:      ctx,
		repo:     repo,
		executor: executor,
		recorder: recorder,
		timeout:  timeout,
		inflight: make(map[string]struct{}),
	}
}

// FindDue filters automations down to those that should run at the given
// time: active with a next execution at or before now. Pure, no side
// effects; the input order is preserved.
func FindDue(automations []models.Automation, now time.Time) []models.Automation {
	due := make([]models.Automation, 0)
	for _, a := range automations {
		if a.IsDue(now) {
			due = append(due, a)
		}
	}
	return due
}

// ExecuteAllDue fetches a fresh snapshot, runs every due automation and
// returns the number of attempted executions. One automation's failure never
// blocks the others; only a failed snapshot read aborts the scan.
func (e *Engine) ExecuteAllDue(now time.Time) (int, error) {
	automations, err := e.repo.List(e.ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list automations: %w", err)
	}

	due := FindDue(automations, now)
	attempted := 0
	for i := range due {
		result := e.ExecuteOne(&due[i], now)
		if result.Status == StatusSkipped && result.Reason == ReasonInFlight {
			continue
		}
		attempted++
		if result.Status == StatusFailed {
			log.Printf("WARNING: Automation %s (%s) failed: %s", due[i].Name, due[i].ID, result.Reason)
		}
	}

	return attempted, nil
}

// ExecuteOne runs a single automation. On executor success the schedule is
// advanced strictly past now and persisted; on failure the record is left
// untouched so the automation stays due and is retried on the next scan.
func (e *Engine) ExecuteOne(a *models.Automation, now time.Time) ExecutionResult {
	if !e.claim(a.ID) {
		return ExecutionResult{AutomationID: a.ID, Status: StatusSkipped, Reason: ReasonInFlight}
	}
	defer e.release(a.ID)

	// Re-fetch: the automation may have been edited or deleted between
	// selection and execution. A vanished automation is already handled,
	// not an error.
	current, err := e.repo.GetByID(e.ctx, a.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ExecutionResult{AutomationID: a.ID, Status: StatusSkipped, Reason: ReasonVanished}
		}
		return e.fail(a.ID, now, fmt.Errorf("failed to load automation: %w", err))
	}

	execCtx, cancel := context.WithTimeout(e.ctx, e.timeout)
	defer cancel()

	if err := e.executor.Execute(execCtx, current); err != nil {
		return e.fail(current.ID, now, fmt.Errorf("executor failed: %w", err))
	}

	next, err := frequency.ComputeNext(current.Frequency, now)
	if err != nil {
		// Invalid frequency on a stored record: surface it, do not advance.
		return e.fail(current.ID, now, err)
	}

	last := now
	current.LastExecution = &last
	current.NextExecution = next
	if err := e.repo.Update(e.ctx, current); err != nil {
		// The side effect ran but the new schedule was not saved; the
		// automation stays due and will run again (at-least-once).
		return e.fail(current.ID, now, fmt.Errorf("failed to persist schedule: %w", err))
	}

	e.record(current.ID, now, models.RunStatusSuccess, "")
	return ExecutionResult{AutomationID: current.ID, Status: StatusSuccess}
}

// ExecuteNow runs an automation immediately, bypassing the due check but not
// the in-flight guard. A successful manual run advances the schedule exactly
// like a scheduled one. Errors are propagated to the caller.
func (e *Engine) ExecuteNow(id string) (ExecutionResult, error) {
	a, err := e.repo.GetByID(e.ctx, id)
	if err != nil {
		return ExecutionResult{AutomationID: id, Status: StatusFailed, Reason: err.Error()}, err
	}

	result := e.ExecuteOne(a, time.Now())
	if result.Status == StatusFailed {
		return result, fmt.Errorf("execution failed: %s", result.Reason)
	}
	return result, nil
}

// claim marks the automation as executing; false means it already is.
func (e *Engine) claim(id string) bool {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	if _, running := e.inflight[id]; running {
		return false
	}
	e.inflight[id] = struct{}{}
	return true
}

func (e *Engine) release(id string) {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	delete(e.inflight, id)
}

func (e *Engine) fail(id string, now time.Time, err error) ExecutionResult {
	e.record(id, now, models.RunStatusFailed, err.Error())
	return ExecutionResult{AutomationID: id, Status: StatusFailed, Reason: err.Error()}
}

func (e *Engine) record(id string, startedAt time.Time, status, errMsg string) {
	finished := time.Now()
	run := &models.AutomationRun{
		ID:           uuid.New().String(),
		AutomationID: id,
		Status:       status,
		Error:        errMsg,
		StartedAt:    startedAt,
		FinishedAt:   &finished,
	}
	if err := e.recorder.RecordRun(e.ctx, run); err != nil {
		log.Printf("WARNING: Failed to record run for automation %s: %v", id, err)
	}
}
