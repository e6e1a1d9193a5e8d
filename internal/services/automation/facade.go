package automation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"rentdesk-desktop/internal/models"
)

// SchedulerControl is the scheduler loop surface the facade passes through
// to UI collaborators.
type SchedulerControl interface {
	Start() error
	Stop()
	IsActive() bool
}

// Subscriber receives the fresh automation list after every mutation.
type Subscriber func(automations []models.Automation)

// Facade is the single boundary UI code may call. Imperative operations
// funnel through the engine and repository, errors are surfaced as typed
// results, and subscribers are pushed the updated list after every
// successful mutation.
type Facade struct {
	ctx    context.Context
	engine *Engine
	repo   Repository
	loop   SchedulerControl

	subMu  sync.RWMutex
	subs   map[int]Subscriber
	nextID int
}

// NewFacade creates the UI-facing automation facade
func NewFacade(ctx context.Context, engine *Engine, repo Repository, loop SchedulerControl) *Facade {
	return &Facade{
		ctx:    ctx,
		engine: engine,
		repo:   repo,
		loop:   loop,
		subs:   make(map[int]Subscriber),
	}
}

// Subscribe registers a subscriber and returns an unsubscribe function.
func (f *Facade) Subscribe(fn Subscriber) func() {
	f.subMu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.subMu.Unlock()

	return func() {
		f.subMu.Lock()
		delete(f.subs, id)
		f.subMu.Unlock()
	}
}

// notify pushes the current list to all subscribers.
func (f *Facade) notify() {
	automations, err := f.repo.List(f.ctx)
	if err != nil {
		log.Printf("WARNING: Failed to refresh automation list for subscribers: %v", err)
		return
	}

	f.subMu.RLock()
	subs := make([]Subscriber, 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.subMu.RUnlock()

	for _, fn := range subs {
		fn(automations)
	}
}

// List returns all automations.
func (f *Facade) List() ([]models.Automation, error) {
	return f.repo.List(f.ctx)
}

// Get returns a single automation by id.
func (f *Facade) Get(id string) (*models.Automation, error) {
	return f.repo.GetByID(f.ctx, id)
}

// Create validates and persists a new automation.
func (f *Facade) Create(req CreateAutomationRequest) (*models.Automation, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("unknown automation type: %q", req.Type)
	}
	if !req.Frequency.Valid() {
		return nil, fmt.Errorf("unknown frequency: %q", req.Frequency)
	}
	if req.NextExecution.IsZero() {
		return nil, fmt.Errorf("next execution time is required")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	a := &models.Automation{
		Name:               req.Name,
		Description:        req.Description,
		Type:               req.Type,
		Frequency:          req.Frequency,
		NextExecution:      req.NextExecution,
		Active:             active,
		PropertyID:         req.PropertyID,
		ExecutionTime:      req.ExecutionTime,
		EmailTemplateID:    req.EmailTemplateID,
		DocumentTemplateID: req.DocumentTemplateID,
	}

	if err := f.repo.Create(f.ctx, a); err != nil {
		return nil, err
	}

	f.notify()
	return a, nil
}

// Update applies a partial update to an automation.
func (f *Facade) Update(id string, req UpdateAutomationRequest) (*models.Automation, error) {
	a, err := f.repo.GetByID(f.ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		a.Name = *req.Name
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, fmt.Errorf("unknown automation type: %q", *req.Type)
		}
		a.Type = *req.Type
	}
	if req.Frequency != nil {
		if !req.Frequency.Valid() {
			return nil, fmt.Errorf("unknown frequency: %q", *req.Frequency)
		}
		a.Frequency = *req.Frequency
	}
	if req.NextExecution != nil {
		if req.NextExecution.IsZero() {
			return nil, fmt.Errorf("next execution time cannot be zero")
		}
		a.NextExecution = *req.NextExecution
	}
	if req.Active != nil {
		a.Active = *req.Active
	}
	if req.PropertyID != nil {
		a.PropertyID = req.PropertyID
	}
	if req.ExecutionTime != nil {
		a.ExecutionTime = *req.ExecutionTime
	}
	if req.EmailTemplateID != nil {
		a.EmailTemplateID = req.EmailTemplateID
	}
	if req.DocumentTemplateID != nil {
		a.DocumentTemplateID = req.DocumentTemplateID
	}

	if err := f.repo.Update(f.ctx, a); err != nil {
		return nil, err
	}

	f.notify()
	return a, nil
}

// Delete removes an automation.
func (f *Facade) Delete(id string) error {
	if _, err := f.repo.GetByID(f.ctx, id); err != nil {
		return err
	}
	if err := f.repo.Delete(f.ctx, id); err != nil {
		return err
	}
	f.notify()
	return nil
}

// ToggleActive flips the active flag.
func (f *Facade) ToggleActive(id string) (*models.Automation, error) {
	a, err := f.repo.GetByID(f.ctx, id)
	if err != nil {
		return nil, err
	}

	a.Active = !a.Active
	if err := f.repo.Update(f.ctx, a); err != nil {
		return nil, err
	}

	f.notify()
	return a, nil
}

// ExecuteNow triggers a manual execution through the engine.
func (f *Facade) ExecuteNow(id string) (ExecutionResult, error) {
	result, err := f.engine.ExecuteNow(id)
	if err != nil {
		return result, err
	}
	f.notify()
	return result, nil
}

// ExecuteAllDue runs a scan immediately, outside the scheduler's cadence.
func (f *Facade) ExecuteAllDue(now time.Time) (int, error) {
	attempted, err := f.engine.ExecuteAllDue(now)
	if err != nil {
		return 0, err
	}
	if attempted > 0 {
		f.notify()
	}
	return attempted, nil
}

// StartScheduler starts the background loop.
func (f *Facade) StartScheduler() error {
	return f.loop.Start()
}

// StopScheduler stops the background loop.
func (f *Facade) StopScheduler() {
	f.loop.Stop()
}

// IsSchedulerActive reports whether the background loop is running.
func (f *Facade) IsSchedulerActive() bool {
	return f.loop.IsActive()
}
