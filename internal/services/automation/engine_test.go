package automation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk-desktop/internal/models"
)

// fakeStore is an in-memory Repository and RunRecorder with injectable
// failures and call counting.
type fakeStore struct {
	mu          sync.Mutex
	automations map[string]models.Automation
	order       []string
	runs        []models.AutomationRun
	listErr     error
	updateErr   error
	listCalls   int
	updateCalls int
}

func newFakeStore(automations ...models.Automation) *fakeStore {
	s := &fakeStore{automations: make(map[string]models.Automation)}
	for _, a := range automations {
		s.automations[a.ID] = a
		s.order = append(s.order, a.ID)
	}
	return s
}

func (s *fakeStore) List(ctx context.Context) ([]models.Automation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Automation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.automations[id])
	}
	return out, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.automations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := a
	return &out, nil
}

func (s *fakeStore) Create(ctx context.Context, a *models.Automation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String() // mirrors the model's BeforeCreate hook
	}
	s.automations[a.ID] = *a
	s.order = append(s.order, a.ID)
	return nil
}

func (s *fakeStore) Update(ctx context.Context, a *models.Automation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}
	s.automations[a.ID] = *a
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.automations, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeStore) RecordRun(ctx context.Context, run *models.AutomationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

func (s *fakeStore) get(id string) models.Automation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.automations[id]
}

// fakeExecutor counts invocations, fails for selected ids and can block
// until released.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]error
	entered chan struct{}
	release chan struct{}
}

func (e *fakeExecutor) Execute(ctx context.Context, a *models.Automation) error {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.entered != nil {
		select {
		case e.entered <- struct{}{}:
		default:
		}
	}
	if e.release != nil {
		<-e.release
	}
	if err, ok := e.failFor[a.ID]; ok {
		return err
	}
	return nil
}

func (e *fakeExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestEngine(store *fakeStore, exec *fakeExecutor) *Engine {
	return NewEngine(context.Background(), store, exec, store, time.Minute)
}

func testAutomation(id string, active bool, next time.Time) models.Automation {
	return models.Automation{
		ID:            id,
		Name:          "Automation " + id,
		Type:          models.AutomationPaymentReminder,
		Frequency:     models.FrequencyMonthly,
		NextExecution: next,
		Active:        active,
	}
}

func TestFindDue(t *testing.T) {
	now := time.Date(2024, time.November, 2, 10, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	t.Run("Should select active automations with past or current next execution", func(t *testing.T) {
		automations := []models.Automation{
			testAutomation("past", true, past),
			testAutomation("exactly-now", true, now),
			testAutomation("future", true, future),
			testAutomation("inactive-past", false, past),
			testAutomation("inactive-future", false, future),
		}

		due := FindDue(automations, now)

		require.Len(t, due, 2)
		assert.Equal(t, "past", due[0].ID)
		assert.Equal(t, "exactly-now", due[1].ID)
	})

	t.Run("Should never select inactive automations", func(t *testing.T) {
		automations := []models.Automation{
			testAutomation("a", false, past),
			testAutomation("b", false, now),
		}

		assert.Empty(t, FindDue(automations, now))
	})

	t.Run("Should preserve input order", func(t *testing.T) {
		automations := []models.Automation{
			testAutomation("c", true, past),
			testAutomation("a", true, past),
			testAutomation("b", true, past),
		}

		due := FindDue(automations, now)
		require.Len(t, due, 3)
		assert.Equal(t, []string{"c", "a", "b"}, []string{due[0].ID, due[1].ID, due[2].ID})
	})

	t.Run("Should return empty slice for no input", func(t *testing.T) {
		assert.Empty(t, FindDue(nil, now))
	})
}

func TestExecuteOne(t *testing.T) {
	now := time.Date(2024, time.November, 2, 10, 0, 0, 0, time.UTC)

	t.Run("Success should advance schedule strictly past now", func(t *testing.T) {
		a := testAutomation("a1", true, now.Add(-time.Hour))
		store := newFakeStore(a)
		exec := &fakeExecutor{}
		engine := newTestEngine(store, exec)

		result := engine.ExecuteOne(&a, now)

		assert.Equal(t, StatusSuccess, result.Status)
		assert.Equal(t, 1, exec.callCount())

		updated := store.get("a1")
		require.NotNil(t, updated.LastExecution)
		assert.Equal(t, now, *updated.LastExecution)
		assert.True(t, updated.NextExecution.After(now), "next execution must be strictly after now")
		assert.Equal(t, time.Date(2024, time.December, 2, 10, 0, 0, 0, time.UTC), updated.NextExecution)

		require.Len(t, store.runs, 1)
		assert.Equal(t, models.RunStatusSuccess, store.runs[0].Status)
	})

	t.Run("Executor failure should leave the schedule untouched", func(t *testing.T) {
		next := now.Add(-time.Hour)
		a := testAutomation("a1", true, next)
		store := newFakeStore(a)
		exec := &fakeExecutor{failFor: map[string]error{"a1": errors.New("smtp down")}}
		engine := newTestEngine(store, exec)

		result := engine.ExecuteOne(&a, now)

		assert.Equal(t, StatusFailed, result.Status)
		assert.Contains(t, result.Reason, "smtp down")
		assert.Zero(t, store.updateCalls, "a failed execution must not persist anything")

		unchanged := store.get("a1")
		assert.Equal(t, next, unchanged.NextExecution)
		assert.Nil(t, unchanged.LastExecution)

		// Still due on the next scan with the same now.
		due := FindDue([]models.Automation{unchanged}, now)
		assert.Len(t, due, 1)

		require.Len(t, store.runs, 1)
		assert.Equal(t, models.RunStatusFailed, store.runs[0].Status)
		assert.Contains(t, store.runs[0].Error, "smtp down")
	})

	t.Run("Vanished automation should be skipped, not an error", func(t *testing.T) {
		a := testAutomation("ghost", true, now.Add(-time.Hour))
		store := newFakeStore() // not in the store
		exec := &fakeExecutor{}
		engine := newTestEngine(store, exec)

		result := engine.ExecuteOne(&a, now)

		assert.Equal(t, StatusSkipped, result.Status)
		assert.Equal(t, ReasonVanished, result.Reason)
		assert.Zero(t, exec.callCount())
		assert.Empty(t, store.runs)
	})

	t.Run("Persist failure after a successful side effect should report failure", func(t *testing.T) {
		a := testAutomation("a1", true, now.Add(-time.Hour))
		store := newFakeStore(a)
		store.updateErr = errors.New("connection reset")
		exec := &fakeExecutor{}
		engine := newTestEngine(store, exec)

		result := engine.ExecuteOne(&a, now)

		assert.Equal(t, StatusFailed, result.Status)
		assert.Contains(t, result.Reason, "failed to persist schedule")
		// Schedule in the store is unchanged, so the automation stays due.
		assert.Equal(t, now.Add(-time.Hour), store.get("a1").NextExecution)
	})
}

func TestReentrancyGuard(t *testing.T) {
	now := time.Date(2024, time.November, 2, 10, 0, 0, 0, time.UTC)

	t.Run("Concurrent executions of the same automation should run once", func(t *testing.T) {
		a := testAutomation("a1", true, now.Add(-time.Hour))
		store := newFakeStore(a)
		exec := &fakeExecutor{
			entered: make(chan struct{}, 1),
			release: make(chan struct{}),
		}
		engine := newTestEngine(store, exec)

		done := make(chan ExecutionResult, 1)
		go func() {
			done <- engine.ExecuteOne(&a, now)
		}()

		select {
		case <-exec.entered:
		case <-time.After(2 * time.Second):
			t.Fatal("first execution never reached the executor")
		}

		// Second call while the first is in flight: skipped, executor
		// not invoked again.
		second := engine.ExecuteOne(&a, now)
		assert.Equal(t, StatusSkipped, second.Status)
		assert.Equal(t, ReasonInFlight, second.Reason)
		assert.Equal(t, 1, exec.callCount())

		close(exec.release)
		select {
		case first := <-done:
			assert.Equal(t, StatusSuccess, first.Status)
		case <-time.After(2 * time.Second):
			t.Fatal("first execution never finished")
		}

		// Guard released afterwards.
		third := engine.ExecuteOne(&a, now)
		assert.Equal(t, StatusSuccess, third.Status)
		assert.Equal(t, 2, exec.callCount())
	})
}

func TestExecuteAllDue(t *testing.T) {
	now := time.Date(2024, time.November, 2, 10, 0, 0, 0, time.UTC)

	t.Run("One failure should not block the other automations", func(t *testing.T) {
		a1 := testAutomation("a1", true, now.Add(-time.Hour))
		a2 := testAutomation("a2", true, now.Add(-time.Hour))
		a3 := testAutomation("a3", true, now.Add(-time.Hour))
		store := newFakeStore(a1, a2, a3)
		exec := &fakeExecutor{failFor: map[string]error{"a2": errors.New("template missing")}}
		engine := newTestEngine(store, exec)

		attempted, err := engine.ExecuteAllDue(now)

		require.NoError(t, err)
		assert.Equal(t, 3, attempted)
		assert.Equal(t, 3, exec.callCount())

		assert.True(t, store.get("a1").NextExecution.After(now))
		assert.Equal(t, now.Add(-time.Hour), store.get("a2").NextExecution)
		assert.True(t, store.get("a3").NextExecution.After(now))
	})

	t.Run("Inactive and future automations should not be attempted", func(t *testing.T) {
		store := newFakeStore(
			testAutomation("due", true, now.Add(-time.Hour)),
			testAutomation("future", true, now.Add(time.Hour)),
			testAutomation("inactive", false, now.Add(-time.Hour)),
		)
		exec := &fakeExecutor{}
		engine := newTestEngine(store, exec)

		attempted, err := engine.ExecuteAllDue(now)

		require.NoError(t, err)
		assert.Equal(t, 1, attempted)
		assert.Equal(t, 1, exec.callCount())
	})

	t.Run("Snapshot read failure should abort the scan", func(t *testing.T) {
		store := newFakeStore()
		store.listErr = errors.New("database gone")
		engine := newTestEngine(store, &fakeExecutor{})

		attempted, err := engine.ExecuteAllDue(now)

		require.Error(t, err)
		assert.Zero(t, attempted)
	})

	t.Run("Automation deleted mid-scan should be treated as handled", func(t *testing.T) {
		a := testAutomation("deleted", true, now.Add(-time.Hour))
		store := newFakeStore(a)
		exec := &fakeExecutor{}
		engine := newTestEngine(store, exec)

		// Simulate deletion between selection and execution by removing
		// it from the store after the snapshot would have been taken.
		require.NoError(t, store.Delete(context.Background(), "deleted"))

		result := engine.ExecuteOne(&a, now)
		assert.Equal(t, StatusSkipped, result.Status)
		assert.Zero(t, exec.callCount())
	})
}

func TestExecuteNow(t *testing.T) {
	now := time.Now()

	t.Run("Manual run should bypass the due check and advance the schedule", func(t *testing.T) {
		future := now.Add(30 * 24 * time.Hour)
		a := testAutomation("a1", true, future)
		store := newFakeStore(a)
		exec := &fakeExecutor{}
		engine := newTestEngine(store, exec)

		result, err := engine.ExecuteNow("a1")

		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, result.Status)
		assert.Equal(t, 1, exec.callCount())

		// A manual run resets the schedule baseline.
		updated := store.get("a1")
		require.NotNil(t, updated.LastExecution)
		assert.True(t, updated.NextExecution.After(now))
		assert.NotEqual(t, future, updated.NextExecution)
	})

	t.Run("Unknown id should propagate not-found", func(t *testing.T) {
		engine := newTestEngine(newFakeStore(), &fakeExecutor{})

		_, err := engine.ExecuteNow("missing")

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Executor failure should surface to the caller", func(t *testing.T) {
		a := testAutomation("a1", true, now)
		store := newFakeStore(a)
		exec := &fakeExecutor{failFor: map[string]error{"a1": errors.New("provider 503")}}
		engine := newTestEngine(store, exec)

		result, err := engine.ExecuteNow("a1")

		require.Error(t, err)
		assert.Equal(t, StatusFailed, result.Status)
		assert.Contains(t, err.Error(), "provider 503")
	})
}

func TestEndToEndMonthlyScenario(t *testing.T) {
	// Monthly automation due on 2024-11-01, scanned on 2024-11-02: the
	// schedule is recomputed from the scan time, so the next run lands on
	// 2024-12-02.
	created := time.Date(2024, time.November, 1, 8, 0, 0, 0, time.UTC)
	scanTime := time.Date(2024, time.November, 2, 8, 0, 0, 0, time.UTC)

	a := testAutomation("rent-receipt", true, created)
	a.Frequency = models.FrequencyMonthly
	store := newFakeStore(a)
	exec := &fakeExecutor{}
	engine := newTestEngine(store, exec)

	attempted, err := engine.ExecuteAllDue(scanTime)
	require.NoError(t, err)
	assert.Equal(t, 1, attempted)

	updated := store.get("rent-receipt")
	require.NotNil(t, updated.LastExecution)
	assert.Equal(t, scanTime, *updated.LastExecution)
	assert.Equal(t, time.Date(2024, time.December, 2, 8, 0, 0, 0, time.UTC), updated.NextExecution)

	// Immediately after, the automation is no longer due.
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, FindDue(list, scanTime))
}
