package scheduler

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultInterval is the period between two due scans.
const DefaultInterval = time.Minute

// Runner executes all due automations for a scan and reports how many were
// attempted.
type Runner interface {
	ExecuteAllDue(now time.Time) (int, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(now time.Time) (int, error)

// ExecuteAllDue calls the wrapped function.
func (f RunnerFunc) ExecuteAllDue(now time.Time) (int, error) {
	return f(now)
}

// Loop is the background trigger that periodically scans for due
// automations. Start is idempotent, Stop drains the run in flight, and a
// tick that fires while a scan is still running is dropped rather than
// queued. One Loop instance is constructed at the composition root.
type Loop struct {
	runner   Runner
	interval time.Duration

	mu     sync.Mutex
	cron   *cron.Cron
	active bool

	scanning atomic.Bool
}

// NewLoop creates a scheduler loop around the given runner
func NewLoop(runner Runner, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		runner:   runner,
		interval: interval,
	}
}

// Start begins periodic scanning. Calling it while active is a no-op.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", l.interval), l.scan); err != nil {
		return fmt.Errorf("failed to schedule scan: %w", err)
	}

	c.Start()
	l.cron = c
	l.active = true
	log.Printf("Scheduler started (scan interval: %s)", l.interval)
	return nil
}

// Stop cancels future ticks and waits for any scan in flight to finish.
// In-flight executor calls are not forcibly cancelled.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.active {
		l.mu.Unlock()
		return
	}
	c := l.cron
	l.cron = nil
	l.active = false
	l.mu.Unlock()

	ctx := c.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

// IsActive reports whether the loop is running.
func (l *Loop) IsActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// scan runs one due-check-and-execute cycle. If the previous cycle is still
// running, this tick does no work.
func (l *Loop) scan() {
	if !l.scanning.CompareAndSwap(false, true) {
		log.Println("Previous scan still running, skipping tick")
		return
	}
	defer l.scanning.Store(false)

	attempted, err := l.runner.ExecuteAllDue(time.Now())
	if err != nil {
		log.Printf("WARNING: Scan failed: %v", err)
		return
	}
	if attempted > 0 {
		log.Printf("Scan attempted %d automation(s)", attempted)
	}
}
