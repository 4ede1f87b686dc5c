/*
scheduler.go - Automated month rollover scheduler

PURPOSE:
  Periodically checks whether the clock has entered a new calendar month
  and, if so, rebuilds the session's timeline so the Current month moves
  forward. Locks follow their calendar month.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Delegates the month comparison to Session.Rollover
  - Records the last run for the status endpoint

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRolloverScheduler(session, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ReloadPlan endpoint (manual rebuild)
  - planning/session.go: Rollover
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Roller is the part of the session the scheduler drives.
type Roller interface {
	Rollover(ctx context.Context) (bool, error)
}

// RolloverRun is the outcome of one check.
type RolloverRun struct {
	At       time.Time
	Reloaded bool
	Err      error
}

// RolloverScheduler rebuilds the timeline when the month changes.
type RolloverScheduler struct {
	Session       Roller
	CheckInterval time.Duration
	Enabled       bool
	Logger        *slog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	runsMu  sync.Mutex
	lastRun *RolloverRun
}

// NewRolloverScheduler creates a new scheduler.
func NewRolloverScheduler(session Roller, logger *slog.Logger) *RolloverScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RolloverScheduler{
		Session:       session,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Logger:        logger,
	}
}

// Start begins the scheduler. Calling Start on a running scheduler is a no-op.
func (rs *RolloverScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("Scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.Logger.Info("Scheduler started", "interval", rs.CheckInterval.String())
}

// Stop stops the scheduler and waits for an in-flight check.
func (rs *RolloverScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil
	rs.Logger.Info("Scheduler stopped")
}

func (rs *RolloverScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	for {
		select {
		case <-ticker.C:
			rs.CheckNow(ctx)
		case <-stop:
			return
		}
	}
}

// CheckNow runs one rollover check synchronously.
func (rs *RolloverScheduler) CheckNow(ctx context.Context) RolloverRun {
	reloaded, err := rs.Session.Rollover(ctx)
	run := RolloverRun{At: time.Now().UTC(), Reloaded: reloaded, Err: err}

	switch {
	case err != nil:
		rs.Logger.ErrorContext(ctx, "Rollover check failed", "error", err)
	case reloaded:
		rs.Logger.InfoContext(ctx, "Timeline rolled over to a new month")
	default:
		rs.Logger.DebugContext(ctx, "Rollover check: same month")
	}

	rs.runsMu.Lock()
	rs.lastRun = &run
	rs.runsMu.Unlock()
	return run
}

// LastRun returns the most recent check, if any.
func (rs *RolloverScheduler) LastRun() (RolloverRun, bool) {
	rs.runsMu.Lock()
	defer rs.runsMu.Unlock()
	if rs.lastRun == nil {
		return RolloverRun{}, false
	}
	return *rs.lastRun, true
}
