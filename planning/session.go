/*
session.go - Planning session (the controller)

PURPOSE:
  A Session exclusively owns the Grid, the LockedCells registry, the debt
  snapshot and the chosen strategy. Every mutation funnels through it, and
  every triggering event runs the pipeline in order:

    ApplyEdit -> RecomputeNetSavings -> Simulate -> MergeIntoGrid

CONCURRENCY MODEL:
  - State is guarded by mu. Grids are immutable snapshots, so the pipeline
    can run on a snapshot without holding mu.
  - Every input change (edit, strategy, debts, reload) bumps gen.
  - Only one simulation runs at a time. A caller arriving while one is in
    flight waits for it. When it finishes, a result whose gen is no longer
    current is discarded and the pipeline reruns on the latest grid
    (last-writer-wins, never merge).
  - Remote fetches are deduplicated per trigger class with singleflight:
    a second ListBudgets / ListDebts never starts while one is in flight.
  - Budgets and debts are fetched concurrently on Load (errgroup).

PERSISTENCE:
  After an edit, every written Current/Future month is saved as a complete
  column (every editable row of that month), so a rebuild from the store
  reproduces the grid. Historical months are never saved.

USAGE:
  s := planning.NewSession(cfg, budgets, debts, planning.WithClock(clock))
  snap, err := s.Load(ctx)
  snap, err = s.EditCell(ctx, snap.Grid.CurrentMonth().Index, "Housing", "1500")
*/
package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	fetchBudgets = "budgets"
	fetchDebts   = "debts"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

type SessionConfig struct {
	HistoricalMonths  int
	FutureMonths      int
	Strategy          Strategy
	ExpenseCategories []string // nil seeds DefaultExpenseCategories
	PersistEdits      bool
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		HistoricalMonths: 3,
		FutureMonths:     12,
		Strategy:         Snowball,
		PersistEdits:     true,
	}
}

func (c SessionConfig) Validate() error {
	if c.HistoricalMonths < 0 || c.FutureMonths < 0 {
		return fmt.Errorf("%w: month counts must be non-negative", ErrInvalidConfiguration)
	}
	return c.Strategy.Validate()
}

type SessionOption func(*Session)

func WithClock(c Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

func WithObserver(o Observer) SessionOption {
	return func(s *Session) { s.observer = o }
}

// =============================================================================
// SESSION
// =============================================================================

type Session struct {
	cfg      SessionConfig
	budgets  BudgetStore
	debts    DebtStore
	clock    Clock
	logger   *slog.Logger
	observer Observer

	fetches singleflight.Group

	mu         sync.Mutex
	grid       *Grid
	locks      *LockedCells
	debtSnap   []Debt
	strategy   Strategy
	plan       *PayoffPlan
	gen        uint64 // bumped on every input change
	published  uint64 // gen the current grid was merged for
	simulating bool
	done       chan struct{} // closed when the in-flight simulation ends
}

// Snapshot is a consistent, read-only view of the session.
type Snapshot struct {
	Grid       *Grid
	Plan       *PayoffPlan
	Strategy   Strategy
	Locks      map[int][]string
	Debts      []Debt
	Generation uint64

	// Stale is true when inputs changed after the grid was last merged.
	Stale bool
}

func NewSession(cfg SessionConfig, budgets BudgetStore, debts DebtStore, opts ...SessionOption) *Session {
	s := &Session{
		cfg:      cfg,
		budgets:  budgets,
		debts:    debts,
		clock:    SystemClock{},
		logger:   slog.Default(),
		observer: NopObserver{},
		locks:    NewLockedCells(),
		strategy: cfg.Strategy,
	}
	if s.strategy == "" {
		s.strategy = Snowball
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches budgets and debts, rebuilds the grid over a fresh timeline
// and runs the simulation. Locks survive and are re-keyed by calendar
// month when the timeline moved.
func (s *Session) Load(ctx context.Context) (*Snapshot, error) {
	var (
		budgets []BudgetRecord
		debts   []Debt
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		budgets, err = s.listBudgets(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		debts, err = s.listDebts(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	months, err := GenerateMonths(s.clock.Now(), s.cfg.HistoricalMonths, s.cfg.FutureMonths)
	if err != nil {
		return nil, err
	}
	var opts []GridOption
	if s.cfg.ExpenseCategories != nil {
		opts = append(opts, WithExpenseCategories(s.cfg.ExpenseCategories...))
	}
	grid, err := BuildGrid(months, budgets, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.grid != nil {
		s.locks = s.locks.Remap(s.grid.months, months)
	}
	s.grid = grid
	s.debtSnap = debts
	s.gen++
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Session loaded",
		"months", len(months),
		"current", grid.CurrentMonth().Label,
		"budgets", len(budgets),
		"debts", len(debts))

	return s.resimulate(ctx)
}

// Rollover reloads the session when the clock has entered a calendar month
// different from the grid's Current month. It reports whether it reloaded.
func (s *Session) Rollover(ctx context.Context) (bool, error) {
	now := startOfMonth(s.clock.Now())

	s.mu.Lock()
	grid := s.grid
	s.mu.Unlock()

	if grid != nil {
		cur := grid.CurrentMonth()
		if cur.CalendarYear == now.Year() && cur.CalendarMonth == now.Month() {
			return false, nil
		}
	}
	if _, err := s.Load(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// EditCell parses raw and applies it to (monthIndex, category). Validation
// failures leave the session untouched. A persistence failure is returned
// together with the updated snapshot: the edit is kept in memory.
func (s *Session) EditCell(ctx context.Context, monthIndex int, category, raw string) (*Snapshot, error) {
	value, err := ParseValue(raw)
	if err != nil {
		err = &CellError{MonthIndex: monthIndex, Category: category, Err: err}
		s.observer.EditRejected(err)
		return nil, err
	}

	s.mu.Lock()
	if s.grid == nil {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	res, err := ApplyEdit(s.grid, s.locks, monthIndex, category, value)
	if err != nil {
		s.mu.Unlock()
		s.observer.EditRejected(err)
		return nil, err
	}
	month, _ := res.Grid.Month(monthIndex)
	s.grid = res.Grid
	s.gen++
	s.mu.Unlock()

	s.observer.EditApplied(month.Kind)
	s.logger.DebugContext(ctx, "Cell edited",
		"month", month.Label,
		"kind", month.Kind.String(),
		"category", res.Category,
		"value", value.String(),
		"written", len(res.Written),
		"locked", res.Locked,
		"created", res.Created)

	var persistErr error
	if s.cfg.PersistEdits && s.budgets != nil {
		persistErr = s.persist(ctx, res)
	}

	snap, err := s.resimulate(ctx)
	if err != nil {
		return nil, err
	}
	return snap, persistErr
}

// SetStrategy switches the payoff strategy and re-simulates.
func (s *Session) SetStrategy(ctx context.Context, raw string) (*Snapshot, error) {
	st, err := ParseStrategy(raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.grid == nil {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	s.strategy = st
	s.gen++
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Strategy changed", "strategy", string(st))
	return s.resimulate(ctx)
}

// CreateDebt stores a new debt and re-simulates with the refreshed list.
func (s *Session) CreateDebt(ctx context.Context, in DebtInput) (Debt, *Snapshot, error) {
	if err := in.Validate(); err != nil {
		return Debt{}, nil, err
	}
	d, err := s.debts.CreateDebt(ctx, in)
	if err != nil {
		return Debt{}, nil, wrapStoreErr("create debt", err)
	}
	snap, err := s.refreshAfterWrite(ctx)
	return d, snap, err
}

// UpdateDebt rewrites a stored debt and re-simulates.
func (s *Session) UpdateDebt(ctx context.Context, id string, in DebtInput) (Debt, *Snapshot, error) {
	if err := in.Validate(); err != nil {
		return Debt{}, nil, err
	}
	d, err := s.debts.UpdateDebt(ctx, id, in)
	if err != nil {
		return Debt{}, nil, wrapStoreErr("update debt", err)
	}
	snap, err := s.refreshAfterWrite(ctx)
	return d, snap, err
}

// DeleteDebt removes a stored debt and re-simulates.
func (s *Session) DeleteDebt(ctx context.Context, id string) (*Snapshot, error) {
	if err := s.debts.DeleteDebt(ctx, id); err != nil {
		return nil, wrapStoreErr("delete debt", err)
	}
	return s.refreshAfterWrite(ctx)
}

// RefreshDebts re-reads the debt store and re-simulates.
func (s *Session) RefreshDebts(ctx context.Context) (*Snapshot, error) {
	debts, err := s.listDebts(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.grid == nil {
		s.debtSnap = debts
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	s.debtSnap = debts
	s.gen++
	s.mu.Unlock()

	return s.resimulate(ctx)
}

// refreshAfterWrite makes sure the refresh does not join a fetch that
// started before the write.
func (s *Session) refreshAfterWrite(ctx context.Context) (*Snapshot, error) {
	s.fetches.Forget(fetchDebts)
	snap, err := s.RefreshDebts(ctx)
	if errors.Is(err, ErrNotLoaded) {
		return nil, nil
	}
	return snap, err
}

// ClearLocks forgets every locked cell. Grid values are kept.
func (s *Session) ClearLocks() {
	s.mu.Lock()
	s.locks = NewLockedCells()
	s.mu.Unlock()
}

// Compare simulates both strategies on the current inputs.
func (s *Session) Compare(ctx context.Context) (*StrategyComparison, error) {
	s.mu.Lock()
	grid, debts := s.grid, s.debtSnap
	s.mu.Unlock()
	if grid == nil {
		return nil, ErrNotLoaded
	}
	return CompareStrategies(debts, grid.NetSavingsByMonth(), grid.months)
}

// Snapshot returns the latest state without waiting for a pending
// simulation.
func (s *Session) Snapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grid == nil {
		return nil, ErrNotLoaded
	}
	return s.snapshotLocked(), nil
}

func (s *Session) snapshotLocked() *Snapshot {
	return &Snapshot{
		Grid:       s.grid,
		Plan:       s.plan,
		Strategy:   s.strategy,
		Locks:      s.locks.All(),
		Debts:      append([]Debt(nil), s.debtSnap...),
		Generation: s.gen,
		Stale:      s.published < s.gen,
	}
}

// =============================================================================
// PIPELINE
// =============================================================================

// resimulate returns once a grid merged for at least the generation current
// at call time has been published.
func (s *Session) resimulate(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	target := s.gen
	for s.published < target {
		if s.simulating {
			done := s.done
			s.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			s.mu.Lock()
			continue
		}
		if err := s.runLocked(ctx); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap, nil
}

// runLocked runs one simulation on the latest inputs. It is entered and
// left with mu held, and releases it while simulating.
func (s *Session) runLocked(ctx context.Context) error {
	s.simulating = true
	done := make(chan struct{})
	s.done = done
	gen, grid, debts, strategy := s.gen, s.grid, s.debtSnap, s.strategy
	s.mu.Unlock()

	start := time.Now()
	plan, err := Simulate(debts, grid.NetSavingsByMonth(), strategy, grid.months)
	var merged *Grid
	if err == nil {
		merged, err = MergeIntoGrid(grid, plan, strategy)
	}
	elapsed := time.Since(start)

	s.mu.Lock()
	s.simulating = false
	close(done)
	if err != nil {
		return err
	}
	if gen != s.gen {
		s.observer.SimulationDiscarded()
		s.logger.DebugContext(ctx, "Discarded stale simulation", "generation", gen, "latest", s.gen)
		return nil
	}
	s.grid = merged
	s.plan = plan
	s.published = gen
	s.observer.SimulationRun(elapsed, plan)
	return nil
}

// =============================================================================
// COLLABORATORS
// =============================================================================

func (s *Session) listBudgets(ctx context.Context) ([]BudgetRecord, error) {
	if s.budgets == nil {
		return nil, nil
	}
	v, err, _ := s.fetches.Do(fetchBudgets, func() (any, error) {
		return s.budgets.ListBudgets(ctx)
	})
	if err != nil {
		return nil, wrapStoreErr("list budgets", err)
	}
	return v.([]BudgetRecord), nil
}

func (s *Session) listDebts(ctx context.Context) ([]Debt, error) {
	if s.debts == nil {
		return nil, nil
	}
	v, err, _ := s.fetches.Do(fetchDebts, func() (any, error) {
		return s.debts.ListDebts(ctx)
	})
	if err != nil {
		return nil, wrapStoreErr("list debts", err)
	}
	debts := v.([]Debt)
	for _, d := range debts {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return append([]Debt(nil), debts...), nil
}

// persist saves every written Current/Future month as a complete column.
// A month stops at its first failed save.
func (s *Session) persist(ctx context.Context, res *EditResult) error {
	var errs []error
	for _, idx := range res.Written {
		m, ok := res.Grid.Month(idx)
		if !ok || m.Kind == Historical {
			continue
		}
		if err := s.persistMonth(ctx, res.Grid, m); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.logger.WarnContext(ctx, "Failed to persist edit", "category", res.Category, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *Session) persistMonth(ctx context.Context, g *Grid, m Month) error {
	for _, r := range g.rows {
		if !r.Kind.Editable() {
			continue
		}
		entry := BudgetEntry{Category: r.Category, Kind: r.Kind, Amount: r.Value(m.Index)}
		if err := s.budgets.SaveMonth(ctx, m.CalendarYear, int(m.CalendarMonth), entry); err != nil {
			return fmt.Errorf("%s %s: %w", m.Label, r.Category, err)
		}
	}
	return nil
}

func wrapStoreErr(op string, err error) error {
	if errors.Is(err, ErrDebtNotFound) || IsClientError(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
