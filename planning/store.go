/*
store.go - Contracts with the remote budget and debt stores

PURPOSE:
  The engine never talks to the network. These are the narrow contracts
  the Session calls; implementations live outside this package.

KEY INTERFACES:
  BudgetStore: read the budget snapshot, persist single cells
  DebtStore:   CRUD over debts; the simulator only sees ListDebts snapshots
  Observer:    metric hooks, NopObserver by default

FAILURE CONTRACT:
  Implementations must report failure explicitly. Returning partial data
  with a nil error is a contract violation: the Session would rebuild the
  grid from it.

IMPLEMENTATIONS:
  - planning/store/memory.go: in-memory, for tests and the demo server
  - store/sqlite/sqlite.go: SQLite
*/
package planning

import (
	"context"
	"time"
)

// =============================================================================
// STORES
// =============================================================================

type BudgetStore interface {
	// ListBudgets returns every stored monthly budget.
	ListBudgets(ctx context.Context) ([]BudgetRecord, error)

	// SaveMonth upserts one category amount of the (year, month) budget.
	SaveMonth(ctx context.Context, year, month int, entry BudgetEntry) error
}

type DebtStore interface {
	ListDebts(ctx context.Context) ([]Debt, error)
	CreateDebt(ctx context.Context, in DebtInput) (Debt, error)

	// UpdateDebt returns ErrDebtNotFound for an unknown id.
	UpdateDebt(ctx context.Context, id string, in DebtInput) (Debt, error)

	// DeleteDebt returns ErrDebtNotFound for an unknown id.
	DeleteDebt(ctx context.Context, id string) error
}

// =============================================================================
// OBSERVER - metrics hooks
// =============================================================================

type Observer interface {
	EditApplied(kind MonthKind)
	EditRejected(err error)
	SimulationRun(d time.Duration, plan *PayoffPlan)
	SimulationDiscarded()
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) EditApplied(MonthKind) {}
func (NopObserver) EditRejected(error) {}
func (NopObserver) SimulationRun(time.Duration, *PayoffPlan) {}
func (NopObserver) SimulationDiscarded() {}
