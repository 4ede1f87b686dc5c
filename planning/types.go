/*
Package planning provides the budget projection and debt payoff engine.

PURPOSE:
  This package owns the only stateful, invariant-heavy part of the budget
  planner: a timeline of months, a grid of category rows by month columns,
  the rules for propagating a single edited cell through time, and a
  month-by-month amortization simulation that feeds debt rows back into
  the same grid.

KEY CONCEPTS IN THIS FILE (types.go):
  - Value: a money amount (decimal.Decimal, never float64)
  - RowKind: what a grid row represents (income, expense, savings, ...)
  - Debt: a read-only snapshot of a remote debt record
  - BudgetRecord: a remote budget for one calendar month

PIPELINE:
  GenerateMonths -> BuildGrid -> RecomputeNetSavings -> Simulate -> MergeIntoGrid
  User edits enter through ApplyEdit, which re-runs RecomputeNetSavings.
  Session ties the stages together and owns the mutable state.

DESIGN PRINCIPLES:
  1. Snapshots: exported operations return a new *Grid, inputs are untouched
  2. Precision: every amount is a decimal.Decimal
  3. Month index is the only join key between grid and simulator
  4. Category names are canonicalized in exactly one place (category.go)

SEE ALSO:
  - month.go: timeline generation
  - grid.go: grid model and build rules
  - propagation.go: edit propagation and locking
  - amortization.go: snowball / avalanche simulator
  - merge.go: projecting a payoff plan into grid rows
  - session.go: the controller that owns Grid + LockedCells
*/
package planning

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VALUE - Money amounts
// =============================================================================

// Value is a plain decimal money amount. There is no currency: the planner
// is single-currency by construction.
type Value = decimal.Decimal

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// NewValue builds a Value from a float. Intended for tests and presets;
// user input goes through ParseValue.
func NewValue(f float64) Value { return decimal.NewFromFloat(f) }

// NewValueFromInt builds a Value from an integer amount.
func NewValueFromInt(i int64) Value { return decimal.NewFromInt(i) }

func maxValue(a, b Value) Value {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func minValue(a, b Value) Value {
	if a.LessThan(b) {
		return a
	}
	return b
}

// =============================================================================
// ROW KINDS
// =============================================================================

// RowKind identifies what a grid row aggregates into.
type RowKind string

const (
	RowIncome           RowKind = "income"
	RowAdditionalIncome RowKind = "additional_income"
	RowExpense          RowKind = "expense"
	RowSavings          RowKind = "savings"
	RowCalculated       RowKind = "calculated"
	RowDebt             RowKind = "debt"
)

// Editable reports whether cells of this kind can be set by the user.
func (k RowKind) Editable() bool {
	switch k {
	case RowIncome, RowAdditionalIncome, RowExpense, RowSavings:
		return true
	default:
		return false
	}
}

// Valid reports whether k is a known row kind.
func (k RowKind) Valid() bool {
	switch k {
	case RowIncome, RowAdditionalIncome, RowExpense, RowSavings, RowCalculated, RowDebt:
		return true
	default:
		return false
	}
}

// =============================================================================
// DEBT - Snapshot of a remote debt record
// =============================================================================

// Debt is owned by the remote debt store. The simulator reads a copy and
// never writes back.
type Debt struct {
	ID                string
	Name              string
	Balance           Value
	AnnualRatePercent Value
	Kind              string
}

// Validate checks the debt's numeric invariants.
func (d Debt) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDebt)
	}
	if d.Balance.IsNegative() {
		return fmt.Errorf("%w: %s has negative balance %s", ErrInvalidDebt, d.Name, d.Balance)
	}
	if d.AnnualRatePercent.IsNegative() {
		return fmt.Errorf("%w: %s has negative rate %s", ErrInvalidDebt, d.Name, d.AnnualRatePercent)
	}
	return nil
}

// DebtInput is the writable part of a debt, used by create and update.
type DebtInput struct {
	Name              string
	Balance           Value
	AnnualRatePercent Value
	Kind              string
}

// Validate checks the input the same way Debt.Validate does.
func (in DebtInput) Validate() error {
	return Debt{Name: in.Name, Balance: in.Balance, AnnualRatePercent: in.AnnualRatePercent}.Validate()
}

// TotalBalance sums the balances of debts.
func TotalBalance(debts []Debt) Value {
	total := zero
	for _, d := range debts {
		total = total.Add(maxValue(zero, d.Balance))
	}
	return total
}

// =============================================================================
// BUDGET RECORDS - Remote budget snapshot
// =============================================================================

// BudgetEntry is one categorized amount inside a monthly budget.
type BudgetEntry struct {
	Category string
	Kind     RowKind
	Amount   Value
}

// BudgetRecord is the remote budget for one calendar month.
type BudgetRecord struct {
	Year    int
	Month   int // 1-12
	Entries []BudgetEntry
}

// Matches reports whether the record belongs to the month m.
func (r BudgetRecord) Matches(m Month) bool {
	return r.Year == m.CalendarYear && r.Month == int(m.CalendarMonth)
}
