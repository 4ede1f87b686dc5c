/*
grid.go - Budget grid model

PURPOSE:
  A Grid is the matrix of category rows by month columns the planner
  displays. It is built once from the remote budget snapshot and then
  mutated only through ApplyEdit and MergeIntoGrid, each of which returns
  a new Grid.

ROW ORDER:
  Income
  <additional income rows, in first-sight order>
  <expense rows>
  Savings
  Net Savings
  Remaining Debt
  <rows added by MergeIntoGrid>

BACK-FILL RULE (build time only):
  Historical months, and Current/Future months without a remote record,
  copy every editable row's Current-month value. Historical months are a
  projection of "now", not an edit journal.

INVARIANTS:
  - every row has a value for every month index (missing = 0)
  - category keys are unique (case-insensitive, see category.go)
  - the Net Savings row always reflects every other row exactly once
*/
package planning

import (
	"fmt"
)

// =============================================================================
// ROW
// =============================================================================

type Row struct {
	Category string
	Kind     RowKind
	Values   map[int]Value
}

// Value returns the cell for month index idx, zero if unset.
func (r Row) Value(idx int) Value {
	if v, ok := r.Values[idx]; ok {
		return v
	}
	return zero
}

func (r *Row) clone() *Row {
	values := make(map[int]Value, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return &Row{Category: r.Category, Kind: r.Kind, Values: values}
}

func newRow(category string, kind RowKind, months []Month) *Row {
	values := make(map[int]Value, len(months))
	for _, m := range months {
		values[m.Index] = zero
	}
	return &Row{Category: category, Kind: kind, Values: values}
}

// =============================================================================
// GRID
// =============================================================================

type Grid struct {
	months  []Month
	rows    []*Row
	current int
}

// Months returns a copy of the month sequence the grid is defined over.
func (g *Grid) Months() []Month {
	out := make([]Month, len(g.months))
	copy(out, g.months)
	return out
}

// CurrentMonth returns the grid's Current month.
func (g *Grid) CurrentMonth() Month { return g.months[g.current] }

// Month returns the month at index idx.
func (g *Grid) Month(idx int) (Month, bool) {
	if idx < 0 || idx >= len(g.months) {
		return Month{}, false
	}
	return g.months[idx], true
}

// Rows returns copies of every row in display order.
func (g *Grid) Rows() []Row {
	out := make([]Row, len(g.rows))
	for i, r := range g.rows {
		out[i] = *r.clone()
	}
	return out
}

// Row looks a row up by category, case-insensitively.
func (g *Grid) Row(category string) (Row, bool) {
	if i := g.find(category); i >= 0 {
		return *g.rows[i].clone(), true
	}
	return Row{}, false
}

// Value returns the cell (category, idx), zero when either is unknown.
func (g *Grid) Value(category string, idx int) Value {
	if i := g.find(category); i >= 0 {
		return g.rows[i].Value(idx)
	}
	return zero
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	rows := make([]*Row, len(g.rows))
	for i, r := range g.rows {
		rows[i] = r.clone()
	}
	months := make([]Month, len(g.months))
	copy(months, g.months)
	return &Grid{months: months, rows: rows, current: g.current}
}

func (g *Grid) find(category string) int {
	key := categoryKey(category)
	for i, r := range g.rows {
		if categoryKey(r.Category) == key {
			return i
		}
	}
	return -1
}

func (g *Grid) rowFor(category string) *Row {
	if i := g.find(category); i >= 0 {
		return g.rows[i]
	}
	return nil
}

func (g *Grid) insertAt(pos int, r *Row) {
	g.rows = append(g.rows, nil)
	copy(g.rows[pos+1:], g.rows[pos:])
	g.rows[pos] = r
}

// additionalIncomePos is where the next synthesized additional-income row
// goes: after the primary income row and any additional-income rows
// already following it.
func (g *Grid) additionalIncomePos() int {
	pos := g.find(CategoryIncome)
	if pos < 0 {
		return 0
	}
	pos++
	for pos < len(g.rows) && g.rows[pos].Kind == RowAdditionalIncome {
		pos++
	}
	return pos
}

// expensePos is where a new expense row goes: after the last expense row,
// or after the income block if there is none.
func (g *Grid) expensePos() int {
	last := -1
	for i, r := range g.rows {
		if r.Kind == RowExpense {
			last = i
		}
	}
	if last >= 0 {
		return last + 1
	}
	return g.additionalIncomePos()
}

// ensureAdditionalIncome returns the row for name, synthesizing an
// additional-income row on first sight.
func (g *Grid) ensureAdditionalIncome(name string) (*Row, bool) {
	if r := g.rowFor(name); r != nil {
		return r, false
	}
	r := newRow(CanonicalCategory(name), RowAdditionalIncome, g.months)
	g.insertAt(g.additionalIncomePos(), r)
	return r, true
}

func (g *Grid) ensureExpense(name string) *Row {
	if r := g.rowFor(name); r != nil {
		return r
	}
	r := newRow(CanonicalCategory(name), RowExpense, g.months)
	g.insertAt(g.expensePos(), r)
	return r
}

// =============================================================================
// BUILD
// =============================================================================

type gridConfig struct {
	expenseCategories []string
}

// GridOption customizes BuildGrid.
type GridOption func(*gridConfig)

// WithExpenseCategories replaces the seeded expense categories.
func WithExpenseCategories(names ...string) GridOption {
	return func(c *gridConfig) {
		c.expenseCategories = append([]string(nil), names...)
	}
}

// BuildGrid seeds the known rows, writes every remote budget record that
// falls inside months, applies the back-fill rule and computes Net Savings.
func BuildGrid(months []Month, budgets []BudgetRecord, opts ...GridOption) (*Grid, error) {
	cfg := gridConfig{expenseCategories: DefaultExpenseCategories}
	for _, opt := range opts {
		opt(&cfg)
	}

	current, err := CurrentMonth(months)
	if err != nil {
		return nil, err
	}

	g := &Grid{months: make([]Month, len(months)), current: current.Index}
	copy(g.months, months)

	g.rows = append(g.rows, newRow(CategoryIncome, RowIncome, months))
	for _, name := range cfg.expenseCategories {
		if g.find(name) >= 0 || isReserved(name) {
			continue
		}
		g.rows = append(g.rows, newRow(CanonicalCategory(name), RowExpense, months))
	}
	g.rows = append(g.rows,
		newRow(CategorySavings, RowSavings, months),
		newRow(CategoryNetSavings, RowCalculated, months),
		newRow(CategoryRemainingDebt, RowCalculated, months),
	)

	withRecord := make(map[int]bool)
	for _, rec := range budgets {
		m, ok := monthFor(months, rec)
		if !ok {
			continue
		}
		withRecord[m.Index] = true
		for _, e := range rec.Entries {
			if err := g.writeEntry(m.Index, e); err != nil {
				return nil, fmt.Errorf("budget %04d-%02d: %w", rec.Year, rec.Month, err)
			}
		}
	}

	for _, r := range g.rows {
		if !r.Kind.Editable() {
			continue
		}
		anchor := r.Value(current.Index)
		for _, m := range months {
			if m.Kind == Historical || (m.Kind != Current && !withRecord[m.Index]) {
				r.Values[m.Index] = anchor
			}
		}
	}

	g.recomputeNetSavings()
	return g, nil
}

func monthFor(months []Month, rec BudgetRecord) (Month, bool) {
	for _, m := range months {
		if rec.Matches(m) {
			return m, true
		}
	}
	return Month{}, false
}

func (g *Grid) writeEntry(idx int, e BudgetEntry) error {
	if isReserved(e.Category) {
		return fmt.Errorf("%w: %q is computed", ErrReadOnlyCell, e.Category)
	}
	var r *Row
	switch e.Kind {
	case RowIncome:
		r = g.rowFor(CategoryIncome)
	case RowSavings:
		r = g.rowFor(CategorySavings)
	case RowAdditionalIncome:
		r, _ = g.ensureAdditionalIncome(e.Category)
	case RowExpense:
		r = g.ensureExpense(e.Category)
	default:
		return fmt.Errorf("%w: entry %q has kind %q", ErrInvalidValue, e.Category, e.Kind)
	}
	if r.Kind != e.Kind {
		return fmt.Errorf("%w: entry %q of kind %q collides with %s row %q",
			ErrInvalidValue, e.Category, e.Kind, r.Kind, r.Category)
	}
	r.Values[idx] = e.Amount
	return nil
}

// =============================================================================
// NET SAVINGS AGGREGATOR
// =============================================================================

// RecomputeNetSavings returns a copy of g whose Net Savings row is
// income + additional income - expenses + savings for every month.
// Only the Net Savings row differs from g.
func RecomputeNetSavings(g *Grid) *Grid {
	out := g.Clone()
	out.recomputeNetSavings()
	return out
}

func (g *Grid) recomputeNetSavings() {
	ns := g.rowFor(CategoryNetSavings)
	if ns == nil {
		ns = newRow(CategoryNetSavings, RowCalculated, g.months)
		g.rows = append(g.rows, ns)
	}
	for _, m := range g.months {
		total := zero
		for _, r := range g.rows {
			switch r.Kind {
			case RowIncome, RowAdditionalIncome, RowSavings:
				total = total.Add(r.Value(m.Index))
			case RowExpense:
				total = total.Sub(r.Value(m.Index))
			}
		}
		ns.Values[m.Index] = total
	}
}

// NetSavingsByMonth returns the Net Savings row keyed by month index, the
// input Simulate expects.
func (g *Grid) NetSavingsByMonth() map[int]Value {
	out := make(map[int]Value, len(g.months))
	ns := g.rowFor(CategoryNetSavings)
	for _, m := range g.months {
		if ns != nil {
			out[m.Index] = ns.Value(m.Index)
		} else {
			out[m.Index] = zero
		}
	}
	return out
}
