package planning

import (
	"fmt"
)

// =============================================================================
// TIMELINE MERGER - PayoffPlan -> grid rows
// =============================================================================

// MergeIntoGrid returns a copy of g with the payoff rows rewritten:
//
//	Remaining Debt       plan total; historical months show the starting total
//	Principal Paid Down  totalPaid - totalInterest, floored at 0; historical 0
//	Interest Paid        totalInterest; historical 0
//	<one row per debt>   in strategy order; historical months show the
//	                     starting balance
//
// Rows from a previous merge are replaced wholesale. Balance rows
// (Remaining Debt and the per-debt rows) are sticky at zero: once a month is
// <= 0 every later month is 0.
func MergeIntoGrid(g *Grid, plan *PayoffPlan, strategy Strategy) (*Grid, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}
	if plan == nil {
		plan = &PayoffPlan{Strategy: strategy}
	}

	out := g.Clone()
	kept := out.rows[:0]
	for _, r := range out.rows {
		if r.Kind == RowDebt || isMergedFlowRow(r.Category) {
			continue
		}
		kept = append(kept, r)
	}
	out.rows = kept

	remaining := out.rowFor(CategoryRemainingDebt)
	if remaining == nil {
		remaining = newRow(CategoryRemainingDebt, RowCalculated, out.months)
		out.rows = append(out.rows, remaining)
	}
	pos := out.find(CategoryRemainingDebt) + 1

	principal := newRow(CategoryPrincipalPaid, RowCalculated, out.months)
	interest := newRow(CategoryInterestPaid, RowCalculated, out.months)
	out.insertAt(pos, principal)
	out.insertAt(pos+1, interest)
	pos += 2

	currentIdx := out.CurrentMonth().Index
	startTotal := TotalBalance(plan.Starting)
	for _, m := range out.months {
		if m.Kind == Historical {
			remaining.Values[m.Index] = startTotal
			principal.Values[m.Index] = zero
			interest.Values[m.Index] = zero
			continue
		}
		mp, ok := plan.Month(m.Index - currentIdx)
		if !ok {
			remaining.Values[m.Index] = zero
			principal.Values[m.Index] = zero
			interest.Values[m.Index] = zero
			continue
		}
		remaining.Values[m.Index] = mp.RemainingDebt
		principal.Values[m.Index] = mp.Principal()
		interest.Values[m.Index] = mp.TotalInterest
	}
	applyStickyZero(remaining, out.months)

	balances := make([]Value, len(plan.Starting))
	rates := make([]Value, len(plan.Starting))
	for i, d := range plan.Starting {
		balances[i] = d.Balance
		rates[i] = d.AnnualRatePercent
	}
	for _, i := range strategy.order(balances, rates) {
		d := plan.Starting[i]
		row := newRow(out.uniqueDebtName(d.Name), RowDebt, out.months)
		for _, m := range out.months {
			if m.Kind == Historical {
				row.Values[m.Index] = d.Balance
				continue
			}
			mp, ok := plan.Month(m.Index - currentIdx)
			if !ok || i >= len(mp.PerDebt) {
				row.Values[m.Index] = zero
				continue
			}
			row.Values[m.Index] = mp.PerDebt[i].Balance
		}
		applyStickyZero(row, out.months)
		out.insertAt(pos, row)
		pos++
	}

	return out, nil
}

func isMergedFlowRow(category string) bool {
	key := categoryKey(category)
	return key == categoryKey(CategoryPrincipalPaid) || key == categoryKey(CategoryInterestPaid)
}

// applyStickyZero forces every month after the first value <= 0 to zero.
func applyStickyZero(r *Row, months []Month) {
	hitZero := false
	for _, m := range months {
		if hitZero {
			r.Values[m.Index] = zero
			continue
		}
		if !r.Value(m.Index).IsPositive() {
			hitZero = true
			r.Values[m.Index] = zero
		}
	}
}

// uniqueDebtName keeps debt rows from colliding with existing categories.
func (g *Grid) uniqueDebtName(name string) string {
	if name == "" {
		name = "Debt"
	}
	if g.find(name) < 0 {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if g.find(candidate) < 0 {
			return candidate
		}
	}
}
