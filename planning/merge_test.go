package planning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeTestGrid(t *testing.T, debts []Debt, st Strategy) (*Grid, *PayoffPlan) {
	t.Helper()
	g := buildTestGrid(t, march(income(3000), expense("Housing", 2900)))
	plan, err := Simulate(debts, g.NetSavingsByMonth(), st, g.months)
	require.NoError(t, err)
	merged, err := MergeIntoGrid(g, plan, st)
	require.NoError(t, err)
	return merged, plan
}

func TestMergeIntoGrid_Rows(t *testing.T) {
	// GIVEN: One debt of 1200 at 12% paid 100 a month
	// WHEN: Merging the plan
	// THEN: Historical months show the starting balance and no flows,
	//       Current and Future months follow the plan

	debts := []Debt{{Name: "Visa", Balance: v(1200), AnnualRatePercent: v(12)}}
	g, _ := mergeTestGrid(t, debts, Snowball)

	order := categories(g)
	assert.Equal(t, []string{CategoryRemainingDebt, CategoryPrincipalPaid, CategoryInterestPaid, "Visa"}, order[len(order)-4:])

	for idx := 0; idx < 3; idx++ {
		assertValue(t, 1200, g.Value(CategoryRemainingDebt, idx))
		assertValue(t, 1200, g.Value("Visa", idx))
		assertValue(t, 0, g.Value(CategoryPrincipalPaid, idx))
		assertValue(t, 0, g.Value(CategoryInterestPaid, idx))
	}

	assertValue(t, 1112, g.Value(CategoryRemainingDebt, 3))
	assertValue(t, 1112, g.Value("Visa", 3))
	assertValue(t, 88, g.Value(CategoryPrincipalPaid, 3))
	assertValue(t, 12, g.Value(CategoryInterestPaid, 3))
	assertValue(t, 1023.12, g.Value(CategoryRemainingDebt, 4))
	assertValue(t, 100, g.Value(CategoryNetSavings, 4), "net savings untouched")

	visa, ok := g.Row("visa")
	require.True(t, ok)
	assert.Equal(t, RowDebt, visa.Kind)
}

func TestMergeIntoGrid_StickyZero(t *testing.T) {
	months := testMonths(t)
	g := buildTestGrid(t, march(income(100)))

	// A balance that reappears after hitting zero is never shown.
	plan := &PayoffPlan{
		Strategy: Snowball,
		Starting: []Debt{{Name: "Card", Balance: v(150), AnnualRatePercent: v(0)}},
	}
	for off, bal := range []float64{50, 0, 40, 30} {
		m := months[3+off]
		plan.Months = append(plan.Months, MonthPlan{
			MonthOffset:   off,
			MonthIndex:    m.Index,
			Label:         m.Label,
			PerDebt:       []DebtMonth{{Name: "Card", Balance: v(bal)}},
			TotalPaid:     v(100),
			RemainingDebt: v(bal),
		})
	}

	merged, err := MergeIntoGrid(g, plan, Snowball)
	require.NoError(t, err)

	assertValue(t, 150, merged.Value(CategoryRemainingDebt, 2))
	assertValue(t, 50, merged.Value(CategoryRemainingDebt, 3))
	for idx := 4; idx < len(months); idx++ {
		assertValue(t, 0, merged.Value(CategoryRemainingDebt, idx), months[idx].Label)
		assertValue(t, 0, merged.Value("Card", idx), months[idx].Label)
	}
	assertValue(t, 100, merged.Value(CategoryPrincipalPaid, 5), "flow rows are not sticky")
}

func TestMergeIntoGrid_ReplacesPreviousMerge(t *testing.T) {
	debts := []Debt{
		{Name: "Big Rate", Balance: v(900), AnnualRatePercent: v(25)},
		{Name: "Small", Balance: v(200), AnnualRatePercent: v(3)},
	}
	g, _ := mergeTestGrid(t, debts, Snowball)
	rowsBefore := len(g.Rows())

	plan, err := Simulate(debts, g.NetSavingsByMonth(), Avalanche, g.months)
	require.NoError(t, err)
	again, err := MergeIntoGrid(g, plan, Avalanche)
	require.NoError(t, err)

	assert.Len(t, again.Rows(), rowsBefore, "no duplicated rows")
	order := categories(again)
	assert.Equal(t, []string{"Big Rate", "Small"}, order[len(order)-2:], "avalanche order")
	order = categories(g)
	assert.Equal(t, []string{"Small", "Big Rate"}, order[len(order)-2:], "snowball order")
}

func TestMergeIntoGrid_DebtNameCollision(t *testing.T) {
	g, _ := mergeTestGrid(t, []Debt{
		{Name: "Housing", Balance: v(500), AnnualRatePercent: v(5)},
		{Name: "Net Savings", Balance: v(10), AnnualRatePercent: v(5)},
	}, Avalanche)

	debt, ok := g.Row("Housing (2)")
	require.True(t, ok)
	assert.Equal(t, RowDebt, debt.Kind)
	h, _ := g.Row("Housing")
	assert.Equal(t, RowExpense, h.Kind)
	_, ok = g.Row("Net Savings (2)")
	assert.True(t, ok)
}

func TestMergeIntoGrid_NilPlanAndErrors(t *testing.T) {
	g := buildTestGrid(t, march(income(3000)))

	merged, err := MergeIntoGrid(g, nil, Snowball)
	require.NoError(t, err)
	for _, m := range merged.Months() {
		assertValue(t, 0, merged.Value(CategoryRemainingDebt, m.Index))
	}

	_, err = MergeIntoGrid(g, nil, Strategy("nope"))
	assert.True(t, errors.Is(err, ErrInvalidStrategy))
}
