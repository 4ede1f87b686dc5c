package planning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatSavings(months []Month, f float64) map[int]Value {
	out := make(map[int]Value, len(months))
	for _, m := range months {
		out[m.Index] = v(f)
	}
	return out
}

func TestSimulate_SingleDebtExample(t *testing.T) {
	// GIVEN: 1200 at 12%/yr with 100 net savings a month
	// WHEN: Simulating
	// THEN: Interest is charged before the payment each month

	months := testMonths(t)
	debts := []Debt{{ID: "visa", Name: "Visa", Balance: v(1200), AnnualRatePercent: v(12)}}

	plan, err := Simulate(debts, flatSavings(months, 100), Snowball, months)
	require.NoError(t, err)
	require.Len(t, plan.Months, 13, "current + 12 future")

	first := plan.Months[0]
	assert.Equal(t, 0, first.MonthOffset)
	assert.Equal(t, 3, first.MonthIndex)
	assert.Equal(t, "Mar 2025", first.Label)
	assertValue(t, 12, first.TotalInterest)
	assertValue(t, 100, first.TotalPaid)
	assertValue(t, 88, first.Principal())
	assertValue(t, 1112, first.RemainingDebt)
	assert.Equal(t, "visa", first.PerDebt[0].DebtID)

	second := plan.Months[1]
	assertValue(t, 11.12, second.TotalInterest)
	assertValue(t, 1023.12, second.RemainingDebt)

	assert.Equal(t, 13, plan.MonthsToPayoff())
	off, ok := plan.PayoffOffset()
	require.True(t, ok)
	assert.Equal(t, 12, off)

	prev, last := plan.Months[11], plan.Months[12]
	assert.True(t, prev.RemainingDebt.IsPositive())
	assertValue(t, 0, last.RemainingDebt)
	assert.True(t, last.TotalPaid.Equal(prev.RemainingDebt.Add(last.TotalInterest)),
		"last payment %s clears %s plus %s interest", last.TotalPaid, prev.RemainingDebt, last.TotalInterest)
	assert.True(t, last.TotalPaid.LessThan(v(100)))
	assertValue(t, 1200, plan.Starting[0].Balance, "input untouched")
}

func TestSimulate_MonotoneWithPositiveSavings(t *testing.T) {
	months := testMonths(t)
	debts := []Debt{
		{Name: "A", Balance: v(3000), AnnualRatePercent: v(24)},
		{Name: "B", Balance: v(800), AnnualRatePercent: v(5)},
	}

	plan, err := Simulate(debts, flatSavings(months, 700), Avalanche, months)
	require.NoError(t, err)

	prev := TotalBalance(debts)
	for _, mp := range plan.Months {
		assert.True(t, mp.RemainingDebt.LessThanOrEqual(prev), "%s: %s > %s", mp.Label, mp.RemainingDebt, prev)
		assert.False(t, mp.RemainingDebt.IsNegative())
		prev = mp.RemainingDebt
	}
	assert.Positive(t, plan.MonthsToPayoff())
}

func TestSimulate_StrategyOrder(t *testing.T) {
	// GIVEN: A(100 @ 5%) and B(50 @ 20%) with 60 available
	// WHEN: Paying by snowball or avalanche
	// THEN: Both clear B first, it is the smallest and the most expensive

	months := testMonths(t)
	ns := flatSavings(months, 60)

	debts := []Debt{
		{Name: "A", Balance: v(100), AnnualRatePercent: v(5)},
		{Name: "B", Balance: v(50), AnnualRatePercent: v(20)},
	}
	for _, st := range []Strategy{Snowball, Avalanche} {
		plan, err := Simulate(debts, ns, st, months)
		require.NoError(t, err)
		b, _ := plan.Months[0].Debt("B")
		assert.True(t, b.Balance.IsZero(), "%s pays B first", st)
	}

	// Higher rate on the bigger balance splits the strategies.
	debts = []Debt{
		{Name: "A", Balance: v(100), AnnualRatePercent: v(20)},
		{Name: "B", Balance: v(50), AnnualRatePercent: v(5)},
	}
	snow, err := Simulate(debts, ns, Snowball, months)
	require.NoError(t, err)
	ava, err := Simulate(debts, ns, Avalanche, months)
	require.NoError(t, err)

	b, _ := snow.Months[0].Debt("B")
	assert.True(t, b.Balance.IsZero(), "snowball pays the smaller balance")
	a, _ := ava.Months[0].Debt("A")
	assertValue(t, 60, a.Paid, "avalanche puts the whole pool on A")
	assert.True(t, ava.TotalInterest().LessThanOrEqual(snow.TotalInterest()))
}

func TestSimulate_TiesKeepInputOrder(t *testing.T) {
	months := testMonths(t)
	debts := []Debt{
		{Name: "First", Balance: v(100), AnnualRatePercent: v(10)},
		{Name: "Second", Balance: v(100), AnnualRatePercent: v(10)},
	}

	for _, st := range []Strategy{Snowball, Avalanche} {
		plan, err := Simulate(debts, flatSavings(months, 50), st, months)
		require.NoError(t, err)
		first, _ := plan.Months[0].Debt("First")
		second, _ := plan.Months[0].Debt("Second")
		assertValue(t, 50, first.Paid, string(st))
		assertValue(t, 0, second.Paid, string(st))
	}
}

func TestSimulate_NegativeSavingsPaysNothing(t *testing.T) {
	months := testMonths(t)
	debts := []Debt{{Name: "Card", Balance: v(1000), AnnualRatePercent: v(12)}}

	plan, err := Simulate(debts, flatSavings(months, -250), Snowball, months)
	require.NoError(t, err)

	for _, mp := range plan.Months {
		assert.True(t, mp.TotalPaid.IsZero())
	}
	assert.True(t, plan.Months[12].RemainingDebt.GreaterThan(v(1000)), "balance grows with interest")
}

func TestSimulate_ZeroMonthsAfterPayoff(t *testing.T) {
	months := testMonths(t)
	debts := []Debt{{Name: "Small", Balance: v(100), AnnualRatePercent: v(0)}}

	plan, err := Simulate(debts, flatSavings(months, 500), Snowball, months)
	require.NoError(t, err)

	require.Len(t, plan.Months, 13, "no early exit")
	assert.Equal(t, 1, plan.MonthsToPayoff())
	for _, mp := range plan.Months[1:] {
		assert.True(t, mp.TotalPaid.IsZero())
		assert.True(t, mp.RemainingDebt.IsZero())
	}
	assertValue(t, 100, plan.TotalPaid())
	assertValue(t, 0, plan.TotalInterest())

	off, ok := plan.DebtPayoffOffset("Small")
	require.True(t, ok)
	assert.Equal(t, 0, off)
}

func TestSimulate_NoDebts(t *testing.T) {
	months := testMonths(t)
	plan, err := Simulate(nil, flatSavings(months, 100), Avalanche, months)
	require.NoError(t, err)

	assert.Empty(t, plan.Months)
	assert.Equal(t, Avalanche, plan.Strategy)
	_, ok := plan.PayoffOffset()
	assert.False(t, ok)
}

func TestSimulate_Validation(t *testing.T) {
	months := testMonths(t)
	ns := flatSavings(months, 100)

	_, err := Simulate(nil, ns, Strategy("fastest"), months)
	assert.True(t, errors.Is(err, ErrInvalidStrategy))

	_, err = Simulate([]Debt{{Name: "Bad", Balance: v(-1), AnnualRatePercent: v(1)}}, ns, Snowball, months)
	assert.True(t, errors.Is(err, ErrInvalidDebt))

	_, err = Simulate([]Debt{{Name: "Bad", Balance: v(1), AnnualRatePercent: v(-1)}}, ns, Snowball, months)
	assert.True(t, errors.Is(err, ErrInvalidDebt))

	_, err = Simulate([]Debt{{Name: "Ok", Balance: v(1), AnnualRatePercent: v(1)}}, ns, Snowball, months[:3])
	assert.True(t, errors.Is(err, ErrInvalidTimeline))
}

func TestCompareStrategies(t *testing.T) {
	months := testMonths(t)
	debts := []Debt{
		{Name: "Store Card", Balance: v(600), AnnualRatePercent: v(8)},
		{Name: "Visa", Balance: v(4000), AnnualRatePercent: v(24.99)},
		{Name: "Car", Balance: v(2500), AnnualRatePercent: v(4)},
	}

	cmp, err := CompareStrategies(debts, flatSavings(months, 800), months)
	require.NoError(t, err)

	assert.Equal(t, Snowball, cmp.Snowball.Strategy)
	assert.Equal(t, Avalanche, cmp.Avalanche.Strategy)
	assert.True(t, cmp.InterestSaved.IsPositive(), "avalanche wins when the big balance has the high rate")
	assert.True(t, cmp.InterestSaved.Equal(cmp.Snowball.TotalInterest.Sub(cmp.Avalanche.TotalInterest)))
	assert.Positive(t, cmp.Snowball.MonthsToPayoff)
	assert.Positive(t, cmp.Avalanche.MonthsToPayoff)
	assert.Equal(t, cmp.Snowball.MonthsToPayoff-cmp.Avalanche.MonthsToPayoff, cmp.MonthsSaved)
}

func TestStrategy_Parse(t *testing.T) {
	for in, want := range map[string]Strategy{"snowball": Snowball, " Avalanche ": Avalanche, "SNOWBALL": Snowball} {
		got, err := ParseStrategy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStrategy("")
	assert.True(t, errors.Is(err, ErrInvalidStrategy))
	assert.Len(t, Strategies(), 2)
}
