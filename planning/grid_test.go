package planning

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testNow = time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

// testMonths: Dec 2024 .. Mar 2026, Mar 2025 (index 3) is Current.
func testMonths(t *testing.T) []Month {
	t.Helper()
	months, err := GenerateMonths(testNow, 3, 12)
	require.NoError(t, err)
	return months
}

func v(f float64) Value { return NewValue(f) }

func assertValue(t *testing.T, want float64, got Value, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(v(want)), "want %v, got %s %v", want, got, msgAndArgs)
}

func march(entries ...BudgetEntry) BudgetRecord {
	return BudgetRecord{Year: 2025, Month: 3, Entries: entries}
}

func income(f float64) BudgetEntry { return BudgetEntry{Category: CategoryIncome, Kind: RowIncome, Amount: v(f)} }

func expense(cat string, f float64) BudgetEntry {
	return BudgetEntry{Category: cat, Kind: RowExpense, Amount: v(f)}
}

func buildTestGrid(t *testing.T, budgets ...BudgetRecord) *Grid {
	t.Helper()
	g, err := BuildGrid(testMonths(t), budgets)
	require.NoError(t, err)
	return g
}

func categories(g *Grid) []string {
	var out []string
	for _, r := range g.Rows() {
		out = append(out, r.Category)
	}
	return out
}

// =============================================================================
// BUILD
// =============================================================================

func TestBuildGrid_RowOrder(t *testing.T) {
	g := buildTestGrid(t, march(
		income(3000),
		BudgetEntry{Category: "side gig", Kind: RowAdditionalIncome, Amount: v(200)},
		expense("pet care", 40),
	))

	want := []string{CategoryIncome, "Side Gig"}
	want = append(want, DefaultExpenseCategories...)
	want = append(want, "Pet Care", CategorySavings, CategoryNetSavings, CategoryRemainingDebt)
	assert.Equal(t, want, categories(g))
}

func TestBuildGrid_BackFill(t *testing.T) {
	// GIVEN: A current record, and a future record with a different value
	// WHEN: Building the grid
	// THEN: Historical months and record-less future months copy the
	//       Current value; the future record is kept

	g := buildTestGrid(t,
		march(income(3000), expense("Housing", 1000)),
		BudgetRecord{Year: 2025, Month: 6, Entries: []BudgetEntry{income(3500), expense("Housing", 1000)}},
		BudgetRecord{Year: 2024, Month: 12, Entries: []BudgetEntry{income(1)}}, // historical records are ignored
	)

	for _, m := range g.Months() {
		want := 3000.0
		if m.Label == "Jun 2025" {
			want = 3500
		}
		assertValue(t, want, g.Value(CategoryIncome, m.Index), m.Label)
		assertValue(t, 1000, g.Value("Housing", m.Index), m.Label)
	}
}

func TestBuildGrid_FutureRecordWithoutCategoryIsZero(t *testing.T) {
	g := buildTestGrid(t,
		march(income(3000), expense("Groceries", 400)),
		BudgetRecord{Year: 2025, Month: 4, Entries: []BudgetEntry{income(3000)}},
	)

	assertValue(t, 0, g.Value("Groceries", 4), "Apr has a record without groceries")
	assertValue(t, 400, g.Value("Groceries", 5))
}

func TestBuildGrid_IgnoresRecordsOutsideTimeline(t *testing.T) {
	g := buildTestGrid(t,
		march(income(3000)),
		BudgetRecord{Year: 2030, Month: 1, Entries: []BudgetEntry{expense("Boat", 99)}},
	)
	_, ok := g.Row("Boat")
	assert.False(t, ok)
}

func TestBuildGrid_Rejects(t *testing.T) {
	months := testMonths(t)

	_, err := BuildGrid(months, []BudgetRecord{march(BudgetEntry{Category: "Net Savings", Kind: RowExpense, Amount: v(1)})})
	assert.True(t, errors.Is(err, ErrReadOnlyCell))

	_, err = BuildGrid(months, []BudgetRecord{march(BudgetEntry{Category: "X", Kind: RowDebt, Amount: v(1)})})
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = BuildGrid(months[:3], nil)
	assert.True(t, errors.Is(err, ErrInvalidTimeline))
}

func TestBuildGrid_RejectsKindCollisions(t *testing.T) {
	// GIVEN: An entry whose name matches a row of another kind
	// WHEN: Building the grid
	// THEN: The entry is rejected instead of overwriting that row

	months := testMonths(t)
	tests := []struct {
		name  string
		entry BudgetEntry
	}{
		{"additional income named like an expense", BudgetEntry{Category: "housing", Kind: RowAdditionalIncome, Amount: v(200)}},
		{"expense named Income", BudgetEntry{Category: "Income", Kind: RowExpense, Amount: v(50)}},
		{"expense named Savings", BudgetEntry{Category: "SAVINGS", Kind: RowExpense, Amount: v(50)}},
		{"additional income named Savings", BudgetEntry{Category: "Savings", Kind: RowAdditionalIncome, Amount: v(50)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildGrid(months, []BudgetRecord{march(income(3000), expense("Housing", 1000), tt.entry)})
			assert.True(t, errors.Is(err, ErrInvalidValue), "got %v", err)
		})
	}

	// Same kind under another spelling still lands in the row.
	g := buildTestGrid(t, march(income(3000), expense("Housing", 1000), expense("  HOUSING ", 1200)))
	assertValue(t, 1200, g.Value("Housing", 3))
	assertValue(t, 1800, g.Value(CategoryNetSavings, 3))
}

func TestBuildGrid_CustomExpenseCategories(t *testing.T) {
	g, err := BuildGrid(testMonths(t), nil, WithExpenseCategories("rent", "Food", "RENT", "Net Savings"))
	require.NoError(t, err)

	assert.Equal(t, []string{CategoryIncome, "Rent", "Food", CategorySavings, CategoryNetSavings, CategoryRemainingDebt}, categories(g))
}

// =============================================================================
// NET SAVINGS
// =============================================================================

func TestRecomputeNetSavings(t *testing.T) {
	g := buildTestGrid(t, march(
		income(3000),
		BudgetEntry{Category: "Bonus", Kind: RowAdditionalIncome, Amount: v(250)},
		expense("Housing", 1200),
		expense("Groceries", 450.5),
		BudgetEntry{Category: CategorySavings, Kind: RowSavings, Amount: v(100)},
	))

	// 3000 + 250 - 1200 - 450.5 + 100
	for idx, ns := range g.NetSavingsByMonth() {
		assertValue(t, 1699.5, ns, "month %d", idx)
	}

	out := RecomputeNetSavings(g)
	assert.NotSame(t, g, out)
	assert.Equal(t, g.NetSavingsByMonth(), out.NetSavingsByMonth(), "idempotent")
}

func TestGrid_ReadersReturnCopies(t *testing.T) {
	g := buildTestGrid(t, march(income(3000)))

	row, ok := g.Row("income")
	require.True(t, ok)
	row.Values[3] = v(1)
	assertValue(t, 3000, g.Value(CategoryIncome, 3))

	months := g.Months()
	months[0].Label = "changed"
	m, _ := g.Month(0)
	assert.Equal(t, "Dec 2024", m.Label)

	assertValue(t, 0, g.Value("Unknown", 3))
	assertValue(t, 0, g.Value(CategoryIncome, 99))
}
