package factory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/planning"
	"github.com/warp/budget-engine/planning/store"
)

const sampleTOML = `
id = "sample"
now = "2025-03"
historical_months = 2
future_months = 6
strategy = "Avalanche"

[[budgets]]
month = "2025-03"
[[budgets.entries]]
category = "income"
amount = 3000
[[budgets.entries]]
category = "  pet   care "
amount = "75.50"
[[budgets.entries]]
category = "Savings"
amount = 100

[[budgets]]
offset = 1
[[budgets.entries]]
category = "Bonus"
kind = "additional_income"
amount = 500

[[debts]]
name = "Visa"
balance = 1200
annual_rate = 12
`

func TestParseScenarioTOML(t *testing.T) {
	sc, err := ParseScenarioTOML([]byte(sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "sample", sc.ID)
	assert.Equal(t, "sample", sc.Name, "name defaults to id")
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), sc.Now)
	assert.Equal(t, planning.Avalanche, sc.Strategy)

	records := sc.Budgets(time.Now())
	require.Len(t, records, 2)

	march := records[0]
	assert.Equal(t, 2025, march.Year)
	assert.Equal(t, 3, march.Month)
	require.Len(t, march.Entries, 3)
	assert.Equal(t, planning.CategoryIncome, march.Entries[0].Category)
	assert.Equal(t, planning.RowIncome, march.Entries[0].Kind)
	assert.Equal(t, "Pet Care", march.Entries[1].Category)
	assert.Equal(t, planning.RowExpense, march.Entries[1].Kind)
	assert.True(t, march.Entries[1].Amount.Equal(planning.NewValue(75.5)))
	assert.Equal(t, planning.RowSavings, march.Entries[2].Kind)

	april := records[1]
	assert.Equal(t, 4, april.Month, "offset resolves against the pinned now")
	assert.Equal(t, planning.RowAdditionalIncome, april.Entries[0].Kind)

	require.Len(t, sc.Debts, 1)
	assert.True(t, sc.Debts[0].AnnualRatePercent.Equal(planning.NewValue(12)))
}

func TestParseScenarioJSON(t *testing.T) {
	data := `{
		"id": "json-plan",
		"name": "JSON Plan",
		"budgets": [{"offset": 0, "entries": [{"category": "Income", "amount": "2500"}]}],
		"debts": [{"name": "Car", "balance": 5000, "annual_rate": "5.5"}]
	}`

	sc, err := ParseScenarioJSON([]byte(data))
	require.NoError(t, err)

	assert.True(t, sc.Now.IsZero())
	now := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)
	records := sc.Budgets(now)
	require.Len(t, records, 1)
	assert.Equal(t, 2026, records[0].Year)
	assert.Equal(t, 1, records[0].Month)
	assert.Equal(t, "5.5", sc.Debts[0].AnnualRatePercent.String())
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
		is   error
	}{
		{
			name: "unknown strategy",
			toml: `strategy = "random"`,
			is:   planning.ErrInvalidStrategy,
		},
		{
			name: "negative debt balance",
			toml: "[[debts]]\nname = \"X\"\nbalance = -5\nannual_rate = 1",
			is:   planning.ErrInvalidDebt,
		},
		{
			name: "month and offset",
			toml: "[[budgets]]\nmonth = \"2025-01\"\noffset = 1",
			is:   planning.ErrInvalidConfiguration,
		},
		{
			name: "computed kind",
			toml: "[[budgets]]\noffset = 0\n[[budgets.entries]]\ncategory = \"X\"\nkind = \"calculated\"\namount = 1",
			is:   planning.ErrInvalidValue,
		},
		{
			name: "unknown key",
			toml: `colour = "blue"`,
			is:   planning.ErrInvalidConfiguration,
		},
		{
			name: "bad now",
			toml: `now = "March"`,
			is:   planning.ErrInvalidConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenarioTOML([]byte(tt.toml))
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestScenario_SessionConfigAndClock(t *testing.T) {
	sc, err := ParseScenarioTOML([]byte(sampleTOML))
	require.NoError(t, err)

	cfg := sc.SessionConfig(planning.DefaultSessionConfig())
	assert.Equal(t, 2, cfg.HistoricalMonths)
	assert.Equal(t, 6, cfg.FutureMonths)
	assert.Equal(t, planning.Avalanche, cfg.Strategy)

	clock := sc.Clock(planning.SystemClock{})
	assert.Equal(t, sc.Now, clock.Now())
}

func TestScenario_Seed(t *testing.T) {
	sc, err := ParseScenarioTOML([]byte(sampleTOML))
	require.NoError(t, err)

	m := store.NewMemory()
	ctx := context.Background()
	_, err = m.CreateDebt(ctx, planning.DebtInput{Name: "Old"})
	require.NoError(t, err)

	require.NoError(t, sc.Seed(ctx, m, time.Now()))

	debts, err := m.ListDebts(ctx)
	require.NoError(t, err)
	require.Len(t, debts, 1, "seed resets the store first")
	assert.Equal(t, "Visa", debts[0].Name)

	records, err := m.ListBudgets(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadScenarioFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))

	sc, err := LoadScenarioFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", sc.ID)

	_, err = LoadScenarioFile(filepath.Join(dir, "plan.yaml"))
	assert.Error(t, err)
}

func TestPresets_AllParseAndSimulate(t *testing.T) {
	all, err := Presets()
	require.NoError(t, err)
	require.Len(t, all, 3)

	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	for _, sc := range all {
		t.Run(sc.ID, func(t *testing.T) {
			assert.NotEmpty(t, sc.Name)
			assert.NotEmpty(t, sc.Debts)

			months, err := planning.GenerateMonths(now, 3, 12)
			require.NoError(t, err)
			grid, err := planning.BuildGrid(months, sc.Budgets(now))
			require.NoError(t, err)

			debts := make([]planning.Debt, len(sc.Debts))
			for i, in := range sc.Debts {
				debts[i] = planning.Debt{Name: in.Name, Balance: in.Balance, AnnualRatePercent: in.AnnualRatePercent}
			}
			plan, err := planning.Simulate(debts, grid.NetSavingsByMonth(), sc.Strategy, months)
			require.NoError(t, err)
			assert.Len(t, plan.Months, 13)
		})
	}

	_, ok := Preset("credit-card-crunch")
	assert.True(t, ok)
	_, ok = Preset("nope")
	assert.False(t, ok)
}
