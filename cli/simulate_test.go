package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestSimulate_Preset(t *testing.T) {
	// GIVEN: The starter household preset pinned to March 2025
	// WHEN: Simulating with the comparison
	// THEN: The projection covers Dec 2024 to Mar 2026 and both debts
	//       are paid off inside the horizon

	out, err := execute(t, "simulate", "starter-household", "--now", "2025-03", "--compare")
	require.NoError(t, err, out)

	assert.Contains(t, out, "Starter Household")
	assert.Contains(t, out, "Debt Snowball")
	assert.Contains(t, out, "Dec 2024")
	assert.Contains(t, out, "Mar 2025 *")
	assert.Contains(t, out, "Mar 2026")
	assert.Contains(t, out, "1,300.00", "net savings")
	assert.Contains(t, out, "Visa")
	assert.Contains(t, out, "Car Loan")
	assert.Contains(t, out, "Debt free in")
	assert.Contains(t, out, "Strategy Comparison")
	assert.NotContains(t, out, "beyond horizon")
}

func TestSimulate_StrategyAndHorizonFlags(t *testing.T) {
	out, err := execute(t, "simulate", "starter-household",
		"--now", "2025-03-10", "--strategy", "avalanche", "--historical", "0", "--future", "2")
	require.NoError(t, err, out)

	assert.Contains(t, out, "Debt Avalanche")
	assert.NotContains(t, out, "Feb 2025")
	assert.Contains(t, out, "May 2025")
	assert.NotContains(t, out, "Jun 2025")
	assert.Contains(t, out, "Debt remains at the end of the horizon.")
}

func TestSimulate_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
id = "file-plan"
name = "File Plan"
now = "2025-03"
historical_months = 1
future_months = 3

[[budgets]]
offset = 0
[[budgets.entries]]
category = "Income"
amount = 2000
[[budgets.entries]]
category = "Rent"
amount = 1900

[[debts]]
name = "Student Loan"
balance = 1200
annual_rate = 12
`), 0o644))

	out, err := execute(t, "simulate", path)
	require.NoError(t, err, out)

	assert.Contains(t, out, "File Plan")
	assert.Contains(t, out, "Feb 2025")
	assert.Contains(t, out, "Jun 2025")
	assert.Contains(t, out, "Student Loan")
	// 1200 @ 12% with 100 a month
	assert.Contains(t, out, "1,112.00")
	assert.Contains(t, out, "1,023.12")
}

func TestSimulate_Errors(t *testing.T) {
	_, err := execute(t, "simulate", "no-such-scenario.toml")
	assert.Error(t, err)

	_, err = execute(t, "simulate", "starter-household", "--strategy", "fastest")
	assert.Error(t, err)

	_, err = execute(t, "simulate", "starter-household", "--now", "March")
	assert.Error(t, err)

	_, err = execute(t, "simulate")
	assert.Error(t, err)
}

func TestListCommands(t *testing.T) {
	out, err := execute(t, "strategies")
	require.NoError(t, err)
	assert.Contains(t, out, "snowball")
	assert.Contains(t, out, "avalanche")

	out, err = execute(t, "scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "starter-household")
	assert.Contains(t, out, "credit-card-crunch")
	assert.Contains(t, out, "irregular-income")
}
