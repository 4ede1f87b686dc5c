package factory

import (
	"fmt"
	"sync"
)

// =============================================================================
// BUILT-IN SCENARIOS
// =============================================================================

// Budgets are expressed as offsets so presets always land around the
// caller's current month.

// StarterHouseholdTOML: steady income, one card and one car loan.
const StarterHouseholdTOML = `
id = "starter-household"
name = "Starter Household"
description = "Steady salary, a credit card and a car loan"
strategy = "snowball"

[[budgets]]
offset = 0
[[budgets.entries]]
category = "Income"
amount = 4200
[[budgets.entries]]
category = "Housing"
amount = 1450
[[budgets.entries]]
category = "Utilities"
amount = 180
[[budgets.entries]]
category = "Groceries"
amount = 520
[[budgets.entries]]
category = "Transportation"
amount = 240
[[budgets.entries]]
category = "Insurance"
amount = 160
[[budgets.entries]]
category = "Healthcare"
amount = 90
[[budgets.entries]]
category = "Entertainment"
amount = 150
[[budgets.entries]]
category = "Other"
amount = 110
[[budgets.entries]]
category = "Savings"
amount = 0

[[debts]]
name = "Visa"
balance = "2400.00"
annual_rate = "19.99"
kind = "credit_card"

[[debts]]
name = "Car Loan"
balance = "9800.00"
annual_rate = "6.4"
kind = "auto"
`

// CreditCardCrunchTOML: several cards where avalanche clearly wins.
const CreditCardCrunchTOML = `
id = "credit-card-crunch"
name = "Credit Card Crunch"
description = "Four cards with very different rates; compare snowball and avalanche"
strategy = "avalanche"

[[budgets]]
offset = 0
[[budgets.entries]]
category = "Income"
amount = 3600
[[budgets.entries]]
category = "Housing"
amount = 1300
[[budgets.entries]]
category = "Utilities"
amount = 150
[[budgets.entries]]
category = "Groceries"
amount = 450
[[budgets.entries]]
category = "Transportation"
amount = 200
[[budgets.entries]]
category = "Insurance"
amount = 120
[[budgets.entries]]
category = "Entertainment"
amount = 60

[[debts]]
name = "Store Card"
balance = 600
annual_rate = 26.99
kind = "credit_card"

[[debts]]
name = "Visa"
balance = 3200
annual_rate = 22.5
kind = "credit_card"

[[debts]]
name = "Mastercard"
balance = 1800
annual_rate = 14.9
kind = "credit_card"

[[debts]]
name = "Student Loan"
balance = 7400
annual_rate = 4.5
kind = "student"
`

// IrregularIncomeTOML: a freelancer with a lean month and a bonus month.
const IrregularIncomeTOML = `
id = "irregular-income"
name = "Irregular Income"
description = "Freelance income with a side gig, a lean month and a bonus month"
strategy = "snowball"

[[budgets]]
offset = 0
[[budgets.entries]]
category = "Income"
amount = 3000
[[budgets.entries]]
category = "Side Gig"
kind = "additional_income"
amount = 450
[[budgets.entries]]
category = "Housing"
amount = 1200
[[budgets.entries]]
category = "Utilities"
amount = 140
[[budgets.entries]]
category = "Groceries"
amount = 420
[[budgets.entries]]
category = "Transportation"
amount = 160
[[budgets.entries]]
category = "Healthcare"
amount = 310
[[budgets.entries]]
category = "Other"
amount = 90

[[budgets]]
offset = 2
[[budgets.entries]]
category = "Income"
amount = 1800
[[budgets.entries]]
category = "Side Gig"
kind = "additional_income"
amount = 0
[[budgets.entries]]
category = "Housing"
amount = 1200
[[budgets.entries]]
category = "Utilities"
amount = 140
[[budgets.entries]]
category = "Groceries"
amount = 380
[[budgets.entries]]
category = "Transportation"
amount = 160
[[budgets.entries]]
category = "Healthcare"
amount = 310
[[budgets.entries]]
category = "Other"
amount = 60

[[budgets]]
offset = 5
[[budgets.entries]]
category = "Income"
amount = 6500
[[budgets.entries]]
category = "Side Gig"
kind = "additional_income"
amount = 450
[[budgets.entries]]
category = "Housing"
amount = 1200
[[budgets.entries]]
category = "Utilities"
amount = 140
[[budgets.entries]]
category = "Groceries"
amount = 420
[[budgets.entries]]
category = "Transportation"
amount = 160
[[budgets.entries]]
category = "Healthcare"
amount = 310
[[budgets.entries]]
category = "Other"
amount = 90

[[debts]]
name = "Medical Bill"
balance = 950
annual_rate = 0
kind = "medical"

[[debts]]
name = "Line Of Credit"
balance = 5200
annual_rate = 11.25
kind = "loc"
`

var (
	presetsOnce sync.Once
	presets     []*Scenario
	presetsErr  error
)

// Presets returns the built-in scenarios in display order.
func Presets() ([]*Scenario, error) {
	presetsOnce.Do(func() {
		for _, src := range []string{StarterHouseholdTOML, CreditCardCrunchTOML, IrregularIncomeTOML} {
			sc, err := ParseScenarioTOML([]byte(src))
			if err != nil {
				presetsErr = fmt.Errorf("invalid built-in scenario: %w", err)
				return
			}
			presets = append(presets, sc)
		}
	})
	return presets, presetsErr
}

// Preset looks up a built-in scenario by ID.
func Preset(id string) (*Scenario, bool) {
	all, err := Presets()
	if err != nil {
		return nil, false
	}
	for _, sc := range all {
		if sc.ID == id {
			return sc, true
		}
	}
	return nil, false
}
