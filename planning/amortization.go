/*
amortization.go - Debt payoff simulator

PURPOSE:
  Given starting debts, the Net Savings series and a strategy, produces a
  month-by-month plan of payments, interest and balances from the Current
  month to the end of the timeline.

ALGORITHM (per month, in order):
  1. Accrue interest on every debt with a positive balance:
       interest = balance * annualRatePercent / 100 / 12
  2. Pool = max(0, net savings for the month). Historical months pay 0.
  3. Order debts by strategy (ties keep input order):
       snowball:  ascending current balance
       avalanche: descending annual rate
  4. Single greedy pass: each debt gets min(pool, balance).
  5. Record the month.

  Interest is charged before payment in the same month. There is no
  separate minimum-payment phase and no early exit: once every debt is
  paid the plan keeps emitting zero months through the horizon.

EXAMPLE:
  One debt, balance 1200 at 12%/yr, net savings 100/month:
    month 0: interest 12, balance 1212, pay 100, balance 1112
    month 1: interest 11.12, balance 1123.12, pay 100, balance 1023.12

SEE ALSO:
  - merge.go: turns a PayoffPlan into grid rows
  - strategy.go: ordering rules
*/
package planning

import (
	"fmt"
)

var monthlyRateDivisor = hundred.Mul(twelve)

// =============================================================================
// PAYOFF PLAN
// =============================================================================

// DebtMonth is one debt's activity in one simulated month.
type DebtMonth struct {
	DebtID   string
	Name     string
	Balance  Value // after payment, never negative
	Paid     Value
	Interest Value
}

// MonthPlan is one simulated month. MonthOffset 0 is the Current month;
// MonthIndex is the matching Month.Index.
type MonthPlan struct {
	MonthOffset   int
	MonthIndex    int
	Label         string
	PerDebt       []DebtMonth // input order
	TotalPaid     Value
	TotalInterest Value
	RemainingDebt Value
}

// Debt returns the entry for the named debt.
func (mp MonthPlan) Debt(name string) (DebtMonth, bool) {
	for _, d := range mp.PerDebt {
		if d.Name == name {
			return d, true
		}
	}
	return DebtMonth{}, false
}

// Principal is the part of the month's payments that reduced balances,
// TotalPaid - TotalInterest floored at zero.
func (mp MonthPlan) Principal() Value {
	return maxValue(zero, mp.TotalPaid.Sub(mp.TotalInterest))
}

type PayoffPlan struct {
	Strategy Strategy
	Starting []Debt
	Months   []MonthPlan
}

// Month returns the plan entry for a month offset.
func (p *PayoffPlan) Month(offset int) (MonthPlan, bool) {
	if offset < 0 || offset >= len(p.Months) {
		return MonthPlan{}, false
	}
	return p.Months[offset], true
}

func (p *PayoffPlan) TotalInterest() Value {
	total := zero
	for _, m := range p.Months {
		total = total.Add(m.TotalInterest)
	}
	return total
}

func (p *PayoffPlan) TotalPaid() Value {
	total := zero
	for _, m := range p.Months {
		total = total.Add(m.TotalPaid)
	}
	return total
}

// PayoffOffset returns the first month offset at which no debt remains.
func (p *PayoffPlan) PayoffOffset() (int, bool) {
	for _, m := range p.Months {
		if !m.RemainingDebt.IsPositive() {
			return m.MonthOffset, true
		}
	}
	return 0, false
}

// MonthsToPayoff is the number of simulated months needed to clear every
// debt, or -1 if the horizon ends first.
func (p *PayoffPlan) MonthsToPayoff() int {
	if off, ok := p.PayoffOffset(); ok {
		return off + 1
	}
	return -1
}

// DebtPayoffOffset returns the first month offset at which the named debt
// reaches zero.
func (p *PayoffPlan) DebtPayoffOffset(name string) (int, bool) {
	for _, m := range p.Months {
		if d, ok := m.Debt(name); ok && !d.Balance.IsPositive() {
			return m.MonthOffset, true
		}
	}
	return 0, false
}

// =============================================================================
// SIMULATOR
// =============================================================================

// Simulate runs the payoff simulation over every Current and Future month.
// netSavings is keyed by Month.Index; missing months contribute nothing.
// The plan is always recomputed from scratch.
func Simulate(debts []Debt, netSavings map[int]Value, strategy Strategy, months []Month) (*PayoffPlan, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}
	for _, d := range debts {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}

	plan := &PayoffPlan{Strategy: strategy, Starting: append([]Debt(nil), debts...)}
	if len(debts) == 0 {
		return plan, nil
	}

	current, err := CurrentMonth(months)
	if err != nil {
		return nil, err
	}

	balances := make([]Value, len(debts))
	rates := make([]Value, len(debts))
	for i, d := range debts {
		balances[i] = d.Balance
		rates[i] = d.AnnualRatePercent
	}

	for _, m := range months {
		if m.Index < current.Index {
			continue
		}

		interest := make([]Value, len(debts))
		paid := make([]Value, len(debts))
		for i := range debts {
			interest[i], paid[i] = zero, zero
			if balances[i].IsPositive() {
				interest[i] = balances[i].Mul(rates[i]).Div(monthlyRateDivisor)
				balances[i] = balances[i].Add(interest[i])
			}
		}

		available := zero
		if m.Kind != Historical {
			available = maxValue(zero, netSavings[m.Index])
		}

		for _, i := range strategy.order(balances, rates) {
			if !available.IsPositive() {
				break
			}
			if !balances[i].IsPositive() {
				continue
			}
			pay := minValue(available, balances[i])
			balances[i] = balances[i].Sub(pay)
			available = available.Sub(pay)
			paid[i] = paid[i].Add(pay)
		}

		mp := MonthPlan{
			MonthOffset:   m.Index - current.Index,
			MonthIndex:    m.Index,
			Label:         m.Label,
			PerDebt:       make([]DebtMonth, len(debts)),
			TotalPaid:     zero,
			TotalInterest: zero,
			RemainingDebt: zero,
		}
		for i, d := range debts {
			bal := maxValue(zero, balances[i])
			mp.PerDebt[i] = DebtMonth{DebtID: d.ID, Name: d.Name, Balance: bal, Paid: paid[i], Interest: interest[i]}
			mp.TotalPaid = mp.TotalPaid.Add(paid[i])
			mp.TotalInterest = mp.TotalInterest.Add(interest[i])
			mp.RemainingDebt = mp.RemainingDebt.Add(bal)
		}
		plan.Months = append(plan.Months, mp)
	}

	return plan, nil
}

// =============================================================================
// STRATEGY COMPARISON
// =============================================================================

type StrategySummary struct {
	Strategy       Strategy
	TotalInterest  Value
	TotalPaid      Value
	MonthsToPayoff int // -1 when the horizon ends first
}

type StrategyComparison struct {
	Snowball  StrategySummary
	Avalanche StrategySummary

	// InterestSaved is snowball interest minus avalanche interest.
	InterestSaved Value

	// MonthsSaved is snowball months minus avalanche months, 0 when either
	// does not finish inside the horizon.
	MonthsSaved int
}

// CompareStrategies simulates both strategies on the same inputs.
func CompareStrategies(debts []Debt, netSavings map[int]Value, months []Month) (*StrategyComparison, error) {
	summarize := func(s Strategy) (StrategySummary, error) {
		plan, err := Simulate(debts, netSavings, s, months)
		if err != nil {
			return StrategySummary{}, fmt.Errorf("simulate %s: %w", s, err)
		}
		return StrategySummary{
			Strategy:       s,
			TotalInterest:  plan.TotalInterest(),
			TotalPaid:      plan.TotalPaid(),
			MonthsToPayoff: plan.MonthsToPayoff(),
		}, nil
	}

	snowball, err := summarize(Snowball)
	if err != nil {
		return nil, err
	}
	avalanche, err := summarize(Avalanche)
	if err != nil {
		return nil, err
	}

	cmp := &StrategyComparison{
		Snowball:      snowball,
		Avalanche:     avalanche,
		InterestSaved: snowball.TotalInterest.Sub(avalanche.TotalInterest),
	}
	if snowball.MonthsToPayoff > 0 && avalanche.MonthsToPayoff > 0 {
		cmp.MonthsSaved = snowball.MonthsToPayoff - avalanche.MonthsToPayoff
	}
	return cmp, nil
}
