package planning

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// PAYOFF STRATEGIES
// =============================================================================

type Strategy string

const (
	Snowball  Strategy = "snowball"  // smallest balance first
	Avalanche Strategy = "avalanche" // highest rate first
)

// StrategyInfo is display metadata for the strategy picker. The simulator
// only ever looks at Key.
type StrategyInfo struct {
	Key         Strategy
	Name        string
	Description string
}

var strategyCatalog = []StrategyInfo{
	{
		Key:         Snowball,
		Name:        "Debt Snowball",
		Description: "Pay the smallest balance first for quick wins, then roll the payment into the next debt.",
	},
	{
		Key:         Avalanche,
		Name:        "Debt Avalanche",
		Description: "Pay the highest interest rate first to minimize total interest paid.",
	},
}

// Strategies returns the strategy catalog.
func Strategies() []StrategyInfo {
	out := make([]StrategyInfo, len(strategyCatalog))
	copy(out, strategyCatalog)
	return out
}

// ParseStrategy resolves a strategy key, case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

func (s Strategy) Validate() error {
	switch s {
	case Snowball, Avalanche:
		return nil
	default:
		return fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidStrategy, string(s), Snowball, Avalanche)
	}
}

// order returns the indices of balances/rates in payment order. Ties keep
// input order.
func (s Strategy) order(balances, rates []Value) []int {
	idx := make([]int, len(balances))
	for i := range idx {
		idx[i] = i
	}
	switch s {
	case Snowball:
		sort.SliceStable(idx, func(a, b int) bool {
			return balances[idx[a]].LessThan(balances[idx[b]])
		})
	case Avalanche:
		sort.SliceStable(idx, func(a, b int) bool {
			return rates[idx[a]].GreaterThan(rates[idx[b]])
		})
	}
	return idx
}

// OrderDebts returns debts sorted by the strategy's payment priority using
// their current balances. Ties keep input order.
func (s Strategy) OrderDebts(debts []Debt) []Debt {
	balances := make([]Value, len(debts))
	rates := make([]Value, len(debts))
	for i, d := range debts {
		balances[i] = d.Balance
		rates[i] = d.AnnualRatePercent
	}
	out := make([]Debt, 0, len(debts))
	for _, i := range s.order(balances, rates) {
		out = append(out, debts[i])
	}
	return out
}
