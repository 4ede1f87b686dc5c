/*
Package factory provides TOML/JSON to Go scenario conversion.

PURPOSE:
  Converts scenario files (timeline parameters, monthly budgets, debts and
  a strategy) into validated planning inputs. Scenarios drive the demo
  loader of the API server and the `planner simulate` command.

TOML SCHEMA:
  id = "starter-household"
  name = "Starter Household"
  now = "2025-03"            # optional; pins the current month
  historical_months = 3      # optional
  future_months = 12         # optional
  strategy = "snowball"      # optional

  [[budgets]]
  offset = 0                 # months from the current month, or:
  # month = "2025-03"
  [[budgets.entries]]
  category = "Income"
  amount = 4200
  [[budgets.entries]]
  category = "Housing"       # kind defaults to expense
  amount = "1450.00"

  [[debts]]
  name = "Visa"
  balance = 1200
  annual_rate = 19.99
  kind = "credit_card"

The JSON form uses the same keys.

KIND DEFAULTS:
  "Income"  -> income
  "Savings" -> savings
  anything else -> expense

USAGE:
  sc, err := factory.LoadScenarioFile("plans/household.toml")
  store := store.NewMemory()
  err = sc.Seed(ctx, store, clock.Now())
  session := planning.NewSession(sc.SessionConfig(base), store, store,
      planning.WithClock(sc.Clock(planning.SystemClock{})))

SEE ALSO:
  - factory/presets.go: Built-in demo scenarios
  - planning/session.go: Consumer of the parsed inputs
*/
package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/planning"
)

// =============================================================================
// FILE SCHEMA TYPES
// =============================================================================

// ScenarioFile is the serialized form of a scenario.
type ScenarioFile struct {
	ID                string       `toml:"id" json:"id"`
	Name              string       `toml:"name" json:"name"`
	Description       string       `toml:"description" json:"description,omitempty"`
	Now               string       `toml:"now" json:"now,omitempty"` // YYYY-MM or RFC3339
	HistoricalMonths  *int         `toml:"historical_months" json:"historical_months,omitempty"`
	FutureMonths      *int         `toml:"future_months" json:"future_months,omitempty"`
	Strategy          string       `toml:"strategy" json:"strategy,omitempty"`
	ExpenseCategories []string     `toml:"expense_categories" json:"expense_categories,omitempty"`
	Budgets           []BudgetFile `toml:"budgets" json:"budgets,omitempty"`
	Debts             []DebtFile   `toml:"debts" json:"debts,omitempty"`
}

// BudgetFile is one month. Exactly one of Month and Offset is set.
type BudgetFile struct {
	Month   string      `toml:"month" json:"month,omitempty"` // YYYY-MM
	Offset  *int        `toml:"offset" json:"offset,omitempty"`
	Entries []EntryFile `toml:"entries" json:"entries"`
}

type EntryFile struct {
	Category string          `toml:"category" json:"category"`
	Kind     string          `toml:"kind" json:"kind,omitempty"`
	Amount   decimal.Decimal `toml:"amount" json:"amount"`
}

type DebtFile struct {
	Name       string          `toml:"name" json:"name"`
	Balance    decimal.Decimal `toml:"balance" json:"balance"`
	AnnualRate decimal.Decimal `toml:"annual_rate" json:"annual_rate"`
	Kind       string          `toml:"kind" json:"kind,omitempty"`
}

// =============================================================================
// PARSED SCENARIO
// =============================================================================

// Scenario is a validated scenario. Budgets with an offset are resolved
// against "now" when records are requested.
type Scenario struct {
	ID          string
	Name        string
	Description string

	// Now pins the clock; zero means use the caller's clock.
	Now time.Time

	HistoricalMonths  *int
	FutureMonths      *int
	Strategy          planning.Strategy // empty keeps the caller's default
	ExpenseCategories []string

	budgets []monthBudget
	Debts   []planning.DebtInput
}

type monthBudget struct {
	year, month int
	offset      *int
	entries     []planning.BudgetEntry
}

// ParseScenarioTOML parses a TOML scenario.
func ParseScenarioTOML(data []byte) (*Scenario, error) {
	var sf ScenarioFile
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&sf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown scenario keys %v", planning.ErrInvalidConfiguration, undecoded)
	}
	return FromFile(sf)
}

// ParseScenarioJSON parses a JSON scenario.
func ParseScenarioJSON(data []byte) (*Scenario, error) {
	var sf ScenarioFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("failed to parse scenario JSON: %w", err)
	}
	return FromFile(sf)
}

// LoadScenarioFile reads a .toml or .json scenario.
func LoadScenarioFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseScenarioJSON(data)
	case ".toml", "":
		return ParseScenarioTOML(data)
	default:
		return nil, fmt.Errorf("%w: unsupported scenario format %q", planning.ErrInvalidConfiguration, filepath.Ext(path))
	}
}

// FromFile validates a ScenarioFile.
func FromFile(sf ScenarioFile) (*Scenario, error) {
	sc := &Scenario{
		ID:                sf.ID,
		Name:              sf.Name,
		Description:       sf.Description,
		HistoricalMonths:  sf.HistoricalMonths,
		FutureMonths:      sf.FutureMonths,
		ExpenseCategories: sf.ExpenseCategories,
	}
	if sc.Name == "" {
		sc.Name = sc.ID
	}

	if sf.Now != "" {
		now, err := parseNow(sf.Now)
		if err != nil {
			return nil, err
		}
		sc.Now = now
	}
	if sf.HistoricalMonths != nil && *sf.HistoricalMonths < 0 {
		return nil, fmt.Errorf("%w: historical_months must be non-negative", planning.ErrInvalidConfiguration)
	}
	if sf.FutureMonths != nil && *sf.FutureMonths < 0 {
		return nil, fmt.Errorf("%w: future_months must be non-negative", planning.ErrInvalidConfiguration)
	}
	if sf.Strategy != "" {
		st, err := planning.ParseStrategy(sf.Strategy)
		if err != nil {
			return nil, err
		}
		sc.Strategy = st
	}

	for i, bf := range sf.Budgets {
		mb, err := parseBudget(bf)
		if err != nil {
			return nil, fmt.Errorf("budget %d: %w", i, err)
		}
		sc.budgets = append(sc.budgets, mb)
	}

	for i, df := range sf.Debts {
		in := planning.DebtInput{
			Name:              strings.TrimSpace(df.Name),
			Balance:           df.Balance,
			AnnualRatePercent: df.AnnualRate,
			Kind:              df.Kind,
		}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("debt %d: %w", i, err)
		}
		sc.Debts = append(sc.Debts, in)
	}

	return sc, nil
}

func parseNow(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: now %q must be YYYY-MM or RFC3339", planning.ErrInvalidConfiguration, s)
}

func parseBudget(bf BudgetFile) (monthBudget, error) {
	var mb monthBudget
	switch {
	case bf.Month != "" && bf.Offset != nil:
		return mb, fmt.Errorf("%w: set either month or offset, not both", planning.ErrInvalidConfiguration)
	case bf.Month != "":
		t, err := time.Parse("2006-01", bf.Month)
		if err != nil {
			return mb, fmt.Errorf("%w: month %q must be YYYY-MM", planning.ErrInvalidConfiguration, bf.Month)
		}
		mb.year, mb.month = t.Year(), int(t.Month())
	case bf.Offset != nil:
		off := *bf.Offset
		mb.offset = &off
	default:
		return mb, fmt.Errorf("%w: month or offset is required", planning.ErrInvalidConfiguration)
	}

	for _, ef := range bf.Entries {
		kind, err := parseKind(ef.Category, ef.Kind)
		if err != nil {
			return mb, err
		}
		mb.entries = append(mb.entries, planning.BudgetEntry{
			Category: planning.CanonicalCategory(ef.Category),
			Kind:     kind,
			Amount:   ef.Amount,
		})
	}
	return mb, nil
}

func parseKind(category, kind string) (planning.RowKind, error) {
	if strings.TrimSpace(category) == "" {
		return "", fmt.Errorf("%w: entry category is empty", planning.ErrInvalidValue)
	}
	if kind != "" {
		k := planning.RowKind(strings.ToLower(kind))
		if !k.Editable() {
			return "", fmt.Errorf("%w: entry kind %q is not editable", planning.ErrInvalidValue, kind)
		}
		return k, nil
	}
	switch {
	case strings.EqualFold(category, planning.CategoryIncome):
		return planning.RowIncome, nil
	case strings.EqualFold(category, planning.CategorySavings):
		return planning.RowSavings, nil
	default:
		return planning.RowExpense, nil
	}
}

// =============================================================================
// CONVERSION TO PLANNING INPUTS
// =============================================================================

// Budgets resolves every month against now. Later duplicates of the same
// calendar month replace earlier ones.
func (sc *Scenario) Budgets(now time.Time) []planning.BudgetRecord {
	if !sc.Now.IsZero() {
		now = sc.Now
	}
	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var out []planning.BudgetRecord
	index := make(map[[2]int]int)
	for _, mb := range sc.budgets {
		year, month := mb.year, mb.month
		if mb.offset != nil {
			t := base.AddDate(0, *mb.offset, 0)
			year, month = t.Year(), int(t.Month())
		}
		rec := planning.BudgetRecord{
			Year:    year,
			Month:   month,
			Entries: append([]planning.BudgetEntry(nil), mb.entries...),
		}
		key := [2]int{year, month}
		if i, ok := index[key]; ok {
			out[i] = rec
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}
	return out
}

// SessionConfig overlays the scenario's timeline settings on base.
func (sc *Scenario) SessionConfig(base planning.SessionConfig) planning.SessionConfig {
	if sc.HistoricalMonths != nil {
		base.HistoricalMonths = *sc.HistoricalMonths
	}
	if sc.FutureMonths != nil {
		base.FutureMonths = *sc.FutureMonths
	}
	if sc.Strategy != "" {
		base.Strategy = sc.Strategy
	}
	if sc.ExpenseCategories != nil {
		base.ExpenseCategories = append([]string(nil), sc.ExpenseCategories...)
	}
	return base
}

// Clock returns a fixed clock when the scenario pins "now".
func (sc *Scenario) Clock(fallback planning.Clock) planning.Clock {
	if sc.Now.IsZero() {
		return fallback
	}
	return planning.FixedClock{At: sc.Now}
}

// Seeder is a store that can be reset and bulk-loaded.
type Seeder interface {
	Reset(ctx context.Context) error
	PutBudget(ctx context.Context, rec planning.BudgetRecord) error
	CreateDebt(ctx context.Context, in planning.DebtInput) (planning.Debt, error)
}

// Seed resets the store and writes the scenario's budgets and debts.
func (sc *Scenario) Seed(ctx context.Context, s Seeder, now time.Time) error {
	if err := s.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	for _, rec := range sc.Budgets(now) {
		if err := s.PutBudget(ctx, rec); err != nil {
			return fmt.Errorf("failed to seed budget %d-%02d: %w", rec.Year, rec.Month, err)
		}
	}
	for _, in := range sc.Debts {
		if _, err := s.CreateDebt(ctx, in); err != nil {
			return fmt.Errorf("failed to seed debt %s: %w", in.Name, err)
		}
	}
	return nil
}
