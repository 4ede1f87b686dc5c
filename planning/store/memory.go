// Package store provides in-memory planning.BudgetStore and
// planning.DebtStore implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/budget-engine/planning"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	budgets map[monthKey][]planning.BudgetEntry
	debts   []planning.Debt
}

type monthKey struct {
	Year  int
	Month int
}

func NewMemory() *Memory {
	return &Memory{budgets: make(map[monthKey][]planning.BudgetEntry)}
}

// -----------------------------------------------------------------------------
// planning.BudgetStore
// -----------------------------------------------------------------------------

// ListBudgets returns records ordered by (year, month). Entries keep the
// order they were first saved in.
func (m *Memory) ListBudgets(_ context.Context) ([]planning.BudgetRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]planning.BudgetRecord, 0, len(m.budgets))
	for k, entries := range m.budgets {
		out = append(out, planning.BudgetRecord{
			Year:    k.Year,
			Month:   k.Month,
			Entries: append([]planning.BudgetEntry(nil), entries...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

// SaveMonth upserts entry in the (year, month) record. Categories match
// case-insensitively.
func (m *Memory) SaveMonth(_ context.Context, year, month int, entry planning.BudgetEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveLocked(monthKey{Year: year, Month: month}, entry)
	return nil
}

func (m *Memory) saveLocked(k monthKey, entry planning.BudgetEntry) {
	entries := m.budgets[k]
	for i, e := range entries {
		if strings.EqualFold(e.Category, entry.Category) {
			entries[i] = entry
			return
		}
	}
	m.budgets[k] = append(entries, entry)
}

// PutBudget replaces a whole monthly record. Used to seed scenarios.
func (m *Memory) PutBudget(_ context.Context, rec planning.BudgetRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := monthKey{Year: rec.Year, Month: rec.Month}
	delete(m.budgets, k)
	for _, e := range rec.Entries {
		m.saveLocked(k, e)
	}
	return nil
}

// -----------------------------------------------------------------------------
// planning.DebtStore
// -----------------------------------------------------------------------------

// ListDebts returns debts in creation order.
func (m *Memory) ListDebts(_ context.Context) ([]planning.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]planning.Debt(nil), m.debts...), nil
}

func (m *Memory) CreateDebt(_ context.Context, in planning.DebtInput) (planning.Debt, error) {
	if err := in.Validate(); err != nil {
		return planning.Debt{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	d := planning.Debt{
		ID:                uuid.New().String(),
		Name:              in.Name,
		Balance:           in.Balance,
		AnnualRatePercent: in.AnnualRatePercent,
		Kind:              in.Kind,
	}
	m.debts = append(m.debts, d)
	return d, nil
}

func (m *Memory) UpdateDebt(_ context.Context, id string, in planning.DebtInput) (planning.Debt, error) {
	if err := in.Validate(); err != nil {
		return planning.Debt{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, d := range m.debts {
		if d.ID != id {
			continue
		}
		d.Name = in.Name
		d.Balance = in.Balance
		d.AnnualRatePercent = in.AnnualRatePercent
		d.Kind = in.Kind
		m.debts[i] = d
		return d, nil
	}
	return planning.Debt{}, planning.ErrDebtNotFound
}

func (m *Memory) DeleteDebt(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, d := range m.debts {
		if d.ID == id {
			m.debts = append(m.debts[:i], m.debts[i+1:]...)
			return nil
		}
	}
	return planning.ErrDebtNotFound
}

// Reset drops every budget and debt.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets = make(map[monthKey][]planning.BudgetEntry)
	m.debts = nil
	return nil
}
