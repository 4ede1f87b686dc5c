/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the planning model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

AMOUNTS:
  Every amount is a decimal.Decimal, serialized as a JSON string
  ("1023.12") and rounded to cents for display. Requests accept either
  JSON numbers or strings.

TYPES:
  Plan:       PlanDTO, MonthDTO, RowDTO, LockDTO, PlanTotalsDTO
  Edits:      EditCellRequest, EditCellResponse
  Payoff:     PayoffDTO, PayoffMonthDTO, DebtMonthDTO, ComparisonDTO
  Debts:      DebtDTO, DebtRequest
  Strategies: StrategyDTO, SetStrategyRequest
  Scenarios:  ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/planning"
)

const displayPlaces = 2

// =============================================================================
// PLAN
// =============================================================================

// PlanDTO is the full grid snapshot.
type PlanDTO struct {
	Generation        uint64        `json:"generation"`
	Stale             bool          `json:"stale"`
	Strategy          string        `json:"strategy"`
	CurrentMonthIndex int           `json:"current_month_index"`
	Months            []MonthDTO    `json:"months"`
	Rows              []RowDTO      `json:"rows"`
	Locks             []LockDTO     `json:"locks"`
	Totals            PlanTotalsDTO `json:"totals"`
}

type MonthDTO struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
}

// RowDTO values are aligned with PlanDTO.Months.
type RowDTO struct {
	Category string            `json:"category"`
	Kind     string            `json:"kind"`
	Editable bool              `json:"editable"`
	Values   []decimal.Decimal `json:"values"`
}

type LockDTO struct {
	MonthIndex int      `json:"month_index"`
	Categories []string `json:"categories"`
}

type PlanTotalsDTO struct {
	StartingDebt   decimal.Decimal `json:"starting_debt"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	MonthsToPayoff int             `json:"months_to_payoff"` // -1 when not paid off in the horizon
	PayoffMonth    string          `json:"payoff_month,omitempty"`
}

// =============================================================================
// EDITS
// =============================================================================

// EditCellRequest edits one cell. Value is a JSON number or string.
type EditCellRequest struct {
	MonthIndex *int      `json:"month_index"`
	Category   string    `json:"category"`
	Value      CellValue `json:"value"`
}

type EditCellResponse struct {
	Plan PlanDTO `json:"plan"`

	// Warning is set when the edit was applied but could not be persisted.
	Warning string `json:"warning,omitempty"`
}

// CellValue keeps the raw user text so the engine does all the parsing.
type CellValue string

func (v *CellValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("invalid value: %w", err)
		}
		*v = CellValue(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	*v = CellValue(data)
	return nil
}

// =============================================================================
// PAYOFF
// =============================================================================

type PayoffDTO struct {
	Strategy       string           `json:"strategy"`
	StartingDebt   decimal.Decimal  `json:"starting_debt"`
	TotalInterest  decimal.Decimal  `json:"total_interest"`
	TotalPaid      decimal.Decimal  `json:"total_paid"`
	MonthsToPayoff int              `json:"months_to_payoff"`
	Months         []PayoffMonthDTO `json:"months"`
}

type PayoffMonthDTO struct {
	Offset        int             `json:"offset"`
	MonthIndex    int             `json:"month_index"`
	Label         string          `json:"label"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	Principal     decimal.Decimal `json:"principal"`
	RemainingDebt decimal.Decimal `json:"remaining_debt"`
	Debts         []DebtMonthDTO  `json:"debts"`
}

type DebtMonthDTO struct {
	DebtID   string          `json:"debt_id,omitempty"`
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Paid     decimal.Decimal `json:"paid"`
	Interest decimal.Decimal `json:"interest"`
}

type StrategySummaryDTO struct {
	Strategy       string          `json:"strategy"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	MonthsToPayoff int             `json:"months_to_payoff"`
}

type ComparisonDTO struct {
	Snowball      StrategySummaryDTO `json:"snowball"`
	Avalanche     StrategySummaryDTO `json:"avalanche"`
	InterestSaved decimal.Decimal    `json:"interest_saved"`
	MonthsSaved   int                `json:"months_saved"`
	Recommended   string             `json:"recommended"`
}

// =============================================================================
// STRATEGIES
// =============================================================================

type StrategyDTO struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

type SetStrategyRequest struct {
	Strategy string `json:"strategy"`
}

// =============================================================================
// DEBTS
// =============================================================================

type DebtDTO struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Balance           decimal.Decimal `json:"balance"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	Kind              string          `json:"kind,omitempty"`
}

type DebtRequest struct {
	Name              string          `json:"name"`
	Balance           decimal.Decimal `json:"balance"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	Kind              string          `json:"kind"`
}

type DebtResponse struct {
	Debt DebtDTO  `json:"debt"`
	Plan *PlanDTO `json:"plan,omitempty"`
}

// =============================================================================
// SCENARIOS & STATUS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Debts       int    `json:"debts"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type StatusDTO struct {
	Generation     uint64  `json:"generation"`
	CurrentMonth   string  `json:"current_month"`
	Strategy       string  `json:"strategy"`
	Scenario       string  `json:"scenario,omitempty"`
	LastRolloverAt *string `json:"last_rollover_at,omitempty"`
	LastRolloverOK *bool   `json:"last_rollover_ok,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func round(v decimal.Decimal) decimal.Decimal { return v.Round(displayPlaces) }

func toPlanDTO(snap *planning.Snapshot) PlanDTO {
	g := snap.Grid
	months := g.Months()

	dto := PlanDTO{
		Generation:        snap.Generation,
		Stale:             snap.Stale,
		Strategy:          string(snap.Strategy),
		CurrentMonthIndex: g.CurrentMonth().Index,
		Months:            make([]MonthDTO, len(months)),
		Locks:             []LockDTO{},
	}
	for i, m := range months {
		dto.Months[i] = MonthDTO{
			Index: m.Index,
			Label: m.Label,
			Kind:  m.Kind.String(),
			Year:  m.CalendarYear,
			Month: int(m.CalendarMonth),
		}
	}

	rows := g.Rows()
	dto.Rows = make([]RowDTO, len(rows))
	for i, r := range rows {
		values := make([]decimal.Decimal, len(months))
		for j, m := range months {
			values[j] = round(r.Value(m.Index))
		}
		dto.Rows[i] = RowDTO{
			Category: r.Category,
			Kind:     string(r.Kind),
			Editable: r.Kind.Editable(),
			Values:   values,
		}
	}

	for _, m := range months {
		if cats, ok := snap.Locks[m.Index]; ok && len(cats) > 0 {
			dto.Locks = append(dto.Locks, LockDTO{MonthIndex: m.Index, Categories: cats})
		}
	}

	dto.Totals = PlanTotalsDTO{MonthsToPayoff: -1}
	if snap.Plan != nil {
		dto.Totals.StartingDebt = round(planning.TotalBalance(snap.Plan.Starting))
		dto.Totals.TotalInterest = round(snap.Plan.TotalInterest())
		dto.Totals.TotalPaid = round(snap.Plan.TotalPaid())
		dto.Totals.MonthsToPayoff = snap.Plan.MonthsToPayoff()
		if off, ok := snap.Plan.PayoffOffset(); ok {
			if mp, ok := snap.Plan.Month(off); ok {
				dto.Totals.PayoffMonth = mp.Label
			}
		}
	}
	return dto
}

func toPayoffDTO(plan *planning.PayoffPlan) PayoffDTO {
	dto := PayoffDTO{
		Strategy:       string(plan.Strategy),
		StartingDebt:   round(planning.TotalBalance(plan.Starting)),
		TotalInterest:  round(plan.TotalInterest()),
		TotalPaid:      round(plan.TotalPaid()),
		MonthsToPayoff: plan.MonthsToPayoff(),
		Months:         make([]PayoffMonthDTO, len(plan.Months)),
	}
	for i, mp := range plan.Months {
		debts := make([]DebtMonthDTO, len(mp.PerDebt))
		for j, dm := range mp.PerDebt {
			debts[j] = DebtMonthDTO{
				DebtID:   dm.DebtID,
				Name:     dm.Name,
				Balance:  round(dm.Balance),
				Paid:     round(dm.Paid),
				Interest: round(dm.Interest),
			}
		}
		dto.Months[i] = PayoffMonthDTO{
			Offset:        mp.MonthOffset,
			MonthIndex:    mp.MonthIndex,
			Label:         mp.Label,
			TotalPaid:     round(mp.TotalPaid),
			TotalInterest: round(mp.TotalInterest),
			Principal:     round(mp.Principal()),
			RemainingDebt: round(mp.RemainingDebt),
			Debts:         debts,
		}
	}
	return dto
}

func toSummaryDTO(s planning.StrategySummary) StrategySummaryDTO {
	return StrategySummaryDTO{
		Strategy:       string(s.Strategy),
		TotalInterest:  round(s.TotalInterest),
		TotalPaid:      round(s.TotalPaid),
		MonthsToPayoff: s.MonthsToPayoff,
	}
}

func toComparisonDTO(c *planning.StrategyComparison) ComparisonDTO {
	recommended := planning.Snowball
	if c.InterestSaved.IsPositive() {
		recommended = planning.Avalanche
	}
	return ComparisonDTO{
		Snowball:      toSummaryDTO(c.Snowball),
		Avalanche:     toSummaryDTO(c.Avalanche),
		InterestSaved: round(c.InterestSaved),
		MonthsSaved:   c.MonthsSaved,
		Recommended:   string(recommended),
	}
}

func toDebtDTO(d planning.Debt) DebtDTO {
	return DebtDTO{
		ID:                d.ID,
		Name:              d.Name,
		Balance:           d.Balance,
		AnnualRatePercent: d.AnnualRatePercent,
		Kind:              d.Kind,
	}
}

func (r DebtRequest) input() planning.DebtInput {
	return planning.DebtInput{
		Name:              r.Name,
		Balance:           r.Balance,
		AnnualRatePercent: r.AnnualRatePercent,
		Kind:              r.Kind,
	}
}

func formatTime(t time.Time) *string {
	s := t.Format(time.RFC3339)
	return &s
}
