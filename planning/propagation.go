/*
propagation.go - Edit propagation engine

PURPOSE:
  Decides which cells change when the user edits one cell, then recomputes
  Net Savings. This is the only way user input reaches a Grid.

RULES (order matters):
  1. Write the value. Unknown, non-reserved categories become a new
     additional-income row after the primary income row.
  2. A Future edit locks (month, category).
  3. A Current edit propagates forward to every Future month that is not
     locked for the category, and mirrors into every Historical month.
  4. Net Savings is recomputed.

REJECTIONS (grid and locks untouched):
  - Historical month or calculated row -> ErrReadOnlyCell
  - month index outside the timeline   -> ErrInvalidTimeline
  - non-numeric input (ParseValue)     -> ErrInvalidValue

EXAMPLE:
  v, err := planning.ParseValue("1 250,50")   // ErrInvalidValue: inner space
  v, err := planning.ParseValue("1250,50")    // 1250.50
  res, err := planning.ApplyEdit(grid, locks, current.Index, "Housing", v)
  grid = res.Grid
*/
package planning

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EditResult describes what an edit changed.
type EditResult struct {
	Grid *Grid

	// Category is the resolved category name (canonical for new rows).
	Category string

	// Written lists every month index whose cell was set, ascending.
	Written []int

	// Created is true when the edit synthesized a new row.
	Created bool

	// Locked is true when the edit pinned a Future cell.
	Locked bool
}

// ParseValue converts user input into a Value. Both "." and "," are
// accepted as decimal separator; a leading sign is allowed. Empty input,
// NaN, infinities and anything else non-numeric fail with ErrInvalidValue,
// and so does "1,000", which reads as a thousands separator.
func ParseValue(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return zero, fmt.Errorf("%w: empty input", ErrInvalidValue)
	}
	if looksGrouped(s) {
		return zero, fmt.Errorf("%w: %q is ambiguous, write it without a thousands separator", ErrInvalidValue, raw)
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return zero, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, raw)
	}
	return v, nil
}

// looksGrouped reports whether s has a single comma that could separate
// thousands: 1-3 leading digits (no leading zero) then exactly 3 digits.
func looksGrouped(s string) bool {
	if strings.Count(s, ",") != 1 || strings.Contains(s, ".") {
		return false
	}
	whole, frac, _ := strings.Cut(strings.TrimLeft(s, "+-"), ",")
	if len(whole) < 1 || len(whole) > 3 || whole[0] == '0' || len(frac) != 3 {
		return false
	}
	return isDigits(whole) && isDigits(frac)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ApplyEdit writes value into (monthIndex, category) and propagates it.
// The input grid and locks are left unchanged when an error is returned.
func ApplyEdit(g *Grid, locks *LockedCells, monthIndex int, category string, value Value) (*EditResult, error) {
	month, ok := g.Month(monthIndex)
	if !ok {
		return nil, &CellError{MonthIndex: monthIndex, Category: category,
			Err: fmt.Errorf("%w: month index out of range [0,%d)", ErrInvalidTimeline, len(g.months))}
	}
	if month.Kind == Historical {
		return nil, &CellError{MonthIndex: monthIndex, Category: category,
			Err: fmt.Errorf("%w: %s is historical", ErrReadOnlyCell, month.Label)}
	}
	if strings.TrimSpace(category) == "" {
		return nil, &CellError{MonthIndex: monthIndex, Category: category,
			Err: fmt.Errorf("%w: empty category", ErrInvalidValue)}
	}
	if existing := g.rowFor(category); (existing != nil && !existing.Kind.Editable()) || isReserved(category) {
		return nil, &CellError{MonthIndex: monthIndex, Category: category,
			Err: fmt.Errorf("%w: %q is calculated", ErrReadOnlyCell, category)}
	}

	out := g.Clone()
	row, created := out.ensureAdditionalIncome(category)
	row.Values[monthIndex] = value
	res := &EditResult{Grid: out, Category: row.Category, Written: []int{monthIndex}, Created: created}

	if month.Kind == Future {
		res.Locked = locks.Lock(month, row.Category)
	}

	if month.Kind == Current {
		var written []int
		for _, m := range out.months {
			switch {
			case m.Kind == Historical:
				row.Values[m.Index] = value
				written = append(written, m.Index)
			case m.Kind == Future && m.Index > monthIndex && !locks.IsLocked(m.Index, row.Category):
				row.Values[m.Index] = value
				written = append(written, m.Index)
			}
		}
		res.Written = mergeSorted(res.Written, written)
	}

	out.recomputeNetSavings()
	return res, nil
}

func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
