package planning

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - One column of the projection grid
// =============================================================================

type MonthKind int

const (
	Historical MonthKind = iota
	Current
	Future
)

func (k MonthKind) String() string {
	switch k {
	case Historical:
		return "historical"
	case Current:
		return "current"
	case Future:
		return "future"
	default:
		return fmt.Sprintf("MonthKind(%d)", int(k))
	}
}

// Month is immutable once generated for a given "now".
// Index is the position in the sequence and the join key with PayoffPlan.
type Month struct {
	Index         int
	Label         string
	Kind          MonthKind
	CalendarMonth time.Month
	CalendarYear  int
}

// SameCalendarMonth reports whether both months denote the same calendar month.
func (m Month) SameCalendarMonth(o Month) bool {
	return m.CalendarYear == o.CalendarYear && m.CalendarMonth == o.CalendarMonth
}

func (m Month) String() string { return m.Label }

const monthLabelLayout = "Jan 2006"

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// TIMELINE GENERATOR
// =============================================================================

// GenerateMonths returns historical months strictly before now's month, then
// now's month tagged Current, then future months strictly after, all in
// ascending order. The result has historical+1+future entries.
func GenerateMonths(now time.Time, historical, future int) ([]Month, error) {
	if historical < 0 || future < 0 {
		return nil, fmt.Errorf("%w: month counts must be non-negative (historical=%d, future=%d)",
			ErrInvalidConfiguration, historical, future)
	}

	anchor := startOfMonth(now)
	months := make([]Month, 0, historical+1+future)
	for offset := -historical; offset <= future; offset++ {
		t := anchor.AddDate(0, offset, 0)
		kind := Current
		switch {
		case offset < 0:
			kind = Historical
		case offset > 0:
			kind = Future
		}
		months = append(months, Month{
			Index:         len(months),
			Label:         t.Format(monthLabelLayout),
			Kind:          kind,
			CalendarMonth: t.Month(),
			CalendarYear:  t.Year(),
		})
	}
	return months, nil
}

// CurrentMonth returns the single Current month of the sequence.
func CurrentMonth(months []Month) (Month, error) {
	for _, m := range months {
		if m.Kind == Current {
			return m, nil
		}
	}
	return Month{}, fmt.Errorf("%w: no current month in %d months", ErrInvalidTimeline, len(months))
}

// =============================================================================
// CLOCK - Injected so timelines are deterministic in tests
// =============================================================================

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
