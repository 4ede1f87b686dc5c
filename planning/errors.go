/*
errors.go - Error taxonomy of the planning engine

PURPOSE:
  All engine failures are local validation failures. The controller
  recovers by surfacing a message and leaving prior state untouched;
  none of these should ever crash the process.

ERROR CATEGORIES:
  1. Timeline errors   - InvalidConfiguration, InvalidTimeline
  2. Edit errors       - ReadOnlyCell, InvalidValue
  3. Simulation errors - InvalidStrategy, InvalidDebt
  4. Collaborator errors - DebtNotFound, Persistence (wrapping store errors)
  5. Session errors    - NotLoaded

USAGE:
  if errors.Is(err, planning.ErrReadOnlyCell) {
      // tell the user historical months cannot be edited
  }
*/
package planning

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfiguration is returned for bad timeline parameters.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidTimeline is returned when a month sequence has no current
	// month, or a month index falls outside the sequence.
	ErrInvalidTimeline = errors.New("invalid timeline")

	// ErrReadOnlyCell is returned for edits targeting a historical month or
	// a calculated row.
	ErrReadOnlyCell = errors.New("read-only cell")

	// ErrInvalidValue is returned when an edit value is not a finite number.
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidStrategy is returned for an unknown payoff strategy key.
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrInvalidDebt is returned when a debt has a negative balance or rate.
	ErrInvalidDebt = errors.New("invalid debt")

	// ErrDebtNotFound is returned by debt stores for an unknown ID.
	ErrDebtNotFound = errors.New("debt not found")

	// ErrPersistence wraps failures reported by the budget or debt store.
	ErrPersistence = errors.New("persistence failed")

	// ErrNotLoaded is returned by Session operations before the first Load.
	ErrNotLoaded = errors.New("session not loaded")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// CellError identifies the cell an edit was rejected for.
type CellError struct {
	MonthIndex int
	Category   string
	Err        error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell (%d, %q): %v", e.MonthIndex, e.Category, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrInvalidTimeline) ||
		errors.Is(err, ErrReadOnlyCell) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrInvalidStrategy) ||
		errors.Is(err, ErrInvalidDebt)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDebtNotFound)
}
