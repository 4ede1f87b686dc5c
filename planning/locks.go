package planning

import (
	"sort"
)

// =============================================================================
// LOCKED-CELL REGISTRY
// =============================================================================

// LockedCells records future cells the user edited directly. A locked cell
// is skipped by forward propagation from the Current month. The registry is
// append-only: there is no unlock.
//
// LockedCells is not safe for concurrent use; Session serializes access.
type LockedCells struct {
	cells map[int]map[string]string // month index -> category key -> category
}

func NewLockedCells() *LockedCells {
	return &LockedCells{cells: make(map[int]map[string]string)}
}

// Lock pins (month, category). Only Future months can be locked; Lock
// returns false and records nothing for any other month.
func (l *LockedCells) Lock(month Month, category string) bool {
	if month.Kind != Future {
		return false
	}
	set, ok := l.cells[month.Index]
	if !ok {
		set = make(map[string]string)
		l.cells[month.Index] = set
	}
	set[categoryKey(category)] = category
	return true
}

func (l *LockedCells) IsLocked(monthIndex int, category string) bool {
	_, ok := l.cells[monthIndex][categoryKey(category)]
	return ok
}

// LocksFor returns the locked categories of a month, sorted.
func (l *LockedCells) LocksFor(monthIndex int) []string {
	set := l.cells[monthIndex]
	out := make([]string, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of locked cells.
func (l *LockedCells) Len() int {
	n := 0
	for _, set := range l.cells {
		n += len(set)
	}
	return n
}

// All returns every locked cell keyed by month index.
func (l *LockedCells) All() map[int][]string {
	out := make(map[int][]string, len(l.cells))
	for idx := range l.cells {
		if locks := l.LocksFor(idx); len(locks) > 0 {
			out[idx] = locks
		}
	}
	return out
}

func (l *LockedCells) Clone() *LockedCells {
	out := NewLockedCells()
	for idx, set := range l.cells {
		cp := make(map[string]string, len(set))
		for k, v := range set {
			cp[k] = v
		}
		out.cells[idx] = cp
	}
	return out
}

// Remap re-keys locks from one timeline onto another by calendar month.
// Locks whose calendar month is missing from next, or is no longer a
// Future month there, are dropped.
func (l *LockedCells) Remap(prev, next []Month) *LockedCells {
	out := NewLockedCells()
	for idx, set := range l.cells {
		if idx < 0 || idx >= len(prev) {
			continue
		}
		for _, m := range next {
			if !m.SameCalendarMonth(prev[idx]) {
				continue
			}
			for _, c := range set {
				out.Lock(m, c)
			}
		}
	}
	return out
}
