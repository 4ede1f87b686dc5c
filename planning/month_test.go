package planning

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMonths(t *testing.T) {
	now := time.Date(2025, time.January, 31, 23, 59, 0, 0, time.UTC)

	months, err := GenerateMonths(now, 2, 3)
	require.NoError(t, err)
	require.Len(t, months, 6)

	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = m.Label
		assert.Equal(t, i, m.Index)
	}
	assert.Equal(t, []string{"Nov 2024", "Dec 2024", "Jan 2025", "Feb 2025", "Mar 2025", "Apr 2025"}, labels)

	assert.Equal(t, Historical, months[0].Kind)
	assert.Equal(t, Historical, months[1].Kind)
	assert.Equal(t, Current, months[2].Kind)
	assert.Equal(t, Future, months[3].Kind)
	assert.Equal(t, time.February, months[3].CalendarMonth, "end-of-month now does not skip February")
}

func TestGenerateMonths_Bounds(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	months, err := GenerateMonths(now, 0, 0)
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.Equal(t, Current, months[0].Kind)

	_, err = GenerateMonths(now, -1, 3)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	_, err = GenerateMonths(now, 3, -1)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestCurrentMonth(t *testing.T) {
	months, err := GenerateMonths(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), 3, 12)
	require.NoError(t, err)

	cur, err := CurrentMonth(months)
	require.NoError(t, err)
	assert.Equal(t, 3, cur.Index)
	assert.Equal(t, "Mar 2025", cur.Label)

	_, err = CurrentMonth(months[:3])
	assert.True(t, errors.Is(err, ErrInvalidTimeline))
}

func TestMonthKind_String(t *testing.T) {
	assert.Equal(t, "historical", Historical.String())
	assert.Equal(t, "current", Current.String())
	assert.Equal(t, "future", Future.String())
	assert.Equal(t, "MonthKind(7)", MonthKind(7).String())
}
