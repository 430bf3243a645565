package generic_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workpackage-engine/generic"
)

// =============================================================================
// MONTH REPLAY
// =============================================================================

func TestReplayMonths_VisitsMonthsInOrder(t *testing.T) {
	// GIVEN: A period starting and ending mid-month
	p := generic.Period{
		Start: generic.NewTimePoint(2025, time.January, 15),
		End:   generic.NewTimePoint(2025, time.March, 10),
	}

	// WHEN: Replaying it
	var visited []string
	var indexes []int
	n := generic.ReplayMonths(p, func(k generic.MonthKey, index int) {
		visited = append(visited, k.String())
		indexes = append(indexes, index)
	})

	// THEN: Every touched month is visited once, oldest first
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03"}, visited)
	assert.Equal(t, []int{0, 1, 2}, indexes)
}

func TestReplayMonths_CrossesYearBoundary(t *testing.T) {
	p := generic.Period{
		Start: generic.NewTimePoint(2024, time.November, 1),
		End:   generic.NewTimePoint(2025, time.February, 28),
	}

	var visited []string
	generic.ReplayMonths(p, func(k generic.MonthKey, _ int) { visited = append(visited, k.String()) })

	assert.Equal(t, []string{"2024-11", "2024-12", "2025-01", "2025-02"}, visited)
}

func TestReplayMonths_InvertedPeriodVisitsNothing(t *testing.T) {
	p := generic.Period{
		Start: generic.NewTimePoint(2025, time.June, 1),
		End:   generic.NewTimePoint(2025, time.May, 31),
	}

	called := false
	n := generic.ReplayMonths(p, func(generic.MonthKey, int) { called = true })

	assert.Zero(t, n)
	assert.False(t, called)
}

func TestReplayMonths_IterationCap(t *testing.T) {
	// GIVEN: Two hundred years of months
	p := generic.Period{
		Start: generic.StartOfYear(1900),
		End:   generic.EndOfYear(2099),
	}

	var last generic.MonthKey
	n := generic.ReplayMonths(p, func(k generic.MonthKey, _ int) { last = k })

	// THEN: The walk stops after MaxMonthIterations months
	assert.Equal(t, generic.MaxMonthIterations, n)
	assert.Equal(t, "1999-12", last.String())
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		from, to generic.TimePoint
		want     int
	}{
		{generic.NewTimePoint(2025, time.January, 1), generic.NewTimePoint(2025, time.December, 31), 12},
		{generic.NewTimePoint(2025, time.January, 31), generic.NewTimePoint(2025, time.February, 1), 2},
		{generic.NewTimePoint(2025, time.March, 15), generic.NewTimePoint(2025, time.March, 16), 1},
		{generic.NewTimePoint(2024, time.July, 1), generic.NewTimePoint(2025, time.June, 30), 12},
		{generic.NewTimePoint(2025, time.June, 1), generic.NewTimePoint(2025, time.January, 1), 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s..%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, generic.MonthsBetween(tt.from, tt.to))
		})
	}
}

func TestEndOfMonth(t *testing.T) {
	assert.Equal(t, "2024-02-29", generic.EndOfMonth(2024, time.February).String())
	assert.Equal(t, "2025-02-28", generic.EndOfMonth(2025, time.February).String())
	assert.Equal(t, "2025-12-31", generic.EndOfMonth(2025, time.December).String())
}

func TestParseDate(t *testing.T) {
	tp, err := generic.ParseDate("2025-03-07")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07", tp.String())

	// A timestamp keeps its own calendar date
	tp, err = generic.ParseDate("2025-03-07T23:30:00-02:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07", tp.String())

	_, err = generic.ParseDate("07/03/2025")
	assert.Error(t, err)
}

func TestPeriod_ContainsMonth(t *testing.T) {
	p := generic.Period{
		Start: generic.NewTimePoint(2025, time.January, 15),
		End:   generic.NewTimePoint(2025, time.March, 10),
	}

	assert.True(t, p.ContainsMonth(generic.MonthKey{Year: 2025, Month: time.January}))
	assert.True(t, p.ContainsMonth(generic.MonthKey{Year: 2025, Month: time.March}))
	assert.False(t, p.ContainsMonth(generic.MonthKey{Year: 2024, Month: time.December}))
	assert.False(t, p.ContainsMonth(generic.MonthKey{Year: 2025, Month: time.April}))
	assert.False(t, p.Contains(generic.NewTimePoint(2025, time.March, 11)))
	assert.Equal(t, 3, p.MonthCount())
}

func TestMonthKey_Ordering(t *testing.T) {
	dec24 := generic.MonthKey{Year: 2024, Month: time.December}
	jan25 := dec24.Next()

	assert.Equal(t, "2025-01", jan25.String())
	assert.True(t, dec24.Before(jan25))
	assert.True(t, jan25.After(dec24))
	assert.Equal(t, 202501, jan25.Index())
	assert.Equal(t, "2025-01-31", jan25.End().String())
}

func TestZoneClock_TakesDateInLocation(t *testing.T) {
	// At UTC+14 the date is never behind UTC
	loc := time.FixedZone("UTC+14", 14*3600)

	today := generic.ZoneClock{Location: loc}.Today()
	utc := generic.ZoneClock{}.Today()

	assert.False(t, today.Before(utc))
	assert.Equal(t, "2025-04-01", generic.FixedClock(generic.NewTimePoint(2025, time.April, 1)).Today().String())
}

func TestTimePoint_TextRoundTrip(t *testing.T) {
	var tp generic.TimePoint
	require.NoError(t, tp.UnmarshalText([]byte("2025-08-09")))

	text, err := tp.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2025-08-09", string(text))

	assert.Error(t, tp.UnmarshalText([]byte("tomorrow")))
}

// =============================================================================
// QUANTITIES & ERRORS
// =============================================================================

func TestSafePercentage(t *testing.T) {
	assert.True(t, generic.SafePercentage(decimal.NewFromInt(5), decimal.Zero).IsZero())
	assert.True(t, generic.SafePercentage(decimal.NewFromInt(30), decimal.NewFromInt(120)).Equal(decimal.NewFromInt(25)))
}

func TestParseUnit(t *testing.T) {
	assert.Equal(t, generic.UnitEvents, generic.ParseUnit("eventos"))
	assert.Equal(t, generic.UnitHours, generic.ParseUnit("hours"))
	assert.Equal(t, generic.UnitHours, generic.ParseUnit("horas"))
}

func TestErrorClassification(t *testing.T) {
	enumErr := fmt.Errorf("contract: %w", &generic.EnumError{Field: "contract type", Value: "Bogus"})
	periodErr := &generic.PeriodError{PeriodID: "p", Reason: "end before start"}
	notFound := fmt.Errorf("contract x: %w", generic.ErrContractNotFound)
	dup := fmt.Errorf("review request r: %w", generic.ErrDuplicateRecord)

	assert.True(t, generic.IsClientError(enumErr))
	assert.True(t, generic.IsClientError(periodErr))
	assert.True(t, errors.Is(enumErr, generic.ErrUnknownEnum))
	assert.Contains(t, enumErr.Error(), `unknown contract type "Bogus"`)

	assert.True(t, generic.IsNotFound(notFound))
	assert.False(t, generic.IsClientError(notFound))

	assert.True(t, generic.IsConflict(dup))
	assert.False(t, generic.IsNotFound(dup))
}
