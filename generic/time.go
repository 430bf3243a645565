package generic

import (
	"time"
)

// =============================================================================
// TIME POINT - Calendar day, normalized to UTC midnight
// =============================================================================

// TimePoint is a calendar date. All month and day boundary math in the
// engine happens on TimePoints, so a period end is inclusive through the
// whole day without any 23:59:59.999 arithmetic.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf takes the calendar date of t in t's own location.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses "2006-01-02" or an RFC3339 timestamp.
func ParseDate(s string) (TimePoint, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return TimePoint{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }
func (tp TimePoint) AddMonths(n int) TimePoint {
	return TimePoint{Time: tp.normalize().AddDate(0, n, 0)}
}

// Properties
func (tp TimePoint) Year() int          { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month  { return tp.Time.Month() }
func (tp TimePoint) Day() int           { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool       { return tp.Time.IsZero() }
func (tp TimePoint) MonthKey() MonthKey { return MonthKey{Year: tp.Year(), Month: tp.Month()} }

// FirstOfMonth drops the day component.
func (tp TimePoint) FirstOfMonth() TimePoint { return StartOfMonth(tp.Year(), tp.Month()) }

func (tp TimePoint) String() string {
	return tp.Time.Format("2006-01-02")
}

// MarshalText renders the date as YYYY-MM-DD.
func (tp TimePoint) MarshalText() ([]byte, error) {
	return []byte(tp.String()), nil
}

func (tp *TimePoint) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// MONTH KEY - (year, month) pair used to attribute records to a month
// =============================================================================

type MonthKey struct {
	Year  int
	Month time.Month
}

// Index is year*100+month, the ordering used for "up to the current month".
func (k MonthKey) Index() int { return k.Year*100 + int(k.Month) }

func (k MonthKey) Before(other MonthKey) bool { return k.Index() < other.Index() }
func (k MonthKey) After(other MonthKey) bool  { return k.Index() > other.Index() }

func (k MonthKey) Start() TimePoint { return StartOfMonth(k.Year, k.Month) }
func (k MonthKey) End() TimePoint   { return EndOfMonth(k.Year, k.Month) }
func (k MonthKey) Next() MonthKey   { return k.Start().AddMonths(1).MonthKey() }

func (k MonthKey) String() string { return k.Start().Time.Format("2006-01") }

// =============================================================================
// CLOCK - Reference instant
// =============================================================================

// Clock provides "today" in the engine's reference time zone.
type Clock interface {
	Today() TimePoint
}

// ZoneClock reads the wall clock and takes the calendar date in Location.
type ZoneClock struct {
	Location *time.Location
}

func (c ZoneClock) Today() TimePoint {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(time.Now().In(loc))
}

// FixedClock always returns the same day.
type FixedClock TimePoint

func (c FixedClock) Today() TimePoint { return TimePoint(c) }

// =============================================================================
// TIME UTILITIES
// =============================================================================

func StartOfYear(year int) TimePoint                    { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint                      { return NewTimePoint(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }
func EndOfMonth(year int, month time.Month) TimePoint {
	return TimePoint{Time: time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// MonthsBetween counts calendar months in [from, to], inclusive of both
// ends. Returns zero when to's month is before from's month.
func MonthsBetween(from, to TimePoint) int {
	n := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month()) + 1
	if n < 0 {
		return 0
	}
	return n
}
