package generic

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive calendar range [Start, End].
//
// Examples:
//   - Calendar year 2025: Jan 1 - Dec 31
//   - Contract renewal: Mar 15 2024 - Mar 14 2025
type Period struct {
	Start TimePoint
	End   TimePoint
}

// CalendarYear returns Jan 1 - Dec 31 of the given year.
func CalendarYear(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Contains returns true if the day is within the period [Start, End].
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// ContainsMonth reports whether the month key lies in the period's month span.
func (p Period) ContainsMonth(k MonthKey) bool {
	return !k.Before(p.Start.MonthKey()) && !k.After(p.End.MonthKey())
}

// IsValid reports whether End is not before Start.
func (p Period) IsValid() bool {
	return !p.End.Before(p.Start)
}

// MonthCount is the number of calendar months the period touches.
func (p Period) MonthCount() int {
	return MonthsBetween(p.Start, p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
