/*
ledger.go - Month-by-month replay of a period

PURPOSE:
  Every balance the engine reports is built by walking a period one
  calendar month at a time: the visible monthly evolution, the silent
  replay of earlier periods for carryover, and the event-count variant of
  both. ReplayMonths is that walk, written once.

CRITICAL INVARIANTS:
  1. ORDERED: Months are visited oldest first, exactly once each
  2. NORMALIZED: The first month is the month of Start, regardless of day
  3. BOUNDED: At most MaxMonthIterations months are visited; anything
     beyond is silently dropped
  4. EMPTY ON INVERTED RANGES: End before Start visits nothing

EXAMPLE FLOW:
  Period 2025-01-15 .. 2025-03-10 visits 2025-01, 2025-02, 2025-03
  with indexes 0, 1, 2.

SEE ALSO:
  - period.go: Period type
  - workpackage/ledger.go: Standard and Eventos month rules built on this
*/
package generic

// MaxMonthIterations bounds ReplayMonths against pathological date ranges
// (about a hundred years of months).
const MaxMonthIterations = 1200

// MonthStep is invoked once per visited month. index is zero-based.
type MonthStep func(month MonthKey, index int)

// ReplayMonths visits every calendar month of p in order and returns the
// number of months visited.
func ReplayMonths(p Period, step MonthStep) int {
	if !p.IsValid() {
		return 0
	}

	current := p.Start.FirstOfMonth()
	visited := 0
	for current.BeforeOrEqual(p.End) && visited < MaxMonthIterations {
		step(current.MonthKey(), visited)
		visited++
		current = current.AddMonths(1)
	}
	return visited
}
