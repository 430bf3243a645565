package workpackage

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
)

// =============================================================================
// PERIOD SELECTOR
// =============================================================================

// SelectPeriod picks the active validity period:
//  1. the period whose ID equals periodID, if any
//  2. the period containing today
//  3. the first period
//  4. a synthetic zero-quantity calendar year around today
func SelectPeriod(periods []ValidityPeriod, periodID string, today generic.TimePoint) ValidityPeriod {
	if periodID != "" {
		for _, p := range periods {
			if p.ID == periodID {
				return p
			}
		}
	}

	for _, p := range periods {
		if p.Range().Contains(today) {
			return p
		}
	}

	if len(periods) > 0 {
		return periods[0]
	}

	year := generic.CalendarYear(today.Year())
	return ValidityPeriod{
		Start:         year.Start,
		End:           year.End,
		TotalQuantity: decimal.Zero,
		ScopeUnit:     generic.UnitHours,
		Synthetic:     true,
	}
}

// SortedPeriods returns a copy of periods ordered by Start ascending.
func SortedPeriods(periods []ValidityPeriod) []ValidityPeriod {
	sorted := make([]ValidityPeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}

// priorPeriods returns the periods that end before selected starts,
// oldest first.
func priorPeriods(periods []ValidityPeriod, selected ValidityPeriod) []ValidityPeriod {
	var prior []ValidityPeriod
	for _, p := range SortedPeriods(periods) {
		if p.End.Before(selected.Start) {
			prior = append(prior, p)
		}
	}
	return prior
}
