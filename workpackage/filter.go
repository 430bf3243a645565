package workpackage

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
)

// =============================================================================
// INCLUSION FILTER - Which tickets/worklogs count as consumption
// =============================================================================

// Counts reports whether an issue with this type and billing mode counts
// toward consumption under the contract's inclusion flags.
//
// Evolutivo T&M issues count only with IncludeEvoTM. Evolutivo issues
// billed by estimate (issue type Evolutivo, or an estimate billing mode)
// count only with IncludeEvoEstimates. A non-empty IncludedTicketTypes
// further restricts by issue type.
func (f InclusionFlags) Counts(issueType string, mode TicketBillingMode) bool {
	switch {
	case mode.IsEvolutivoTM():
		if !f.IncludeEvoTM {
			return false
		}
	case isEvolutivo(issueType) || mode.IsEstimate():
		if !f.IncludeEvoEstimates {
			return false
		}
	}

	if len(f.IncludedTicketTypes) == 0 {
		return true
	}
	for _, t := range f.IncludedTicketTypes {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(issueType)) {
			return true
		}
	}
	return false
}

func isEvolutivo(issueType string) bool {
	return strings.EqualFold(strings.TrimSpace(issueType), IssueTypeEvolutivo)
}

// ticketCounts returns qualifying ticket counts per creation month.
func ticketCounts(tickets []Ticket, flags InclusionFlags) map[generic.MonthKey]int {
	counts := make(map[generic.MonthKey]int)
	for _, t := range tickets {
		if !flags.Counts(t.IssueType, t.BillingMode) {
			continue
		}
		counts[generic.MonthKey{Year: t.Year, Month: t.Month}]++
	}
	return counts
}

// metricsByMonth indexes consumed hours by month. Duplicate rows for the
// same month are summed.
func metricsByMonth(metrics []MonthlyMetric) map[generic.MonthKey]decimal.Decimal {
	byMonth := make(map[generic.MonthKey]decimal.Decimal)
	for _, m := range metrics {
		k := generic.MonthKey{Year: m.Year, Month: m.Month}
		byMonth[k] = byMonth[k].Add(m.ConsumedHours)
	}
	return byMonth
}
