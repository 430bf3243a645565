package workpackage

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// TICKET CONSUMPTION REPORT - Worklog hours grouped by ticket
// =============================================================================

const (
	defaultTicketStatus   = "N/A"
	defaultTicketPriority = "Media"
)

// MonthHours is one month of a ticket's breakdown.
type MonthHours struct {
	Year  int
	Month time.Month
	Hours decimal.Decimal
}

// TicketConsumption is the consumption of one ticket over a period.
type TicketConsumption struct {
	IssueKey      string
	Summary       string
	IssueType     string
	BillingMode   TicketBillingMode
	Status        string
	Priority      string
	SLAResponse   string
	SLAResolution string

	TotalHours       decimal.Decimal
	ClaimedHours     decimal.Decimal // counted hours sitting in a pending review request
	MonthlyBreakdown []MonthHours
}

// TicketReport is the ticket-centric view of a period.
type TicketReport struct {
	ContractID     string
	SelectedPeriod ValidityPeriod
	Tickets        []TicketConsumption
	TotalHours     decimal.Decimal
	RefundedHours  decimal.Decimal
}

// BuildTicketReport groups the period's qualifying worklogs by ticket,
// leaving out worklogs refunded through an approved review request.
// Tickets are ordered by total hours, largest first. A nil contract
// yields nil.
func BuildTicketReport(
	c *Contract,
	worklogs []WorklogDetail,
	reviews []ReviewRequest,
	periodID string,
	today generic.TimePoint,
	log *zap.Logger,
) *TicketReport {
	if c == nil {
		return nil
	}

	selected := SelectPeriod(SortedPeriods(c.Periods), periodID, today)
	span := selected.Range()
	review := IndexReviewRequests(reviews, log)

	lookup := make(map[string]Ticket, len(c.Tickets))
	for _, t := range c.Tickets {
		lookup[t.IssueKey] = t
	}

	report := &TicketReport{
		ContractID:     c.ID,
		SelectedPeriod: selected,
		Tickets:        []TicketConsumption{},
	}
	byKey := make(map[string]*TicketConsumption)
	months := make(map[string]map[generic.MonthKey]decimal.Decimal)

	for _, w := range worklogs {
		k := w.MonthKey()
		if !span.IsValid() || !span.ContainsMonth(k) {
			continue
		}

		ticket, known := lookup[w.IssueKey]
		issueType, mode := w.IssueType, w.BillingMode
		if issueType == "" && known {
			issueType = ticket.IssueType
		}
		if mode == ModeUnknown && known {
			mode = ticket.BillingMode
		}
		if !c.Inclusion.Counts(issueType, mode) {
			continue
		}

		fp := Fingerprint(w)
		if review.Refunded[fp] {
			report.RefundedHours = report.RefundedHours.Add(w.TimeSpentHours)
			continue
		}

		tc, ok := byKey[w.IssueKey]
		if !ok {
			tc = newTicketConsumption(w.IssueKey, issueType, mode, ticket, known)
			byKey[w.IssueKey] = tc
			months[w.IssueKey] = make(map[generic.MonthKey]decimal.Decimal)
		}
		tc.TotalHours = tc.TotalHours.Add(w.TimeSpentHours)
		if review.Claimed[fp] {
			tc.ClaimedHours = tc.ClaimedHours.Add(w.TimeSpentHours)
		}
		months[w.IssueKey][k] = months[w.IssueKey][k].Add(w.TimeSpentHours)
		report.TotalHours = report.TotalHours.Add(w.TimeSpentHours)
	}

	for key, tc := range byKey {
		tc.MonthlyBreakdown = monthBreakdown(months[key])
		report.Tickets = append(report.Tickets, *tc)
	}
	sort.Slice(report.Tickets, func(i, j int) bool {
		a, b := report.Tickets[i], report.Tickets[j]
		if !a.TotalHours.Equal(b.TotalHours) {
			return a.TotalHours.GreaterThan(b.TotalHours)
		}
		return a.IssueKey < b.IssueKey
	})
	return report
}

func newTicketConsumption(issueKey, issueType string, mode TicketBillingMode, t Ticket, known bool) *TicketConsumption {
	tc := &TicketConsumption{
		IssueKey:    issueKey,
		IssueType:   issueType,
		BillingMode: mode,
		Status:      defaultTicketStatus,
		Priority:    defaultTicketPriority,
	}
	if !known {
		return tc
	}
	tc.Summary = t.Summary
	tc.SLAResponse = t.SLAResponse
	tc.SLAResolution = t.SLAResolution
	if t.Status != "" {
		tc.Status = t.Status
	}
	if t.Priority != "" {
		tc.Priority = t.Priority
	}
	return tc
}

func monthBreakdown(byMonth map[generic.MonthKey]decimal.Decimal) []MonthHours {
	out := make([]MonthHours, 0, len(byMonth))
	for k, h := range byMonth {
		out = append(out, MonthHours{Year: k.Year, Month: k.Month, Hours: h})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Year*100+int(out[i].Month) < out[j].Year*100+int(out[j].Month)
	})
	return out
}
