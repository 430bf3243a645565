package workpackage

import (
	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
)

// KPIs are the headline totals of a period's evolution.
type KPIs struct {
	TotalScope       decimal.Decimal
	BilledAmount     decimal.Decimal
	TotalConsumed    decimal.Decimal
	InitialBalance   decimal.Decimal
	Remaining        decimal.Decimal
	Percentage       decimal.Decimal
	BilledPercentage decimal.Decimal
}

// SummarizeKPIs reduces the monthly rows. initial is the carryover balance
// of the contract's variant. Billed amounts include the current month.
func SummarizeKPIs(rows []MonthRow, initial decimal.Decimal, today generic.TimePoint) KPIs {
	current := today.MonthKey()
	k := KPIs{InitialBalance: initial}

	for _, r := range rows {
		billable := r.Contracted.Add(r.Regularization)
		k.TotalScope = k.TotalScope.Add(billable)
		k.TotalConsumed = k.TotalConsumed.Add(r.Consumed)
		if !r.Key().After(current) {
			k.BilledAmount = k.BilledAmount.Add(billable)
		}
	}

	k.Remaining = k.BilledAmount.Add(initial).Sub(k.TotalConsumed)
	k.Percentage = generic.SafePercentage(k.TotalConsumed, k.TotalScope.Add(initial))
	k.BilledPercentage = generic.SafePercentage(k.BilledAmount, k.TotalScope)
	return k
}
