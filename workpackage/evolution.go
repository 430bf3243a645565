package workpackage

import (
	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
)

// Evolution is the read-only reconciliation of one validity period.
type Evolution struct {
	ContractID   string
	ContractName string
	ContractType ContractType
	Billing      BillingType
	Unit         generic.Unit
	AsOf         generic.TimePoint

	Periods        []ValidityPeriod
	SelectedPeriod ValidityPeriod

	// InitialBalance is the hour-pool carryover shown on the first row.
	// Eventos contracts leave it zero and use EventInitialBalance.
	InitialBalance      decimal.Decimal
	EventInitialBalance decimal.Decimal

	Months   []MonthRow
	KPIs     KPIs
	Forecast *Forecast
}

// BuildEvolution computes the evolution of the period chosen by periodID
// (see SelectPeriod) as of today. A nil contract yields nil.
func BuildEvolution(c *Contract, periodID string, today generic.TimePoint) *Evolution {
	if c == nil {
		return nil
	}

	periods := SortedPeriods(c.Periods)
	selected := SelectPeriod(periods, periodID, today)

	e := &Evolution{
		ContractID:     c.ID,
		ContractName:   c.Name,
		ContractType:   c.Type,
		Billing:        c.Billing,
		Unit:           c.Unit(),
		AsOf:           today,
		Periods:        periods,
		SelectedPeriod: selected,
	}

	var kpiInitial decimal.Decimal
	if c.Type.IsEvents() {
		e.EventInitialBalance = EventsInitialBalance(c, selected, today)
		e.Months = BuildEventsLedger(c, selected, today)
		kpiInitial = e.EventInitialBalance
	} else {
		e.InitialBalance = StandardInitialBalance(c, selected, today)
		e.Months = BuildStandardLedger(c, selected, e.InitialBalance, today)
		kpiInitial = e.InitialBalance
	}

	e.KPIs = SummarizeKPIs(e.Months, kpiInitial, today)
	e.Forecast = ForecastRegularization(selected, e.Months, e.KPIs.Remaining, today)
	return e
}
