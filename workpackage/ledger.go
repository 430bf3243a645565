/*
ledger.go - Monthly evolution of a validity period

PURPOSE:
  Builds one row per calendar month of a validity period with what was
  contracted, what was consumed, the regularizations of the month and the
  running balance. The same month rules also drive the silent replay of
  earlier periods that produces the carryover balance.

VARIANTS:
  Standard/Bolsa (hour pool):
    consumed   = monthly metric hours - RETURN
    contracted = total/months (or the whole total on month one when the
                 billing type is Puntual) + CONTRATACION_PUNTUAL
    accumulated grows by balance + billed EXCESS/SOBRANTE for every month
    that is not in the future

  Eventos (ticket-count pool):
    consumed   = qualifying tickets created in the month
                 + MANUAL_CONSUMPTION - RETURN
    contracted = total/months + CONTRATACION_PUNTUAL
    rows never carry an accumulated value; the events carryover only
    feeds the KPI totals

FUTURE MONTHS:
  A month strictly after the current month is shown but not banked: it
  never moves the running balance. The current month is banked.

SEE ALSO:
  - generic/ledger.go: ReplayMonths
  - carryover.go: Replays earlier periods with these same rules
*/
package workpackage

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
)

// MonthRow is one month of the evolution table.
type MonthRow struct {
	Year              int
	Month             time.Month
	Contracted        decimal.Decimal
	Consumed          decimal.Decimal
	Regularization    decimal.Decimal
	Returns           decimal.Decimal
	ManualConsumption decimal.Decimal
	PuntualContracted decimal.Decimal
	MonthlyBalance    decimal.Decimal
	Accumulated       decimal.Decimal
	IsFuture          bool
}

func (r MonthRow) Key() generic.MonthKey { return generic.MonthKey{Year: r.Year, Month: r.Month} }

// Label is the YYYY-MM form of the month.
func (r MonthRow) Label() string { return r.Key().String() }

// =============================================================================
// MONTH RULES
// =============================================================================

// monthRules is the parameterization of the month loop: where consumption
// comes from, how scope is spread, which regularizations land in the
// regularization column, and whether rows show the running balance.
type monthRules struct {
	consumed        func(k generic.MonthKey, regs MonthRegularizations) decimal.Decimal
	contracted      func(index int, regs MonthRegularizations) decimal.Decimal
	regularization  func(regs MonthRegularizations) decimal.Decimal
	showAccumulated bool
}

func standardRules(c *Contract, p ValidityPeriod) monthRules {
	metrics := metricsByMonth(c.Metrics)
	months := decimal.NewFromInt(int64(p.Range().MonthCount()))
	puntual := c.Billing == BillingPuntual

	return monthRules{
		consumed: func(k generic.MonthKey, regs MonthRegularizations) decimal.Decimal {
			return metrics[k].Sub(regs.Returns)
		},
		contracted: func(index int, regs MonthRegularizations) decimal.Decimal {
			base := decimal.Zero
			switch {
			case puntual:
				if index == 0 {
					base = p.TotalQuantity
				}
			case months.IsPositive():
				base = p.TotalQuantity.Div(months)
			}
			return base.Add(regs.Puntual)
		},
		regularization: func(regs MonthRegularizations) decimal.Decimal {
			return regs.ExcessTotal()
		},
		showAccumulated: true,
	}
}

func eventsRules(c *Contract, p ValidityPeriod) monthRules {
	counts := ticketCounts(c.Tickets, c.Inclusion)
	months := decimal.NewFromInt(int64(p.Range().MonthCount()))

	return monthRules{
		consumed: func(k generic.MonthKey, regs MonthRegularizations) decimal.Decimal {
			return decimal.NewFromInt(int64(counts[k])).Add(regs.Manual).Sub(regs.Returns)
		},
		contracted: func(_ int, regs MonthRegularizations) decimal.Decimal {
			if !months.IsPositive() {
				return regs.Puntual
			}
			return p.TotalQuantity.Div(months).Add(regs.Puntual)
		},
		regularization: func(regs MonthRegularizations) decimal.Decimal {
			return regs.Excess
		},
	}
}

func rulesFor(c *Contract, p ValidityPeriod) monthRules {
	if c.Type.IsEvents() {
		return eventsRules(c, p)
	}
	return standardRules(c, p)
}

// =============================================================================
// REPLAY
// =============================================================================

// replayPeriod walks the months of p under rules, starting the running
// balance at initial. Each row is passed to emit when emit is non-nil.
// It returns the running balance after the last banked month.
func replayPeriod(
	p ValidityPeriod,
	rules monthRules,
	regs regularizationIndex,
	initial decimal.Decimal,
	today generic.TimePoint,
	emit func(MonthRow),
) decimal.Decimal {
	current := today.MonthKey()
	accumulated := initial

	generic.ReplayMonths(p.Range(), func(k generic.MonthKey, index int) {
		monthRegs := regs.month(k)
		row := MonthRow{
			Year:              k.Year,
			Month:             k.Month,
			Contracted:        rules.contracted(index, monthRegs),
			Consumed:          rules.consumed(k, monthRegs),
			Regularization:    rules.regularization(monthRegs),
			Returns:           monthRegs.Returns,
			ManualConsumption: monthRegs.Manual,
			PuntualContracted: monthRegs.Puntual,
			IsFuture:          k.After(current),
		}
		row.MonthlyBalance = row.Contracted.Sub(row.Consumed)

		if !row.IsFuture {
			accumulated = accumulated.Add(row.MonthlyBalance).Add(row.Regularization)
		}
		if rules.showAccumulated {
			row.Accumulated = accumulated
		}
		if emit != nil {
			emit(row)
		}
	})

	return accumulated
}

// BuildStandardLedger builds the hour-pool evolution of p starting from
// the carryover balance initial.
func BuildStandardLedger(c *Contract, p ValidityPeriod, initial decimal.Decimal, today generic.TimePoint) []MonthRow {
	rows := []MonthRow{}
	replayPeriod(p, standardRules(c, p), indexRegularizations(c.Regularizations), initial, today, func(r MonthRow) {
		rows = append(rows, r)
	})
	return rows
}

// BuildEventsLedger builds the ticket-count evolution of p. Rows carry no
// accumulated value.
func BuildEventsLedger(c *Contract, p ValidityPeriod, today generic.TimePoint) []MonthRow {
	rows := []MonthRow{}
	replayPeriod(p, eventsRules(c, p), indexRegularizations(c.Regularizations), decimal.Zero, today, func(r MonthRow) {
		rows = append(rows, r)
	})
	return rows
}
