package workpackage

import (
	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
)

// =============================================================================
// CARRYOVER - Balance owed/available before the selected period starts
// =============================================================================

// StandardInitialBalance is the hour-pool balance carried into selected:
// orphan regularizations plus the replay of every earlier period.
// RETURN orphans are added at face value.
func StandardInitialBalance(c *Contract, selected ValidityPeriod, today generic.TimePoint) decimal.Decimal {
	return initialBalance(c, selected, today, decimal.NewFromInt(1))
}

// EventsInitialBalance is the event-count balance carried into selected.
// Unlike the hour pool, RETURN orphans are subtracted.
// TODO: product has to confirm whether the two RETURN signs should agree.
func EventsInitialBalance(c *Contract, selected ValidityPeriod, today generic.TimePoint) decimal.Decimal {
	return initialBalance(c, selected, today, decimal.NewFromInt(-1))
}

func initialBalance(c *Contract, selected ValidityPeriod, today generic.TimePoint, returnSign decimal.Decimal) decimal.Decimal {
	prior := priorPeriods(c.Periods, selected)

	balance := orphanRegularizations(c.Regularizations, prior, selected, returnSign)

	regs := indexRegularizations(c.Regularizations)
	for _, p := range prior {
		balance = balance.Add(replayPeriod(p, rulesFor(c, p), regs, decimal.Zero, today, nil))
	}
	return balance
}

// orphanRegularizations sums the billed EXCESS, SOBRANTE_ANTERIOR and
// RETURN regularizations dated before selected that no earlier period's
// replay already covers.
func orphanRegularizations(regs []Regularization, prior []ValidityPeriod, selected ValidityPeriod, returnSign decimal.Decimal) decimal.Decimal {
	start := selected.Start.FirstOfMonth()
	total := decimal.Zero

	for _, r := range regs {
		if !r.Date.FirstOfMonth().Before(start) || !r.Billed() {
			continue
		}
		if coveredByPeriod(r, prior) {
			continue
		}
		switch r.Kind {
		case RegExcess, RegSobranteAnterior:
			total = total.Add(r.Quantity)
		case RegReturn:
			total = total.Add(r.Quantity.Mul(returnSign))
		}
	}
	return total
}

// coveredByPeriod reports whether the month of r lies inside one of the
// given periods, so its replay already accounts for r.
func coveredByPeriod(r Regularization, periods []ValidityPeriod) bool {
	k := r.Date.MonthKey()
	for _, p := range periods {
		if p.Range().ContainsMonth(k) {
			return true
		}
	}
	return false
}
