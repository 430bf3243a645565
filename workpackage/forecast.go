package workpackage

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
)

// Forecast is the next regularization event when the balance projected
// to its date is a shortfall.
type Forecast struct {
	Hours  decimal.Decimal
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Date   generic.TimePoint
	Type   RegularizationType
}

// maxSemesters bounds the search for the next semester boundary.
const maxSemesters = generic.MaxMonthIterations / 6

// NextRegularizationDate returns the next regularization date of the given
// cadence strictly after today. ok is false when the cadence is unknown or
// its date is not in the future.
func NextRegularizationDate(t RegularizationType, periodStart, today generic.TimePoint) (date generic.TimePoint, ok bool) {
	switch t {
	case RegTypeMensual:
		next := today.FirstOfMonth().AddMonths(1)
		date = generic.EndOfMonth(next.Year(), next.Month())

	case RegTypeTrimestral, RegTypeFinQNatural:
		date = quarterEnd(today)
		if !date.After(today) {
			date = quarterEnd(date.AddDays(1))
		}

	case RegTypeSemestral:
		start := periodStart.FirstOfMonth()
		for k := 1; k <= maxSemesters; k++ {
			date = start.AddMonths(6 * k).AddDays(-1)
			if date.After(today) {
				break
			}
		}

	case RegTypeAnual:
		// Anniversary of the period start, day included.
		date = periodStart.AddMonths(12)

	case RegTypeFinAnoNatural:
		date = generic.EndOfYear(today.Year())

	case RegTypeFinJunioDiciembre:
		date = generic.NewTimePoint(today.Year(), time.June, 30)
		if !date.After(today) {
			date = generic.EndOfYear(today.Year())
		}
		if !date.After(today) {
			date = generic.NewTimePoint(today.Year()+1, time.June, 30)
		}

	default:
		return generic.TimePoint{}, false
	}

	if !date.After(today) {
		return generic.TimePoint{}, false
	}
	return date, true
}

func quarterEnd(day generic.TimePoint) generic.TimePoint {
	endMonth := time.Month((int(day.Month())-1)/3*3 + 3)
	return generic.EndOfMonth(day.Year(), endMonth)
}

// ForecastRegularization projects remaining to the next regularization
// date of p, adding the scope contracted after the current month up to
// and including the target month. Only a negative projection produces a
// forecast.
func ForecastRegularization(p ValidityPeriod, rows []MonthRow, remaining decimal.Decimal, today generic.TimePoint) *Forecast {
	date, ok := NextRegularizationDate(p.RegularizationType, p.Start, today)
	if !ok {
		return nil
	}

	current := today.MonthKey()
	target := date.MonthKey()

	futureContracted := decimal.Zero
	for _, r := range rows {
		k := r.Key()
		if k.After(current) && !k.After(target) {
			futureContracted = futureContracted.Add(r.Contracted)
		}
	}

	projected := remaining.Add(futureContracted)
	if !projected.IsNegative() {
		return nil
	}

	rate := p.EffectiveRegularizationRate()
	hours := projected.Abs()
	return &Forecast{
		Hours:  hours,
		Amount: hours.Mul(rate),
		Rate:   rate,
		Date:   date,
		Type:   p.RegularizationType,
	}
}
