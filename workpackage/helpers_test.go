package workpackage_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func day(year int, month time.Month, dd int) generic.TimePoint {
	return generic.NewTimePoint(year, month, dd)
}

func assertDec(t *testing.T, want decimal.Decimal, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !want.Equal(got) {
		assert.Fail(t, fmt.Sprintf("want %s, got %s", want, got), msgAndArgs...)
	}
}

func yearPeriod(id string, year int, qty int64) workpackage.ValidityPeriod {
	return workpackage.ValidityPeriod{
		ID:            id,
		Start:         generic.StartOfYear(year),
		End:           generic.EndOfYear(year),
		TotalQuantity: d(qty),
		ScopeUnit:     generic.UnitHours,
		Rate:          d(50),
	}
}

func metrics(year int, hours ...int64) []workpackage.MonthlyMetric {
	out := make([]workpackage.MonthlyMetric, len(hours))
	for i, h := range hours {
		out[i] = workpackage.MonthlyMetric{Year: year, Month: time.Month(i + 1), ConsumedHours: d(h)}
	}
	return out
}

func standardContract(periods ...workpackage.ValidityPeriod) *workpackage.Contract {
	return &workpackage.Contract{
		ID:      "wp-1",
		Name:    "Support",
		Type:    workpackage.ContractStandard,
		Billing: workpackage.BillingMensual,
		Periods: periods,
	}
}

func billed(v bool) *bool { return &v }
