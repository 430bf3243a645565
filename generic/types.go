/*
Package generic provides the domain-agnostic building blocks of the
reconciliation engine.

PURPOSE:
  This package contains the unit, calendar and month-replay primitives
  that the work package engine is built on. Whether a contract is measured
  in support hours or in ticket events, the same loop walks the months of
  a validity period and the same decimal helpers carry the numbers.

KEY CONCEPTS IN THIS FILE (types.go):
  - Unit: hours or events
  - SafePercentage: zero-guarded ratio

DESIGN PRINCIPLES:
  1. Precision: Quantities are decimal.Decimal to avoid floating-point drift
  2. Read-only: Nothing in this package mutates its inputs
  3. Determinism: "Now" is always passed in, never read from the wall clock

SEE ALSO:
  - time.go: TimePoint, MonthKey and Clock
  - period.go: Period and month iteration
  - ledger.go: ReplayMonths, the month-stepping primitive
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// UNIT
// =============================================================================

// Unit is what a contract's scope is measured in.
type Unit string

const (
	UnitHours  Unit = "hours"
	UnitEvents Unit = "events"
)

// ParseUnit maps a scope label onto a Unit. Anything that is not an
// events label is treated as hours.
func ParseUnit(s string) Unit {
	switch s {
	case "events", "eventos", "EVENTOS", "Eventos", "tickets":
		return UnitEvents
	default:
		return UnitHours
	}
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// MustParseDecimal parses s, yielding zero for malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SafePercentage returns num/den*100, or zero when den is zero.
func SafePercentage(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den).Mul(decimal.NewFromInt(100))
}
