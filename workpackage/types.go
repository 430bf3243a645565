// Package workpackage implements work package reconciliation on top of the
// generic month-replay engine: contracted vs consumed per month, carryover
// across validity periods, KPI totals, regularization forecasts and the
// ticket-centric consumption report.
package workpackage

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
)

// =============================================================================
// CLOSED ENUMS - Free text is mapped onto these at ingestion
// =============================================================================

// ContractType selects the ledger variant.
type ContractType string

const (
	ContractBolsa    ContractType = "BOLSA"
	ContractStandard ContractType = "STANDARD"
	ContractEventos  ContractType = "EVENTOS"
)

// IsEvents reports whether the contract counts tickets instead of hours.
func (t ContractType) IsEvents() bool { return t == ContractEventos }

// BillingType is how contracted scope is invoiced.
type BillingType string

const (
	BillingMensual    BillingType = "MENSUAL"
	BillingTrimestral BillingType = "TRIMESTRAL"
	BillingSemestral  BillingType = "SEMESTRAL"
	BillingAnual      BillingType = "ANUAL"
	BillingPuntual    BillingType = "PUNTUAL" // whole period scope billed up front
)

// RegularizationKind is the discriminant of a Regularization.
type RegularizationKind string

const (
	RegReturn              RegularizationKind = "RETURN"
	RegExcess              RegularizationKind = "EXCESS"
	RegSobranteAnterior    RegularizationKind = "SOBRANTE_ANTERIOR"
	RegManualConsumption   RegularizationKind = "MANUAL_CONSUMPTION"
	RegContratacionPuntual RegularizationKind = "CONTRATACION_PUNTUAL"
)

// RegularizationType is the forecasting cadence of a validity period.
type RegularizationType string

const (
	RegTypeNone              RegularizationType = ""
	RegTypeMensual           RegularizationType = "MENSUAL"
	RegTypeTrimestral        RegularizationType = "TRIMESTRAL"
	RegTypeFinQNatural       RegularizationType = "FIN_Q_NATURAL"
	RegTypeSemestral         RegularizationType = "SEMESTRAL"
	RegTypeAnual             RegularizationType = "ANUAL"
	RegTypeFinAnoNatural     RegularizationType = "FIN_AÑO_NATURAL"
	RegTypeFinJunioDiciembre RegularizationType = "FIN_JUNIO_DICIEMBRE"
)

// TicketBillingMode is the tracker's billing classification of a ticket.
// Case variants that occur in tracker data are kept as distinct members.
type TicketBillingMode string

const (
	ModeUnknown           TicketBillingMode = "" // no label recorded
	ModeTMContraBolsa     TicketBillingMode = "T&M contra bolsa"
	ModeTMFacturable      TicketBillingMode = "T&M facturable"
	ModeBolsaDeHoras      TicketBillingMode = "Bolsa de Horas"
	ModeBolsaDeHorasLower TicketBillingMode = "Bolsa de horas"
	ModeEstimado          TicketBillingMode = "Estimado"
)

// IsKnown reports whether the label is one of the named members.
func (m TicketBillingMode) IsKnown() bool {
	switch m {
	case ModeTMContraBolsa, ModeTMFacturable, ModeBolsaDeHoras, ModeBolsaDeHorasLower, ModeEstimado:
		return true
	}
	return false
}

// IsEvolutivoTM is time-and-material evolutive work charged against the pool.
func (m TicketBillingMode) IsEvolutivoTM() bool {
	return m == ModeTMContraBolsa
}

// IsEstimate is evolutive work charged by its estimate.
func (m TicketBillingMode) IsEstimate() bool {
	switch m {
	case ModeBolsaDeHoras, ModeBolsaDeHorasLower, ModeEstimado:
		return true
	}
	return false
}

// IssueTypeEvolutivo marks evolutive (change request) tickets.
const IssueTypeEvolutivo = "Evolutivo"

// ReviewStatus is the lifecycle state of a review request.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// =============================================================================
// ENTITIES - Read-only inputs
// =============================================================================

// Contract is a work package with everything the engine reads.
type Contract struct {
	ID        string
	Name      string
	Client    string
	Type      ContractType
	Billing   BillingType
	Inclusion InclusionFlags

	Periods         []ValidityPeriod
	Regularizations []Regularization
	Metrics         []MonthlyMetric
	Tickets         []Ticket
}

// Unit returns the unit the contract is measured in.
func (c *Contract) Unit() generic.Unit {
	if c.Type.IsEvents() {
		return generic.UnitEvents
	}
	return generic.UnitHours
}

// InclusionFlags decide which tickets and worklogs count as consumption.
type InclusionFlags struct {
	IncludeEvoTM        bool
	IncludeEvoEstimates bool
	IncludedTicketTypes []string
}

// ValidityPeriod is one renewal period of a contract.
type ValidityPeriod struct {
	ID                 string
	Start              generic.TimePoint
	End                generic.TimePoint
	TotalQuantity      decimal.Decimal
	ScopeUnit          generic.Unit
	RegularizationType RegularizationType
	RegularizationRate *decimal.Decimal
	Rate               decimal.Decimal
	RateEvolutivo      decimal.Decimal

	// Synthetic marks the calendar-year fallback made up when a contract
	// has no periods at all.
	Synthetic bool
}

// Range returns the period bounds.
func (vp ValidityPeriod) Range() generic.Period {
	return generic.Period{Start: vp.Start, End: vp.End}
}

// EffectiveRegularizationRate prefers the regularization rate over the
// billing rate.
func (vp ValidityPeriod) EffectiveRegularizationRate() decimal.Decimal {
	if vp.RegularizationRate != nil {
		return *vp.RegularizationRate
	}
	return vp.Rate
}

// Regularization is a dated adjustment attributed to the month of Date.
type Regularization struct {
	ID          string
	Date        generic.TimePoint
	Kind        RegularizationKind
	Quantity    decimal.Decimal
	IsBilled    *bool
	Description string
}

// Billed is false only when IsBilled is explicitly false.
func (r Regularization) Billed() bool {
	return r.IsBilled == nil || *r.IsBilled
}

// MonthlyMetric is pre-aggregated consumed hours for one calendar month.
type MonthlyMetric struct {
	Year          int
	Month         time.Month
	ConsumedHours decimal.Decimal
}

// Ticket is one tracker issue, dated by its creation month.
type Ticket struct {
	IssueKey      string
	Summary       string
	IssueType     string
	BillingMode   TicketBillingMode
	Status        string
	Priority      string
	SLAResponse   string
	SLAResolution string
	Year          int
	Month         time.Month
}

// WorklogDetail is one logged-time entry.
type WorklogDetail struct {
	ID             string
	IssueKey       string
	IssueType      string
	BillingMode    TicketBillingMode
	StartDate      time.Time
	TimeSpentHours decimal.Decimal
	Author         string
	TipoImputacion string
}

// MonthKey is the calendar month of the worklog's UTC start day, whatever
// the zone of the reference clock.
func (w WorklogDetail) MonthKey() generic.MonthKey {
	return generic.DateOf(w.StartDate.UTC()).MonthKey()
}

// ReviewRequest holds a cached snapshot of worklogs under review.
// SnapshotJSON and ApprovedIDsJSON are kept raw; they are decoded at
// report time and a malformed payload only disables that request.
type ReviewRequest struct {
	ID              string
	ContractID      string
	Status          ReviewStatus
	SnapshotJSON    string
	ApprovedIDsJSON string
	CreatedAt       time.Time
}

// ContractSummary is the listing shape returned by a Source.
type ContractSummary struct {
	ID     string
	Name   string
	Client string
	Type   ContractType
}

func normalizeEnum(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
