/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific rounding
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  Quantities and money are decimals inside the engine and plain JSON
  numbers here. Percentages are rounded to 2 decimals.

TYPES:
  Contracts:
    ContractSummaryDTO, factory.ContractJSON (import/export)

  Evolution:
    EvolutionDTO, PeriodDTO, MonthRowDTO, KPIsDTO, ForecastDTO

  Tickets:
    TicketReportDTO, TicketConsumptionDTO, MonthHoursDTO

  Forecast watch:
    ForecastAlertDTO, ForecastAlertsResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
  - factory/contract.go: ContractJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/workpackage"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ContractSummaryDTO is one entry of the contract listing.
type ContractSummaryDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Client string `json:"client,omitempty"`
	Type   string `json:"type"`
}

// PeriodDTO represents a validity period.
type PeriodDTO struct {
	ID                 string   `json:"id"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	TotalQuantity      float64  `json:"total_quantity"`
	ScopeUnit          string   `json:"scope_unit"`
	RegularizationType string   `json:"regularization_type,omitempty"`
	RegularizationRate *float64 `json:"regularization_rate,omitempty"`
	Rate               float64  `json:"rate"`
	RateEvolutivo      float64  `json:"rate_evolutivo"`
	Synthetic          bool     `json:"synthetic,omitempty"`
}

// MonthRowDTO is one row of the evolution table.
type MonthRowDTO struct {
	Year              int     `json:"year"`
	Month             int     `json:"month"`
	Label             string  `json:"label"`
	Contracted        float64 `json:"contracted"`
	Consumed          float64 `json:"consumed"`
	Regularization    float64 `json:"regularization"`
	Returns           float64 `json:"returns"`
	ManualConsumption float64 `json:"manual_consumption"`
	PuntualContracted float64 `json:"puntual_contracted"`
	MonthlyBalance    float64 `json:"monthly_balance"`
	Accumulated       float64 `json:"accumulated"`
	IsFuture          bool    `json:"is_future"`
}

// KPIsDTO holds the headline totals.
type KPIsDTO struct {
	TotalScope       float64 `json:"total_scope"`
	BilledAmount     float64 `json:"billed_amount"`
	TotalConsumed    float64 `json:"total_consumed"`
	InitialBalance   float64 `json:"initial_balance"`
	Remaining        float64 `json:"remaining"`
	Percentage       float64 `json:"percentage"`
	BilledPercentage float64 `json:"billed_percentage"`
}

// ForecastDTO is the next regularization shortfall.
type ForecastDTO struct {
	Hours  float64 `json:"hours"`
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
	Date   string  `json:"date"`
	Type   string  `json:"type"`
}

// EvolutionDTO is the response of GET /api/contracts/{id}/evolution.
type EvolutionDTO struct {
	ContractID          string        `json:"contract_id"`
	ContractName        string        `json:"contract_name"`
	ContractType        string        `json:"contract_type"`
	BillingType         string        `json:"billing_type"`
	Unit                string        `json:"unit"`
	AsOf                string        `json:"as_of"`
	Periods             []PeriodDTO   `json:"periods"`
	SelectedPeriod      PeriodDTO     `json:"selected_period"`
	InitialBalance      float64       `json:"initial_balance"`
	EventInitialBalance float64       `json:"event_initial_balance"`
	Months              []MonthRowDTO `json:"months"`
	KPIs                KPIsDTO       `json:"kpis"`
	Forecast            *ForecastDTO  `json:"forecast"`
}

// MonthHoursDTO is one month of a ticket's breakdown.
type MonthHoursDTO struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Hours float64 `json:"hours"`
}

// TicketConsumptionDTO is one ticket of the consumption report.
type TicketConsumptionDTO struct {
	IssueKey         string          `json:"issue_key"`
	Summary          string          `json:"summary"`
	IssueType        string          `json:"issue_type"`
	BillingMode      string          `json:"billing_mode"`
	Status           string          `json:"status"`
	Priority         string          `json:"priority"`
	SLAResponse      string          `json:"sla_response,omitempty"`
	SLAResolution    string          `json:"sla_resolution,omitempty"`
	TotalHours       float64         `json:"total_hours"`
	ClaimedHours     float64         `json:"claimed_hours"`
	MonthlyBreakdown []MonthHoursDTO `json:"monthly_breakdown"`
}

// TicketReportDTO is the response of GET /api/contracts/{id}/tickets.
type TicketReportDTO struct {
	ContractID     string                 `json:"contract_id"`
	SelectedPeriod PeriodDTO              `json:"selected_period"`
	Tickets        []TicketConsumptionDTO `json:"tickets"`
	TotalHours     float64                `json:"total_hours"`
	RefundedHours  float64                `json:"refunded_hours"`
}

// ForecastAlertDTO is one contract heading for a shortfall.
type ForecastAlertDTO struct {
	ContractID   string      `json:"contract_id"`
	ContractName string      `json:"contract_name"`
	PeriodID     string      `json:"period_id"`
	AsOf         string      `json:"as_of"`
	Remaining    float64     `json:"remaining"`
	Forecast     ForecastDTO `json:"forecast"`
}

// ForecastAlertsResponse is the response of GET /api/forecasts/alerts.
type ForecastAlertsResponse struct {
	LastRun string             `json:"last_run,omitempty"`
	Alerts  []ForecastAlertDTO `json:"alerts"`
}

// IngestResponse reports how many records an ingestion call stored.
type IngestResponse struct {
	ContractID string `json:"contract_id"`
	Stored     int    `json:"stored"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func pct(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func toPeriodDTO(p workpackage.ValidityPeriod) PeriodDTO {
	dto := PeriodDTO{
		ID:                 p.ID,
		StartDate:          p.Start.String(),
		EndDate:            p.End.String(),
		TotalQuantity:      num(p.TotalQuantity),
		ScopeUnit:          string(p.ScopeUnit),
		RegularizationType: string(p.RegularizationType),
		Rate:               num(p.Rate),
		RateEvolutivo:      num(p.RateEvolutivo),
		Synthetic:          p.Synthetic,
	}
	if p.RegularizationRate != nil {
		v := num(*p.RegularizationRate)
		dto.RegularizationRate = &v
	}
	return dto
}

func toForecastDTO(f workpackage.Forecast) ForecastDTO {
	return ForecastDTO{
		Hours:  num(f.Hours),
		Amount: num(f.Amount.Round(2)),
		Rate:   num(f.Rate),
		Date:   f.Date.String(),
		Type:   string(f.Type),
	}
}

// ToEvolutionDTO converts an engine evolution for the API and CLI.
func ToEvolutionDTO(e *workpackage.Evolution) EvolutionDTO {
	dto := EvolutionDTO{
		ContractID:          e.ContractID,
		ContractName:        e.ContractName,
		ContractType:        string(e.ContractType),
		BillingType:         string(e.Billing),
		Unit:                string(e.Unit),
		AsOf:                e.AsOf.String(),
		Periods:             make([]PeriodDTO, len(e.Periods)),
		SelectedPeriod:      toPeriodDTO(e.SelectedPeriod),
		InitialBalance:      num(e.InitialBalance),
		EventInitialBalance: num(e.EventInitialBalance),
		Months:              make([]MonthRowDTO, len(e.Months)),
		KPIs: KPIsDTO{
			TotalScope:       num(e.KPIs.TotalScope),
			BilledAmount:     num(e.KPIs.BilledAmount),
			TotalConsumed:    num(e.KPIs.TotalConsumed),
			InitialBalance:   num(e.KPIs.InitialBalance),
			Remaining:        num(e.KPIs.Remaining),
			Percentage:       pct(e.KPIs.Percentage),
			BilledPercentage: pct(e.KPIs.BilledPercentage),
		},
	}
	for i, p := range e.Periods {
		dto.Periods[i] = toPeriodDTO(p)
	}
	for i, r := range e.Months {
		dto.Months[i] = MonthRowDTO{
			Year:              r.Year,
			Month:             int(r.Month),
			Label:             r.Label(),
			Contracted:        num(r.Contracted),
			Consumed:          num(r.Consumed),
			Regularization:    num(r.Regularization),
			Returns:           num(r.Returns),
			ManualConsumption: num(r.ManualConsumption),
			PuntualContracted: num(r.PuntualContracted),
			MonthlyBalance:    num(r.MonthlyBalance),
			Accumulated:       num(r.Accumulated),
			IsFuture:          r.IsFuture,
		}
	}
	if e.Forecast != nil {
		f := toForecastDTO(*e.Forecast)
		dto.Forecast = &f
	}
	return dto
}

// ToTicketReportDTO converts a ticket report for the API and CLI.
func ToTicketReportDTO(r *workpackage.TicketReport) TicketReportDTO {
	dto := TicketReportDTO{
		ContractID:     r.ContractID,
		SelectedPeriod: toPeriodDTO(r.SelectedPeriod),
		Tickets:        make([]TicketConsumptionDTO, len(r.Tickets)),
		TotalHours:     num(r.TotalHours),
		RefundedHours:  num(r.RefundedHours),
	}
	for i, t := range r.Tickets {
		tc := TicketConsumptionDTO{
			IssueKey:         t.IssueKey,
			Summary:          t.Summary,
			IssueType:        t.IssueType,
			BillingMode:      string(t.BillingMode),
			Status:           t.Status,
			Priority:         t.Priority,
			SLAResponse:      t.SLAResponse,
			SLAResolution:    t.SLAResolution,
			TotalHours:       num(t.TotalHours),
			ClaimedHours:     num(t.ClaimedHours),
			MonthlyBreakdown: make([]MonthHoursDTO, len(t.MonthlyBreakdown)),
		}
		for j, m := range t.MonthlyBreakdown {
			tc.MonthlyBreakdown[j] = MonthHoursDTO{Year: m.Year, Month: int(m.Month), Hours: num(m.Hours)}
		}
		dto.Tickets[i] = tc
	}
	return dto
}

func toForecastAlertsResponse(lastRun time.Time, alerts []workpackage.ForecastAlert) ForecastAlertsResponse {
	resp := ForecastAlertsResponse{Alerts: make([]ForecastAlertDTO, len(alerts))}
	if !lastRun.IsZero() {
		resp.LastRun = lastRun.UTC().Format(time.RFC3339)
	}
	for i, a := range alerts {
		resp.Alerts[i] = ForecastAlertDTO{
			ContractID:   a.ContractID,
			ContractName: a.ContractName,
			PeriodID:     a.PeriodID,
			AsOf:         a.AsOf.String(),
			Remaining:    num(a.Remaining),
			Forecast:     toForecastDTO(a.Forecast),
		}
	}
	return resp
}
