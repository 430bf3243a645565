/*
Package factory provides JSON to Go conversion of ingested documents.

PURPOSE:
  Converts contract, worklog and review request documents, as exported by
  the CRM and the issue tracker, into workpackage types. This is the only
  place where free-text enums are mapped onto the closed sets; everything
  downstream compares typed values.

JSON SCHEMA:
  {
    "id": "wp-acme-2025",
    "name": "ACME support 2025",
    "client": "ACME",
    "type": "Bolsa de Horas",
    "billing_type": "Mensual",
    "include_evo_tm": false,
    "include_evo_estimates": false,
    "included_ticket_types": ["Incidencia", "Consulta"],
    "periods": [
      {
        "id": "p-2025",
        "start_date": "2025-01-01",
        "end_date": "2025-12-31",
        "total_quantity": "1200",
        "scope_unit": "hours",
        "regularization_type": "TRIMESTRAL",
        "regularization_rate": "55",
        "rate": "50"
      }
    ],
    "regularizations": [
      {"date": "2025-03-15", "type": "EXCESS", "quantity": "20", "is_billed": true}
    ],
    "monthly_metrics": [
      {"year": 2025, "month": 1, "consumed_hours": "96.5"}
    ],
    "tickets": [
      {"issue_key": "ACME-12", "issue_type": "Incidencia", "billing_mode": "T&M contra bolsa",
       "year": 2025, "month": 2}
    ]
  }

KEY FEATURES:
  - Unknown contract types and regularization kinds are rejected
  - Other enums fall back to their documented defaults
  - Inverted periods are rejected
  - Missing IDs are generated (UUIDv4)
  - Quantities accept JSON numbers or decimal strings

USAGE:
  f := factory.NewContractFactory()
  contract, err := f.ParseContract(body)
  if errors.Is(err, generic.ErrUnknownEnum) {
      // 400
  }
  store.SaveContract(ctx, contract)

SEE ALSO:
  - workpackage/enums.go: Enum parsing rules
  - store/sqlite: Persists the parsed contract
  - api/handlers.go: POST /api/contracts
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ContractJSON is the JSON representation of a contract.
type ContractJSON struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Client              string               `json:"client,omitempty"`
	Type                string               `json:"type"`
	BillingType         string               `json:"billing_type,omitempty"`
	IncludeEvoTM        bool                 `json:"include_evo_tm,omitempty"`
	IncludeEvoEstimates bool                 `json:"include_evo_estimates,omitempty"`
	IncludedTicketTypes []string             `json:"included_ticket_types,omitempty"`
	Periods             []PeriodJSON         `json:"periods,omitempty"`
	Regularizations     []RegularizationJSON `json:"regularizations,omitempty"`
	Metrics             []MetricJSON         `json:"monthly_metrics,omitempty"`
	Tickets             []TicketJSON         `json:"tickets,omitempty"`
}

// PeriodJSON represents a validity period.
type PeriodJSON struct {
	ID                 string           `json:"id"`
	StartDate          string           `json:"start_date"`
	EndDate            string           `json:"end_date"`
	TotalQuantity      decimal.Decimal  `json:"total_quantity"`
	ScopeUnit          string           `json:"scope_unit,omitempty"` // hours, events
	RegularizationType string           `json:"regularization_type,omitempty"`
	RegularizationRate *decimal.Decimal `json:"regularization_rate,omitempty"`
	Rate               decimal.Decimal  `json:"rate"`
	RateEvolutivo      decimal.Decimal  `json:"rate_evolutivo"`
}

// RegularizationJSON represents a dated adjustment.
type RegularizationJSON struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Type        string          `json:"type"` // RETURN, EXCESS, SOBRANTE_ANTERIOR, ...
	Quantity    decimal.Decimal `json:"quantity"`
	IsBilled    *bool           `json:"is_billed,omitempty"`
	Description string          `json:"description,omitempty"`
}

// MetricJSON represents consumed hours of one month.
type MetricJSON struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	ConsumedHours decimal.Decimal `json:"consumed_hours"`
}

// TicketJSON represents a tracker issue.
type TicketJSON struct {
	IssueKey      string `json:"issue_key"`
	Summary       string `json:"summary,omitempty"`
	IssueType     string `json:"issue_type,omitempty"`
	BillingMode   string `json:"billing_mode,omitempty"`
	Status        string `json:"status,omitempty"`
	Priority      string `json:"priority,omitempty"`
	SLAResponse   string `json:"sla_response,omitempty"`
	SLAResolution string `json:"sla_resolution,omitempty"`
	Year          int    `json:"year"`
	Month         int    `json:"month"`
}

// =============================================================================
// CONTRACT FACTORY
// =============================================================================

// ContractFactory converts contract documents to workpackage.Contract.
type ContractFactory struct {
	// NewID generates IDs for records that arrive without one.
	NewID func() string
}

// NewContractFactory creates a factory that fills missing IDs with UUIDs.
func NewContractFactory() *ContractFactory {
	return &ContractFactory{NewID: uuid.NewString}
}

// ParseContract parses a JSON document into a Contract.
func (f *ContractFactory) ParseContract(data []byte) (*workpackage.Contract, error) {
	var cj ContractJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return nil, fmt.Errorf("%w: contract: %v", generic.ErrInvalidDocument, err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts ContractJSON to a Contract.
func (f *ContractFactory) FromJSON(cj ContractJSON) (*workpackage.Contract, error) {
	if cj.Name == "" {
		return nil, fmt.Errorf("%w: contract name is required", generic.ErrInvalidDocument)
	}

	ctype, err := workpackage.ParseContractType(cj.Type)
	if err != nil {
		return nil, err
	}

	c := &workpackage.Contract{
		ID:      f.idOr(cj.ID),
		Name:    cj.Name,
		Client:  cj.Client,
		Type:    ctype,
		Billing: workpackage.ParseBillingType(cj.BillingType),
		Inclusion: workpackage.InclusionFlags{
			IncludeEvoTM:        cj.IncludeEvoTM,
			IncludeEvoEstimates: cj.IncludeEvoEstimates,
			IncludedTicketTypes: cj.IncludedTicketTypes,
		},
	}

	for _, pj := range cj.Periods {
		p, err := f.parsePeriod(pj, c.Unit())
		if err != nil {
			return nil, err
		}
		c.Periods = append(c.Periods, p)
	}

	for _, rj := range cj.Regularizations {
		r, err := f.parseRegularization(rj)
		if err != nil {
			return nil, err
		}
		c.Regularizations = append(c.Regularizations, r)
	}

	for _, mj := range cj.Metrics {
		month, err := parseMonth(mj.Month)
		if err != nil {
			return nil, fmt.Errorf("monthly metric %d: %w", mj.Year, err)
		}
		c.Metrics = append(c.Metrics, workpackage.MonthlyMetric{
			Year:          mj.Year,
			Month:         month,
			ConsumedHours: mj.ConsumedHours,
		})
	}

	for _, tj := range cj.Tickets {
		if tj.IssueKey == "" {
			return nil, fmt.Errorf("%w: ticket issue_key is required", generic.ErrInvalidDocument)
		}
		month, err := parseMonth(tj.Month)
		if err != nil {
			return nil, fmt.Errorf("ticket %s: %w", tj.IssueKey, err)
		}
		c.Tickets = append(c.Tickets, workpackage.Ticket{
			IssueKey:      tj.IssueKey,
			Summary:       tj.Summary,
			IssueType:     tj.IssueType,
			BillingMode:   workpackage.ParseTicketBillingMode(tj.BillingMode),
			Status:        tj.Status,
			Priority:      tj.Priority,
			SLAResponse:   tj.SLAResponse,
			SLAResolution: tj.SLAResolution,
			Year:          tj.Year,
			Month:         month,
		})
	}

	return c, nil
}

// ToJSON converts a Contract back to its document form.
func (f *ContractFactory) ToJSON(c *workpackage.Contract) ContractJSON {
	cj := ContractJSON{
		ID:                  c.ID,
		Name:                c.Name,
		Client:              c.Client,
		Type:                string(c.Type),
		BillingType:         string(c.Billing),
		IncludeEvoTM:        c.Inclusion.IncludeEvoTM,
		IncludeEvoEstimates: c.Inclusion.IncludeEvoEstimates,
		IncludedTicketTypes: c.Inclusion.IncludedTicketTypes,
	}

	for _, p := range c.Periods {
		cj.Periods = append(cj.Periods, PeriodJSON{
			ID:                 p.ID,
			StartDate:          p.Start.String(),
			EndDate:            p.End.String(),
			TotalQuantity:      p.TotalQuantity,
			ScopeUnit:          string(p.ScopeUnit),
			RegularizationType: string(p.RegularizationType),
			RegularizationRate: p.RegularizationRate,
			Rate:               p.Rate,
			RateEvolutivo:      p.RateEvolutivo,
		})
	}
	for _, r := range c.Regularizations {
		cj.Regularizations = append(cj.Regularizations, RegularizationJSON{
			ID:          r.ID,
			Date:        r.Date.String(),
			Type:        string(r.Kind),
			Quantity:    r.Quantity,
			IsBilled:    r.IsBilled,
			Description: r.Description,
		})
	}
	for _, m := range c.Metrics {
		cj.Metrics = append(cj.Metrics, MetricJSON{Year: m.Year, Month: int(m.Month), ConsumedHours: m.ConsumedHours})
	}
	for _, t := range c.Tickets {
		cj.Tickets = append(cj.Tickets, TicketJSON{
			IssueKey:      t.IssueKey,
			Summary:       t.Summary,
			IssueType:     t.IssueType,
			BillingMode:   string(t.BillingMode),
			Status:        t.Status,
			Priority:      t.Priority,
			SLAResponse:   t.SLAResponse,
			SLAResolution: t.SLAResolution,
			Year:          t.Year,
			Month:         int(t.Month),
		})
	}

	return cj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func (f *ContractFactory) idOr(id string) string {
	if id != "" {
		return id
	}
	return f.NewID()
}

func (f *ContractFactory) parsePeriod(pj PeriodJSON, contractUnit generic.Unit) (workpackage.ValidityPeriod, error) {
	id := f.idOr(pj.ID)
	start, err := generic.ParseDate(pj.StartDate)
	if err != nil {
		return workpackage.ValidityPeriod{}, fmt.Errorf("%w: period %s start_date: %v", generic.ErrInvalidDocument, id, err)
	}
	end, err := generic.ParseDate(pj.EndDate)
	if err != nil {
		return workpackage.ValidityPeriod{}, fmt.Errorf("%w: period %s end_date: %v", generic.ErrInvalidDocument, id, err)
	}
	span := generic.Period{Start: start, End: end}
	if !span.IsValid() {
		return workpackage.ValidityPeriod{}, &generic.PeriodError{PeriodID: id, Period: span, Reason: "end before start"}
	}

	unit := contractUnit
	if pj.ScopeUnit != "" {
		unit = generic.ParseUnit(pj.ScopeUnit)
	}

	return workpackage.ValidityPeriod{
		ID:                 id,
		Start:              start,
		End:                end,
		TotalQuantity:      pj.TotalQuantity,
		ScopeUnit:          unit,
		RegularizationType: workpackage.ParseRegularizationType(pj.RegularizationType),
		RegularizationRate: pj.RegularizationRate,
		Rate:               pj.Rate,
		RateEvolutivo:      pj.RateEvolutivo,
	}, nil
}

func (f *ContractFactory) parseRegularization(rj RegularizationJSON) (workpackage.Regularization, error) {
	id := f.idOr(rj.ID)
	date, err := generic.ParseDate(rj.Date)
	if err != nil {
		return workpackage.Regularization{}, fmt.Errorf("%w: regularization %s date: %v", generic.ErrInvalidDocument, id, err)
	}
	kind, err := workpackage.ParseRegularizationKind(rj.Type)
	if err != nil {
		return workpackage.Regularization{}, fmt.Errorf("regularization %s: %w", id, err)
	}
	return workpackage.Regularization{
		ID:          id,
		Date:        date,
		Kind:        kind,
		Quantity:    rj.Quantity,
		IsBilled:    rj.IsBilled,
		Description: rj.Description,
	}, nil
}

func parseMonth(m int) (time.Month, error) {
	if m < 1 || m > 12 {
		return 0, fmt.Errorf("%w: month %d out of range", generic.ErrInvalidDocument, m)
	}
	return time.Month(m), nil
}
