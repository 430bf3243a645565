/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	work package data. Each scenario goes through the same ingestion path
	as the API (factory documents, then the store), so what a demo shows is
	what an import would produce.

AVAILABLE SCENARIOS:

	bolsa-carryover:  Hour pool renewed yearly, surplus carried from 2024,
	                  heavy 2025 consumption, review requests on worklogs
	eventos:          Ticket-count pool with filtered ticket types
	puntual:          Scope billed up front plus a one-off top-up

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Build contract documents and parse them via factory
 3. Save contracts, worklogs and review requests

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "bolsa-carryover"}

USAGE VIA CLI:

	workpackage-engine load-scenario bolsa-carryover

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler wiring
  - factory/contract.go: Document types
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/factory"
	"github.com/warp/workpackage-engine/workpackage"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "bolsa-carryover",
		Name:        "Bolsa with carryover",
		Description: "1200h pool for 2025 with 2024 surplus, returns, billed excess and review requests",
		Category:    "hours",
	},
	{
		ID:          "eventos",
		Name:        "Eventos",
		Description: "120-event pool counting incidents; evolutive and T&M tickets excluded",
		Category:    "events",
	},
	{
		ID:          "puntual",
		Name:        "Puntual",
		Description: "300h billed up front in January plus a 100h one-off contract in May",
		Category:    "hours",
	},
}

type scenarioLoader func(ctx context.Context, store Store, f *factory.ContractFactory) error

var scenarioLoaders = map[string]scenarioLoader{
	"bolsa-carryover": loadBolsaCarryoverScenario,
	"eventos":         loadEventosScenario,
	"puntual":         loadPuntualScenario,
}

// Scenarios returns the available demo scenarios.
func Scenarios() []ScenarioDTO {
	out := make([]ScenarioDTO, len(scenarios))
	copy(out, scenarios)
	return out
}

// LoadScenario resets the store and loads the scenario with the given ID.
func LoadScenario(ctx context.Context, store Store, f *factory.ContractFactory, id string) error {
	load, ok := scenarioLoaders[id]
	if !ok {
		return fmt.Errorf("unknown scenario %q", id)
	}
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	return load(ctx, store, f)
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Scenarios())
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, ok := scenarioLoaders[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	if err := LoadScenario(r.Context(), h.Store, h.Factory, req.ScenarioID); err != nil {
		h.writeFailure(w, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Log.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadBolsaCarryoverScenario(ctx context.Context, store Store, f *factory.ContractFactory) error {
	regRate := dec(55)
	billed := true

	doc := factory.ContractJSON{
		ID:                  "wp-acme",
		Name:                "ACME Support",
		Client:              "ACME",
		Type:                "Bolsa de Horas",
		BillingType:         "Mensual",
		IncludedTicketTypes: []string{"Incidencia", "Consulta"},
		Periods: []factory.PeriodJSON{
			{
				ID: "acme-2024", StartDate: "2024-01-01", EndDate: "2024-12-31",
				TotalQuantity: dec(600), ScopeUnit: "hours",
				RegularizationType: "TRIMESTRAL", Rate: dec(48),
			},
			{
				ID: "acme-2025", StartDate: "2025-01-01", EndDate: "2025-12-31",
				TotalQuantity: dec(1200), ScopeUnit: "hours",
				RegularizationType: "TRIMESTRAL", RegularizationRate: &regRate,
				Rate: dec(50), RateEvolutivo: dec(60),
			},
		},
		Regularizations: []factory.RegularizationJSON{
			{ID: "acme-sobrante-2023", Date: "2023-12-20", Type: "SOBRANTE_ANTERIOR", Quantity: dec(20), IsBilled: &billed,
				Description: "Unused hours from the 2023 order"},
			{ID: "acme-return-mar", Date: "2025-03-12", Type: "RETURN", Quantity: dec(4),
				Description: "Hours logged against the wrong project"},
			{ID: "acme-excess-jun", Date: "2025-06-30", Type: "EXCESS", Quantity: dec(50), IsBilled: &billed,
				Description: "Q2 overrun invoiced"},
		},
	}
	for m := 1; m <= 12; m++ {
		doc.Metrics = append(doc.Metrics, factory.MetricJSON{Year: 2024, Month: m, ConsumedHours: dec(45)})
	}
	for m, hours := range []int64{126, 134, 148, 152, 140, 161, 157, 118, 170, 166} {
		doc.Metrics = append(doc.Metrics, factory.MetricJSON{Year: 2025, Month: m + 1, ConsumedHours: dec(hours)})
	}
	doc.Tickets = []factory.TicketJSON{
		{IssueKey: "ACME-101", Summary: "Login fails for SSO users", IssueType: "Incidencia", Status: "Closed",
			Priority: "Alta", SLAResponse: "2h", SLAResolution: "8h", Year: 2025, Month: 1},
		{IssueKey: "ACME-115", Summary: "Export to CSV timing out", IssueType: "Incidencia", Status: "In Progress",
			Year: 2025, Month: 2},
		{IssueKey: "ACME-120", Summary: "How to configure retention", IssueType: "Consulta", Status: "Closed",
			Priority: "Baja", Year: 2025, Month: 2},
		{IssueKey: "ACME-130", Summary: "New invoicing report", IssueType: "Evolutivo",
			BillingMode: "Bolsa de Horas", Year: 2025, Month: 3},
	}

	contract, err := f.FromJSON(doc)
	if err != nil {
		return err
	}
	if err := store.SaveContract(ctx, contract); err != nil {
		return err
	}

	worklogs, err := f.WorklogsFromJSON([]factory.WorklogJSON{
		{ID: "wl-1", IssueKey: "ACME-101", Started: "2025-01-08T09:00:00Z", TimeSpentHours: dec(6), Author: "lucia", TipoImputacion: "Soporte"},
		{ID: "wl-2", IssueKey: "ACME-101", Started: "2025-02-03T10:30:00Z", TimeSpentHours: dec(3), Author: "lucia", TipoImputacion: "Soporte"},
		{ID: "wl-3", IssueKey: "ACME-115", Started: "2025-02-11T08:00:00Z", TimeSpentHours: decimal.RequireFromString("7.5"), Author: "marc", TipoImputacion: "Soporte"},
		{ID: "wl-4", IssueKey: "ACME-115", Started: "2025-03-04T15:00:00Z", TimeSpentHours: dec(4), Author: "marc", TipoImputacion: "Soporte"},
		{ID: "wl-5", IssueKey: "ACME-120", Started: "2025-02-20T11:00:00Z", TimeSpentHours: dec(1), Author: "lucia", TipoImputacion: "Consulta"},
		{ID: "wl-6", IssueKey: "ACME-130", Started: "2025-03-18T09:00:00Z", TimeSpentHours: dec(12), Author: "marc", TipoImputacion: "Desarrollo"},
	})
	if err != nil {
		return err
	}
	if err := store.SaveWorklogs(ctx, contract.ID, worklogs); err != nil {
		return err
	}

	// wl-4 is waiting for review; wl-3 was reviewed and refunded.
	pending, err := reviewRequest(f, contract.ID, "rr-pending", workpackage.ReviewPending, worklogs[3:4], nil)
	if err != nil {
		return err
	}
	approved, err := reviewRequest(f, contract.ID, "rr-approved", workpackage.ReviewApproved, worklogs[2:4], []string{"wl-3"})
	if err != nil {
		return err
	}
	for _, rr := range []*workpackage.ReviewRequest{pending, approved} {
		if err := store.SaveReviewRequest(ctx, rr); err != nil {
			return err
		}
	}
	return nil
}

func loadEventosScenario(ctx context.Context, store Store, f *factory.ContractFactory) error {
	doc := factory.ContractJSON{
		ID:                  "wp-globex-events",
		Name:                "Globex Incident Pack",
		Client:              "Globex",
		Type:                "Eventos",
		BillingType:         "Mensual",
		IncludedTicketTypes: []string{"Incidencia"},
		Periods: []factory.PeriodJSON{
			{
				ID: "globex-2025", StartDate: "2025-01-01", EndDate: "2025-12-31",
				TotalQuantity: dec(120), ScopeUnit: "events",
				RegularizationType: "FIN_JUNIO_DICIEMBRE", Rate: dec(180),
			},
		},
		Regularizations: []factory.RegularizationJSON{
			{ID: "globex-manual-feb", Date: "2025-02-14", Type: "MANUAL_CONSUMPTION", Quantity: dec(3),
				Description: "On-site interventions"},
			{ID: "globex-return-apr", Date: "2025-04-02", Type: "RETURN", Quantity: dec(1),
				Description: "Duplicate ticket"},
		},
	}

	key := 1
	for month, count := range []int{9, 12, 8, 14, 11, 10} {
		for i := 0; i < count; i++ {
			doc.Tickets = append(doc.Tickets, factory.TicketJSON{
				IssueKey:  fmt.Sprintf("GLX-%d", key),
				IssueType: "Incidencia",
				Status:    "Closed",
				Year:      2025,
				Month:     month + 1,
			})
			key++
		}
	}
	doc.Tickets = append(doc.Tickets,
		factory.TicketJSON{IssueKey: "GLX-900", IssueType: "Evolutivo", BillingMode: "Estimado", Year: 2025, Month: 2},
		factory.TicketJSON{IssueKey: "GLX-901", IssueType: "Incidencia", BillingMode: "T&M contra bolsa", Year: 2025, Month: 3},
		factory.TicketJSON{IssueKey: "GLX-902", IssueType: "Consulta", Year: 2025, Month: 3},
	)

	contract, err := f.FromJSON(doc)
	if err != nil {
		return err
	}
	return store.SaveContract(ctx, contract)
}

func loadPuntualScenario(ctx context.Context, store Store, f *factory.ContractFactory) error {
	billed := true
	doc := factory.ContractJSON{
		ID:          "wp-initech",
		Name:        "Initech Migration Pack",
		Client:      "Initech",
		Type:        "Bolsa",
		BillingType: "Puntual",
		Periods: []factory.PeriodJSON{
			{
				ID: "initech-2025", StartDate: "2025-01-01", EndDate: "2025-12-31",
				TotalQuantity: dec(300), ScopeUnit: "hours",
				RegularizationType: "FIN_AÑO_NATURAL", Rate: dec(65),
			},
		},
		Regularizations: []factory.RegularizationJSON{
			{ID: "initech-puntual-may", Date: "2025-05-05", Type: "CONTRATACION_PUNTUAL", Quantity: dec(100), IsBilled: &billed,
				Description: "Extra migration wave"},
		},
	}
	for m, hours := range []int64{40, 55, 38, 61, 70, 44} {
		doc.Metrics = append(doc.Metrics, factory.MetricJSON{Year: 2025, Month: m + 1, ConsumedHours: dec(hours)})
	}

	contract, err := f.FromJSON(doc)
	if err != nil {
		return err
	}
	return store.SaveContract(ctx, contract)
}

// =============================================================================
// HELPERS
// =============================================================================

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// reviewRequest builds a review request whose snapshot caches the given
// worklogs by id and fingerprint.
func reviewRequest(
	f *factory.ContractFactory,
	contractID, id string,
	status workpackage.ReviewStatus,
	worklogs []workpackage.WorklogDetail,
	approvedIDs []string,
) (*workpackage.ReviewRequest, error) {
	type entry struct {
		ID          string `json:"id"`
		Fingerprint string `json:"fingerprint"`
	}
	entries := make([]entry, len(worklogs))
	for i, w := range worklogs {
		entries[i] = entry{ID: w.ID, Fingerprint: workpackage.Fingerprint(w)}
	}

	snapshot, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	rj := factory.ReviewRequestJSON{
		ID:        id,
		Status:    string(status),
		Snapshot:  snapshot,
		CreatedAt: time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
	if approvedIDs != nil {
		if rj.ApprovedIDs, err = json.Marshal(approvedIDs); err != nil {
			return nil, err
		}
	}
	return f.ReviewRequestFromJSON(contractID, rj)
}
