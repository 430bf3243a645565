/*
handlers.go - HTTP API handlers for the work package engine

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine
  and the ingestion factory.

ENDPOINTS:
  Contracts:
    GET    /api/contracts                        List contracts
    POST   /api/contracts                        Import a contract document
    GET    /api/contracts/{id}                   Contract document
    GET    /api/contracts/{id}/evolution         Monthly evolution, KPIs, forecast
    GET    /api/contracts/{id}/tickets           Ticket consumption report

  Ingestion:
    POST   /api/contracts/{id}/worklogs          Store tracker worklogs
    POST   /api/contracts/{id}/review-requests   Store a review request

  Forecast watch:
    GET    /api/forecasts/alerts                 Last shortfall scan

  Scenarios:
    GET    /api/scenarios                        List demo scenarios
    POST   /api/scenarios/load                   Load a demo scenario

QUERY PARAMETERS:
  period_id selects the validity period; absent means the period that
  contains today (see workpackage.SelectPeriod).

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid document, unknown enum, inverted period
  - 404: Contract not found
  - 409: Duplicate record ID
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/workpackage-engine/factory"
	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
	"go.uber.org/zap"
)

// maxBodyBytes bounds ingestion payloads.
const maxBodyBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the API needs: the engine's read view plus the
// ingestion writes.
type Store interface {
	workpackage.Source
	SaveContract(ctx context.Context, c *workpackage.Contract) error
	SaveWorklogs(ctx context.Context, contractID string, worklogs []workpackage.WorklogDetail) error
	SaveReviewRequest(ctx context.Context, r *workpackage.ReviewRequest) error
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   Store
	Engine  *workpackage.Engine
	Factory *factory.ContractFactory
	Watch   *ForecastWatch // nil when the scheduler is disabled
	Log     *zap.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler around the store and engine.
func NewHandler(store Store, engine *workpackage.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:   store,
		Engine:  engine,
		Factory: factory.NewContractFactory(),
		Log:     log,
	}
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// ListContracts returns all contracts.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.Store.ListContracts(r.Context())
	if err != nil {
		h.writeFailure(w, "Failed to list contracts", err)
		return
	}

	dtos := make([]ContractSummaryDTO, len(contracts))
	for i, c := range contracts {
		dtos[i] = ContractSummaryDTO{ID: c.ID, Name: c.Name, Client: c.Client, Type: string(c.Type)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetContract returns the contract as a document.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		h.writeFailure(w, "Failed to get contract", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, h.Factory.ToJSON(c))
}

// CreateContract imports a contract document, replacing any contract with
// the same ID.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	c, err := h.Factory.ParseContract(body)
	if err != nil {
		h.writeFailure(w, "Invalid contract document", err)
		return
	}
	if err := h.Store.SaveContract(r.Context(), c); err != nil {
		h.writeFailure(w, "Failed to save contract", err)
		return
	}

	h.Log.Info("contract imported",
		zap.String("contract", c.ID),
		zap.String("type", string(c.Type)),
		zap.Int("periods", len(c.Periods)))
	writeJSON(w, http.StatusCreated, h.Factory.ToJSON(c))
}

// GetEvolution returns the monthly evolution of a validity period.
// GET /api/contracts/{id}/evolution?period_id=
func (h *Handler) GetEvolution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	periodID := r.URL.Query().Get("period_id")

	evo, err := h.Engine.Evolution(r.Context(), id, periodID)
	if err != nil {
		h.writeFailure(w, "Failed to compute evolution", err)
		return
	}
	if evo == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, ToEvolutionDTO(evo))
}

// GetTicketConsumption returns worklog hours grouped by ticket.
// GET /api/contracts/{id}/tickets?period_id=
func (h *Handler) GetTicketConsumption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	periodID := r.URL.Query().Get("period_id")

	report, err := h.Engine.TicketConsumption(r.Context(), id, periodID)
	if err != nil {
		h.writeFailure(w, "Failed to build ticket report", err)
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, ToTicketReportDTO(report))
}

// =============================================================================
// INGESTION HANDLERS
// =============================================================================

// AddWorklogs stores a JSON array of worklogs for the contract.
// POST /api/contracts/{id}/worklogs
func (h *Handler) AddWorklogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	worklogs, err := h.Factory.ParseWorklogs(body)
	if err != nil {
		h.writeFailure(w, "Invalid worklogs", err)
		return
	}
	if err := h.Store.SaveWorklogs(r.Context(), id, worklogs); err != nil {
		h.writeFailure(w, "Failed to save worklogs", err)
		return
	}

	writeJSON(w, http.StatusCreated, IngestResponse{ContractID: id, Stored: len(worklogs)})
}

// AddReviewRequest stores a review request with its cached snapshot.
// POST /api/contracts/{id}/review-requests
func (h *Handler) AddReviewRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	req, err := h.Factory.ParseReviewRequest(id, body)
	if err != nil {
		h.writeFailure(w, "Invalid review request", err)
		return
	}
	if err := h.Store.SaveReviewRequest(r.Context(), req); err != nil {
		h.writeFailure(w, "Failed to save review request", err)
		return
	}

	writeJSON(w, http.StatusCreated, IngestResponse{ContractID: id, Stored: 1})
}

// =============================================================================
// FORECAST WATCH
// =============================================================================

// ListForecastAlerts returns the result of the last forecast scan.
// GET /api/forecasts/alerts
func (h *Handler) ListForecastAlerts(w http.ResponseWriter, r *http.Request) {
	if h.Watch == nil {
		writeJSON(w, http.StatusOK, toForecastAlertsResponse(time.Time{}, nil))
		return
	}
	lastRun, alerts := h.Watch.Alerts()
	writeJSON(w, http.StatusOK, toForecastAlertsResponse(lastRun, alerts))
}

// =============================================================================
// HELPERS
// =============================================================================

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	return body, true
}

// writeFailure maps engine and store errors onto HTTP statuses.
func (h *Handler) writeFailure(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		h.Log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
