package factory

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
)

func sequentialFactory() *ContractFactory {
	n := 0
	return &ContractFactory{NewID: func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}}
}

const eventsDoc = `{
	"name": "Globex Incident Pack",
	"type": "eventos",
	"billing_type": "mensual",
	"include_evo_tm": true,
	"included_ticket_types": ["Incidencia"],
	"periods": [
		{"start_date": "2025-01-01", "end_date": "2025-12-31", "total_quantity": 120,
		 "regularization_type": "fin_junio_diciembre", "regularization_rate": "180.5", "rate": 150}
	],
	"regularizations": [
		{"date": "2025-02-14", "type": "manual_consumption", "quantity": "3"},
		{"id": "r-ret", "date": "2025-04-02T10:00:00Z", "type": "RETURN", "quantity": 1, "is_billed": false}
	],
	"monthly_metrics": [{"year": 2025, "month": 2, "consumed_hours": "1.25"}],
	"tickets": [
		{"issue_key": "GLX-1", "issue_type": "Incidencia", "billing_mode": "T&M contra bolsa",
		 "status": "Closed", "year": 2025, "month": 3},
		{"issue_key": "GLX-2", "billing_mode": "something else", "year": 2025, "month": 3}
	]
}`

func TestParseContract(t *testing.T) {
	c, err := sequentialFactory().ParseContract([]byte(eventsDoc))
	require.NoError(t, err)

	// Missing IDs are generated in document order
	assert.Equal(t, "gen-1", c.ID)
	assert.Equal(t, workpackage.ContractEventos, c.Type)
	assert.Equal(t, workpackage.BillingMensual, c.Billing)
	assert.True(t, c.Inclusion.IncludeEvoTM)
	assert.Equal(t, []string{"Incidencia"}, c.Inclusion.IncludedTicketTypes)

	require.Len(t, c.Periods, 1)
	p := c.Periods[0]
	assert.Equal(t, "gen-2", p.ID)
	assert.Equal(t, generic.UnitEvents, p.ScopeUnit, "scope unit follows the contract type")
	assert.Equal(t, workpackage.RegTypeFinJunioDiciembre, p.RegularizationType)
	require.NotNil(t, p.RegularizationRate)
	assert.True(t, p.RegularizationRate.Equal(decimal.RequireFromString("180.5")))
	assert.True(t, p.TotalQuantity.Equal(decimal.NewFromInt(120)))

	require.Len(t, c.Regularizations, 2)
	assert.Equal(t, workpackage.RegManualConsumption, c.Regularizations[0].Kind)
	assert.Nil(t, c.Regularizations[0].IsBilled)
	assert.Equal(t, "r-ret", c.Regularizations[1].ID)
	assert.Equal(t, "2025-04-02", c.Regularizations[1].Date.String())
	assert.False(t, c.Regularizations[1].Billed())

	require.Len(t, c.Metrics, 1)
	assert.Equal(t, time.February, c.Metrics[0].Month)

	require.Len(t, c.Tickets, 2)
	assert.Equal(t, workpackage.ModeTMContraBolsa, c.Tickets[0].BillingMode)
	assert.Equal(t, workpackage.TicketBillingMode("something else"), c.Tickets[1].BillingMode)
	assert.False(t, c.Tickets[1].BillingMode.IsKnown())
	assert.Equal(t, "something else", sequentialFactory().ToJSON(c).Tickets[1].BillingMode)
}

func TestParseContract_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"malformed json", `{"name": `, generic.ErrInvalidDocument},
		{"missing name", `{"type": "Bolsa"}`, generic.ErrInvalidDocument},
		{"unknown contract type", `{"name": "x", "type": "Retainer"}`, generic.ErrUnknownEnum},
		{"inverted period", `{"name": "x", "periods": [{"start_date": "2025-06-01", "end_date": "2025-01-31", "total_quantity": 1, "rate": 1}]}`, generic.ErrInvalidPeriod},
		{"bad period date", `{"name": "x", "periods": [{"start_date": "01/06/2025", "end_date": "2025-01-31", "total_quantity": 1, "rate": 1}]}`, generic.ErrInvalidDocument},
		{"unknown regularization kind", `{"name": "x", "regularizations": [{"date": "2025-01-01", "type": "BONUS", "quantity": 1}]}`, generic.ErrUnknownEnum},
		{"metric month out of range", `{"name": "x", "monthly_metrics": [{"year": 2025, "month": 13, "consumed_hours": 1}]}`, generic.ErrInvalidDocument},
		{"ticket without key", `{"name": "x", "tickets": [{"year": 2025, "month": 1}]}`, generic.ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewContractFactory().ParseContract([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, generic.IsClientError(err))
		})
	}
}

func TestToJSON_ParsesBackToSameContract(t *testing.T) {
	f := sequentialFactory()
	c, err := f.ParseContract([]byte(eventsDoc))
	require.NoError(t, err)

	again, err := f.FromJSON(f.ToJSON(c))
	require.NoError(t, err)

	assert.Equal(t, c, again)
}

func TestParseWorklogs(t *testing.T) {
	f := sequentialFactory()

	worklogs, err := f.ParseWorklogs([]byte(`[
		{"id": "wl-1", "issue_key": "ACME-1", "billing_mode": "Bolsa de horas",
		 "started": "2025-02-01T00:30:00+01:00", "time_spent_hours": "1.5", "author": "ana"},
		{"issue_key": "ACME-2", "started": "2025-02-03T09:00:00Z", "time_spent_hours": 2}
	]`))
	require.NoError(t, err)
	require.Len(t, worklogs, 2)

	w := worklogs[0]
	assert.Equal(t, "wl-1", w.ID)
	assert.Equal(t, workpackage.ModeBolsaDeHorasLower, w.BillingMode)
	assert.Equal(t, time.UTC, w.StartDate.Location())
	assert.Equal(t, "2025-01-31T23:30:00Z", w.StartDate.Format(time.RFC3339))
	assert.Equal(t, time.January, w.MonthKey().Month, "attributed to the UTC month")
	assert.True(t, w.TimeSpentHours.Equal(decimal.RequireFromString("1.5")))

	assert.Equal(t, "gen-1", worklogs[1].ID)

	_, err = f.ParseWorklogs([]byte(`[{"started": "2025-02-03T09:00:00Z"}]`))
	assert.ErrorIs(t, err, generic.ErrInvalidDocument)

	_, err = f.ParseWorklogs([]byte(`[{"issue_key": "A-1", "started": "yesterday"}]`))
	assert.ErrorIs(t, err, generic.ErrInvalidDocument)

	_, err = f.ParseWorklogs([]byte(`{"issue_key": "A-1"}`))
	assert.ErrorIs(t, err, generic.ErrInvalidDocument)
}

func TestParseReviewRequest(t *testing.T) {
	f := sequentialFactory()

	rr, err := f.ParseReviewRequest("wp-1", []byte(`{
		"id": "rr-1",
		"status": "approved",
		"snapshot": [{"id": "a", "fingerprint": "x"}],
		"approved_ids": ["a"],
		"created_at": "2025-03-01T10:00:00+01:00"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "rr-1", rr.ID)
	assert.Equal(t, "wp-1", rr.ContractID)
	assert.Equal(t, workpackage.ReviewApproved, rr.Status)
	assert.JSONEq(t, `[{"id": "a", "fingerprint": "x"}]`, rr.SnapshotJSON)
	assert.JSONEq(t, `["a"]`, rr.ApprovedIDsJSON)
	assert.Equal(t, "2025-03-01T09:00:00Z", rr.CreatedAt.Format(time.RFC3339))

	// Status defaults to pending and created_at to now
	rr, err = f.ParseReviewRequest("wp-1", []byte(`{"snapshot": "not even a list"}`))
	require.NoError(t, err)
	assert.Equal(t, "gen-1", rr.ID)
	assert.Equal(t, workpackage.ReviewPending, rr.Status)
	assert.False(t, rr.CreatedAt.IsZero())

	_, err = f.ParseReviewRequest("wp-1", []byte(`{"id": "rr-2"}`))
	assert.ErrorIs(t, err, generic.ErrInvalidDocument)

	_, err = f.ParseReviewRequest("wp-1", []byte(`{"snapshot": [], "created_at": "soon"}`))
	assert.ErrorIs(t, err, generic.ErrInvalidDocument)
}
