package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
)

// =============================================================================
// WORKLOGS & REVIEW REQUESTS - Tracker exports
// =============================================================================

// WorklogJSON is a logged-time entry as exported by the tracker.
type WorklogJSON struct {
	ID             string          `json:"id"`
	IssueKey       string          `json:"issue_key"`
	IssueType      string          `json:"issue_type,omitempty"`
	BillingMode    string          `json:"billing_mode,omitempty"`
	Started        string          `json:"started"` // RFC3339
	TimeSpentHours decimal.Decimal `json:"time_spent_hours"`
	Author         string          `json:"author,omitempty"`
	TipoImputacion string          `json:"tipo_imputacion,omitempty"`
}

// ReviewRequestJSON is a review request with its cached snapshot. Snapshot
// and ApprovedIDs are kept verbatim; their content is only interpreted
// when a report is built.
type ReviewRequestJSON struct {
	ID          string          `json:"id"`
	Status      string          `json:"status,omitempty"`
	Snapshot    json.RawMessage `json:"snapshot"`
	ApprovedIDs json.RawMessage `json:"approved_ids,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

// ParseWorklogs parses a JSON array of worklogs.
func (f *ContractFactory) ParseWorklogs(data []byte) ([]workpackage.WorklogDetail, error) {
	var wjs []WorklogJSON
	if err := json.Unmarshal(data, &wjs); err != nil {
		return nil, fmt.Errorf("%w: worklogs: %v", generic.ErrInvalidDocument, err)
	}
	return f.WorklogsFromJSON(wjs)
}

// WorklogsFromJSON converts worklog documents to WorklogDetail values.
func (f *ContractFactory) WorklogsFromJSON(wjs []WorklogJSON) ([]workpackage.WorklogDetail, error) {
	result := make([]workpackage.WorklogDetail, 0, len(wjs))
	for _, wj := range wjs {
		if wj.IssueKey == "" {
			return nil, fmt.Errorf("%w: worklog issue_key is required", generic.ErrInvalidDocument)
		}
		started, err := time.Parse(time.RFC3339, wj.Started)
		if err != nil {
			return nil, fmt.Errorf("%w: worklog %s started: %v", generic.ErrInvalidDocument, wj.IssueKey, err)
		}
		result = append(result, workpackage.WorklogDetail{
			ID:             f.idOr(wj.ID),
			IssueKey:       wj.IssueKey,
			IssueType:      wj.IssueType,
			BillingMode:    workpackage.ParseTicketBillingMode(wj.BillingMode),
			StartDate:      started.UTC(),
			TimeSpentHours: wj.TimeSpentHours,
			Author:         wj.Author,
			TipoImputacion: wj.TipoImputacion,
		})
	}
	return result, nil
}

// ParseReviewRequest parses a review request for the given contract.
func (f *ContractFactory) ParseReviewRequest(contractID string, data []byte) (*workpackage.ReviewRequest, error) {
	var rj ReviewRequestJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return nil, fmt.Errorf("%w: review request: %v", generic.ErrInvalidDocument, err)
	}
	return f.ReviewRequestFromJSON(contractID, rj)
}

// ReviewRequestFromJSON converts a review request document.
func (f *ContractFactory) ReviewRequestFromJSON(contractID string, rj ReviewRequestJSON) (*workpackage.ReviewRequest, error) {
	if len(rj.Snapshot) == 0 {
		return nil, fmt.Errorf("%w: review request snapshot is required", generic.ErrInvalidDocument)
	}

	createdAt := time.Now().UTC()
	if rj.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, rj.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: review request created_at: %v", generic.ErrInvalidDocument, err)
		}
		createdAt = t.UTC()
	}

	return &workpackage.ReviewRequest{
		ID:              f.idOr(rj.ID),
		ContractID:      contractID,
		Status:          workpackage.ParseReviewStatus(rj.Status),
		SnapshotJSON:    string(rj.Snapshot),
		ApprovedIDsJSON: string(rj.ApprovedIDs),
		CreatedAt:       createdAt,
	}, nil
}
