package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
)

// =============================================================================
// WORKLOGS & REVIEW REQUESTS
// =============================================================================

// SaveWorklogs inserts or replaces worklogs of an existing contract.
func (s *Store) SaveWorklogs(ctx context.Context, contractID string, worklogs []workpackage.WorklogDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireContract(ctx, contractID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO worklogs (id, contract_id, issue_key, issue_type, billing_mode,
			start_date, time_spent_hours, author, tipo_imputacion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare worklog insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range worklogs {
		_, err := stmt.ExecContext(ctx, w.ID, contractID, w.IssueKey, nullString(w.IssueType),
			nullString(string(w.BillingMode)), formatInstant(w.StartDate), w.TimeSpentHours.String(),
			nullString(w.Author), nullString(w.TipoImputacion))
		if err != nil {
			return fmt.Errorf("failed to save worklog %s: %w", w.ID, err)
		}
	}
	return tx.Commit()
}

// WorklogsInRange returns the contract's worklogs whose UTC start day is
// in [from, to], ordered by start.
func (s *Store) WorklogsInRange(ctx context.Context, contractID string, from, to generic.TimePoint) ([]workpackage.WorklogDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Instants are fixed-width UTC strings, so string bounds order correctly.
	lower := formatInstant(from.Time)
	upper := formatInstant(to.AddDays(1).Time)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, issue_key, issue_type, billing_mode, start_date, time_spent_hours,
			author, tipo_imputacion
		FROM worklogs
		WHERE contract_id = ? AND start_date >= ? AND start_date < ?
		ORDER BY start_date, id
	`, contractID, lower, upper)
	if err != nil {
		return nil, fmt.Errorf("failed to query worklogs: %w", err)
	}
	defer rows.Close()

	var result []workpackage.WorklogDetail
	for rows.Next() {
		var (
			w               workpackage.WorklogDetail
			issueType, mode sql.NullString
			author, tipo    sql.NullString
			start, hours    string
		)
		if err := rows.Scan(&w.ID, &w.IssueKey, &issueType, &mode, &start, &hours, &author, &tipo); err != nil {
			return nil, err
		}
		if w.StartDate, err = time.Parse(instantLayout, start); err != nil {
			return nil, fmt.Errorf("worklog %s: parse start: %w", w.ID, err)
		}
		w.IssueType = issueType.String
		w.BillingMode = workpackage.ParseTicketBillingMode(mode.String)
		w.TimeSpentHours = parseDecimal(hours)
		w.Author = author.String
		w.TipoImputacion = tipo.String
		result = append(result, w)
	}
	return result, rows.Err()
}

// SaveReviewRequest records a review request. IDs are never reused.
func (s *Store) SaveReviewRequest(ctx context.Context, r *workpackage.ReviewRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireContract(ctx, r.ContractID); err != nil {
		return err
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_requests (id, contract_id, status, snapshot_json, approved_ids_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.ContractID, string(r.Status), r.SnapshotJSON, nullString(r.ApprovedIDsJSON), formatInstant(createdAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("review request %s: %w", r.ID, generic.ErrDuplicateRecord)
		}
		return fmt.Errorf("failed to save review request: %w", err)
	}
	return nil
}

// ReviewRequests returns every review request of the contract, oldest first.
func (s *Store) ReviewRequests(ctx context.Context, contractID string) ([]workpackage.ReviewRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contract_id, status, snapshot_json, approved_ids_json, created_at
		FROM review_requests WHERE contract_id = ? ORDER BY created_at, id
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to query review requests: %w", err)
	}
	defer rows.Close()

	var result []workpackage.ReviewRequest
	for rows.Next() {
		var (
			r                 workpackage.ReviewRequest
			status, createdAt string
			approved          sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.ContractID, &status, &r.SnapshotJSON, &approved, &createdAt); err != nil {
			return nil, err
		}
		r.Status = workpackage.ParseReviewStatus(status)
		r.ApprovedIDsJSON = approved.String
		if r.CreatedAt, err = time.Parse(instantLayout, createdAt); err != nil {
			return nil, fmt.Errorf("review request %s: parse created_at: %w", r.ID, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) requireContract(ctx context.Context, contractID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM contracts WHERE id = ?", contractID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("contract %s: %w", contractID, generic.ErrContractNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up contract: %w", err)
	}
	return nil
}
