package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
)

// =============================================================================
// CONTRACTS - Header plus nested periods, regularizations, metrics, tickets
// =============================================================================

// SaveContract inserts or replaces a contract together with all of its
// nested records. Nested rows are rewritten as a whole.
func (s *Store) SaveContract(ctx context.Context, c *workpackage.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	types, err := json.Marshal(c.Inclusion.IncludedTicketTypes)
	if err != nil {
		return fmt.Errorf("failed to encode included ticket types: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(instantLayout)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO contracts (id, name, client, contract_type, billing_type,
			include_evo_tm, include_evo_estimates, included_ticket_types, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			client = excluded.client,
			contract_type = excluded.contract_type,
			billing_type = excluded.billing_type,
			include_evo_tm = excluded.include_evo_tm,
			include_evo_estimates = excluded.include_evo_estimates,
			included_ticket_types = excluded.included_ticket_types,
			updated_at = excluded.updated_at
	`, c.ID, c.Name, nullString(c.Client), string(c.Type), string(c.Billing),
		c.Inclusion.IncludeEvoTM, c.Inclusion.IncludeEvoEstimates, string(types), now, now)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}

	for _, table := range []string{"validity_periods", "regularizations", "monthly_metrics", "tickets"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE contract_id = ?", c.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertPeriods(ctx, tx, c.ID, c.Periods); err != nil {
		return err
	}
	if err := insertRegularizations(ctx, tx, c.ID, c.Regularizations); err != nil {
		return err
	}
	if err := insertMetrics(ctx, tx, c.ID, c.Metrics); err != nil {
		return err
	}
	if err := insertTickets(ctx, tx, c.ID, c.Tickets); err != nil {
		return err
	}

	return tx.Commit()
}

func insertPeriods(ctx context.Context, ex execer, contractID string, periods []workpackage.ValidityPeriod) error {
	for _, p := range periods {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO validity_periods (id, contract_id, start_date, end_date, total_quantity,
				scope_unit, regularization_type, regularization_rate, rate, rate_evolutivo)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, contractID, formatDate(p.Start), formatDate(p.End), p.TotalQuantity.String(),
			string(p.ScopeUnit), nullString(string(p.RegularizationType)), nullDecimal(p.RegularizationRate),
			p.Rate.String(), p.RateEvolutivo.String())
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("validity period %s: %w", p.ID, generic.ErrDuplicateRecord)
			}
			return fmt.Errorf("failed to save validity period %s: %w", p.ID, err)
		}
	}
	return nil
}

func insertRegularizations(ctx context.Context, ex execer, contractID string, regs []workpackage.Regularization) error {
	for _, r := range regs {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO regularizations (id, contract_id, date, kind, quantity, is_billed, description)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.ID, contractID, formatDate(r.Date), string(r.Kind), r.Quantity.String(),
			nullBool(r.IsBilled), nullString(r.Description))
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("regularization %s: %w", r.ID, generic.ErrDuplicateRecord)
			}
			return fmt.Errorf("failed to save regularization %s: %w", r.ID, err)
		}
	}
	return nil
}

func insertMetrics(ctx context.Context, ex execer, contractID string, metrics []workpackage.MonthlyMetric) error {
	// One row per month; duplicate months in the input are summed.
	byMonth := make(map[generic.MonthKey]decimal.Decimal, len(metrics))
	var order []generic.MonthKey
	for _, m := range metrics {
		k := generic.MonthKey{Year: m.Year, Month: m.Month}
		if _, seen := byMonth[k]; !seen {
			order = append(order, k)
		}
		byMonth[k] = byMonth[k].Add(m.ConsumedHours)
	}

	for _, k := range order {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO monthly_metrics (contract_id, year, month, consumed_hours)
			VALUES (?, ?, ?, ?)
		`, contractID, k.Year, int(k.Month), byMonth[k].String())
		if err != nil {
			return fmt.Errorf("failed to save metric %s: %w", k, err)
		}
	}
	return nil
}

func insertTickets(ctx context.Context, ex execer, contractID string, tickets []workpackage.Ticket) error {
	for _, t := range tickets {
		_, err := ex.ExecContext(ctx, `
			INSERT OR REPLACE INTO tickets (contract_id, issue_key, summary, issue_type, billing_mode,
				status, priority, sla_response, sla_resolution, year, month)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, contractID, t.IssueKey, nullString(t.Summary), nullString(t.IssueType), nullString(string(t.BillingMode)),
			nullString(t.Status), nullString(t.Priority), nullString(t.SLAResponse), nullString(t.SLAResolution),
			t.Year, int(t.Month))
		if err != nil {
			return fmt.Errorf("failed to save ticket %s: %w", t.IssueKey, err)
		}
	}
	return nil
}

// GetContract loads a contract with all nested records, or nil if it
// does not exist.
func (s *Store) GetContract(ctx context.Context, id string) (*workpackage.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		c               workpackage.Contract
		client, types   sql.NullString
		ctype, billing  string
		evoTM, evoEstim bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, client, contract_type, billing_type,
			include_evo_tm, include_evo_estimates, included_ticket_types
		FROM contracts WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &client, &ctype, &billing, &evoTM, &evoEstim, &types)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}

	c.Client = client.String
	if c.Type, err = workpackage.ParseContractType(ctype); err != nil {
		return nil, fmt.Errorf("contract %s: %w", id, err)
	}
	c.Billing = workpackage.ParseBillingType(billing)
	c.Inclusion.IncludeEvoTM = evoTM
	c.Inclusion.IncludeEvoEstimates = evoEstim
	if types.Valid && types.String != "" {
		if err := json.Unmarshal([]byte(types.String), &c.Inclusion.IncludedTicketTypes); err != nil {
			return nil, fmt.Errorf("contract %s: decode included ticket types: %w", id, err)
		}
	}

	if c.Periods, err = s.loadPeriods(ctx, id); err != nil {
		return nil, err
	}
	if c.Regularizations, err = s.loadRegularizations(ctx, id); err != nil {
		return nil, err
	}
	if c.Metrics, err = s.loadMetrics(ctx, id); err != nil {
		return nil, err
	}
	if c.Tickets, err = s.loadTickets(ctx, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListContracts returns every contract ordered by name.
func (s *Store) ListContracts(ctx context.Context) ([]workpackage.ContractSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, client, contract_type FROM contracts ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var result []workpackage.ContractSummary
	for rows.Next() {
		var (
			cs     workpackage.ContractSummary
			client sql.NullString
			ctype  string
		)
		if err := rows.Scan(&cs.ID, &cs.Name, &client, &ctype); err != nil {
			return nil, err
		}
		cs.Client = client.String
		if cs.Type, err = workpackage.ParseContractType(ctype); err != nil {
			return nil, fmt.Errorf("contract %s: %w", cs.ID, err)
		}
		result = append(result, cs)
	}
	return result, rows.Err()
}

func (s *Store) loadPeriods(ctx context.Context, contractID string) ([]workpackage.ValidityPeriod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, total_quantity, scope_unit,
			regularization_type, regularization_rate, rate, rate_evolutivo
		FROM validity_periods WHERE contract_id = ? ORDER BY start_date, id
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load validity periods: %w", err)
	}
	defer rows.Close()

	var result []workpackage.ValidityPeriod
	for rows.Next() {
		var (
			p                       workpackage.ValidityPeriod
			start, end, total, unit string
			rate, rateEvo           string
			regType, regRate        sql.NullString
		)
		if err := rows.Scan(&p.ID, &start, &end, &total, &unit, &regType, &regRate, &rate, &rateEvo); err != nil {
			return nil, err
		}
		if p.Start, err = parseDate(start); err != nil {
			return nil, err
		}
		if p.End, err = parseDate(end); err != nil {
			return nil, err
		}
		p.ScopeUnit = generic.ParseUnit(unit)
		p.TotalQuantity = parseDecimal(total)
		p.Rate = parseDecimal(rate)
		p.RateEvolutivo = parseDecimal(rateEvo)
		p.RegularizationType = workpackage.ParseRegularizationType(regType.String)
		if regRate.Valid {
			r := parseDecimal(regRate.String)
			p.RegularizationRate = &r
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) loadRegularizations(ctx context.Context, contractID string) ([]workpackage.Regularization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, kind, quantity, is_billed, description
		FROM regularizations WHERE contract_id = ? ORDER BY date, id
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load regularizations: %w", err)
	}
	defer rows.Close()

	var result []workpackage.Regularization
	for rows.Next() {
		var (
			r                    workpackage.Regularization
			date, kind, quantity string
			billed               sql.NullBool
			desc                 sql.NullString
		)
		if err := rows.Scan(&r.ID, &date, &kind, &quantity, &billed, &desc); err != nil {
			return nil, err
		}
		if r.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if r.Kind, err = workpackage.ParseRegularizationKind(kind); err != nil {
			return nil, fmt.Errorf("regularization %s: %w", r.ID, err)
		}
		r.Quantity = parseDecimal(quantity)
		if billed.Valid {
			b := billed.Bool
			r.IsBilled = &b
		}
		r.Description = desc.String
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) loadMetrics(ctx context.Context, contractID string) ([]workpackage.MonthlyMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, month, consumed_hours
		FROM monthly_metrics WHERE contract_id = ? ORDER BY year, month
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly metrics: %w", err)
	}
	defer rows.Close()

	var result []workpackage.MonthlyMetric
	for rows.Next() {
		var (
			m     workpackage.MonthlyMetric
			month int
			hours string
		)
		if err := rows.Scan(&m.Year, &month, &hours); err != nil {
			return nil, err
		}
		m.Month = time.Month(month)
		m.ConsumedHours = parseDecimal(hours)
		result = append(result, m)
	}
	return result, rows.Err()
}

func (s *Store) loadTickets(ctx context.Context, contractID string) ([]workpackage.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT issue_key, summary, issue_type, billing_mode, status, priority,
			sla_response, sla_resolution, year, month
		FROM tickets WHERE contract_id = ? ORDER BY year, month, issue_key
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	defer rows.Close()

	var result []workpackage.Ticket
	for rows.Next() {
		var (
			t                                 workpackage.Ticket
			summary, issueType, mode          sql.NullString
			status, priority, slaResp, slaRes sql.NullString
			month                             int
		)
		if err := rows.Scan(&t.IssueKey, &summary, &issueType, &mode, &status, &priority,
			&slaResp, &slaRes, &t.Year, &month); err != nil {
			return nil, err
		}
		t.Summary = summary.String
		t.IssueType = issueType.String
		t.BillingMode = workpackage.ParseTicketBillingMode(mode.String)
		t.Status = status.String
		t.Priority = priority.String
		t.SLAResponse = slaResp.String
		t.SLAResolution = slaRes.String
		t.Month = time.Month(month)
		result = append(result, t)
	}
	return result, rows.Err()
}

// parseDecimal reads a stored decimal; unparsable text counts as zero.
func parseDecimal(s string) decimal.Decimal {
	return generic.MustParseDecimal(s)
}
