/*
Package sqlite provides a SQLite-backed implementation of workpackage.Source.

PURPOSE:
  Persists contracts with their validity periods, regularizations,
  monthly metrics and tickets, plus worklogs and review requests, and
  serves them back to the engine. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  workpackage.Source: Read-only queries used by the engine

WRITE PATHS:
  SaveContract, SaveWorklogs and SaveReviewRequest exist for ingestion and
  demo scenarios. The engine itself never calls them.

KEY TABLES:
  contracts:          Work package header and inclusion flags
  validity_periods:   Renewal periods with scope and rates
  regularizations:    Dated adjustments
  monthly_metrics:    Consumed hours per month (synced externally)
  tickets:            Tracker issues
  worklogs:           Logged-time entries
  review_requests:    Cached worklog snapshots under review

STORAGE FORMATS:
  Quantities are TEXT decimal strings (no float rounding), dates are
  YYYY-MM-DD, worklog start instants are millisecond RFC3339 in UTC so
  that string comparison orders them.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/workpackages.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := workpackage.NewEngine(store, clock, logger)

SEE ALSO:
  - workpackage/engine.go: Source interface
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
)

const (
	dateLayout    = "2006-01-02"
	instantLayout = "2006-01-02T15:04:05.000Z07:00" // fixed width in UTC
)

// Store implements workpackage.Source using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ workpackage.Source = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A ":memory:" database lives per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		client TEXT,
		contract_type TEXT NOT NULL,
		billing_type TEXT NOT NULL,
		include_evo_tm BOOLEAN DEFAULT FALSE,
		include_evo_estimates BOOLEAN DEFAULT FALSE,
		included_ticket_types TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS validity_periods (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_quantity TEXT NOT NULL,
		scope_unit TEXT NOT NULL,
		regularization_type TEXT,
		regularization_rate TEXT,
		rate TEXT NOT NULL DEFAULT '0',
		rate_evolutivo TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_periods_contract_start
		ON validity_periods(contract_id, start_date);

	CREATE TABLE IF NOT EXISTS regularizations (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		quantity TEXT NOT NULL,
		is_billed BOOLEAN,
		description TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_regularizations_contract_date
		ON regularizations(contract_id, date);

	CREATE TABLE IF NOT EXISTS monthly_metrics (
		contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		consumed_hours TEXT NOT NULL,
		PRIMARY KEY (contract_id, year, month)
	);

	CREATE TABLE IF NOT EXISTS tickets (
		contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		issue_key TEXT NOT NULL,
		summary TEXT,
		issue_type TEXT,
		billing_mode TEXT,
		status TEXT,
		priority TEXT,
		sla_response TEXT,
		sla_resolution TEXT,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		PRIMARY KEY (contract_id, issue_key)
	);

	CREATE INDEX IF NOT EXISTS idx_tickets_contract_month
		ON tickets(contract_id, year, month);

	CREATE TABLE IF NOT EXISTS worklogs (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		issue_key TEXT NOT NULL,
		issue_type TEXT,
		billing_mode TEXT,
		start_date TEXT NOT NULL,
		time_spent_hours TEXT NOT NULL,
		author TEXT,
		tipo_imputacion TEXT
	);

	-- Period-window reads for the ticket report (hot path)
	CREATE INDEX IF NOT EXISTS idx_worklogs_contract_start
		ON worklogs(contract_id, start_date);

	CREATE TABLE IF NOT EXISTS review_requests (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'PENDING',
		snapshot_json TEXT NOT NULL,
		approved_ids_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_review_requests_contract
		ON review_requests(contract_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"review_requests", "worklogs", "tickets",
		"monthly_metrics", "regularizations", "validity_periods", "contracts",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func parseDate(s string) (generic.TimePoint, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return generic.DateOf(t), nil
}

func formatDate(tp generic.TimePoint) string {
	return tp.Time.Format(dateLayout)
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
