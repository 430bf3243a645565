/*
engine.go - Service entry points over a read-only Source

PURPOSE:
  Engine is what the HTTP layer, the CLI and the forecast scheduler call.
  Each call reads what it needs from the Source and then runs the pure
  computation (BuildEvolution, BuildTicketReport) against the reference
  day of the Clock. Nothing is cached and nothing is written back.

CONCURRENCY:
  Engine has no mutable state; concurrent calls are independent. The
  ticket report reads the contract and its review requests in parallel,
  then the worklogs of the selected period.

MISSING DATA:
  An unknown contract returns (nil, nil). Only store failures are errors.

SEE ALSO:
  - evolution.go: BuildEvolution
  - report.go: BuildTicketReport
  - store/sqlite, store/memory: Source implementations
*/
package workpackage

import (
	"context"
	"fmt"

	"github.com/warp/workpackage-engine/generic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source is the read-only view of the backing store.
type Source interface {
	// GetContract returns the contract with its periods, regularizations,
	// metrics and tickets, or nil when it does not exist.
	GetContract(ctx context.Context, id string) (*Contract, error)

	// ListContracts returns every contract, ordered by name.
	ListContracts(ctx context.Context) ([]ContractSummary, error)

	// WorklogsInRange returns the contract's worklogs started in [from, to].
	WorklogsInRange(ctx context.Context, contractID string, from, to generic.TimePoint) ([]WorklogDetail, error)

	// ReviewRequests returns the contract's review requests.
	ReviewRequests(ctx context.Context, contractID string) ([]ReviewRequest, error)
}

// Engine computes reconciliations for contracts held in a Source.
type Engine struct {
	Source Source
	Clock  generic.Clock
	Log    *zap.Logger
}

// NewEngine creates an engine. A nil clock reads UTC wall time; a nil
// logger discards output.
func NewEngine(source Source, clock generic.Clock, log *zap.Logger) *Engine {
	if clock == nil {
		clock = generic.ZoneClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Source: source, Clock: clock, Log: log}
}

// Evolution returns the monthly evolution, KPIs and forecast for the
// contract's selected period.
func (e *Engine) Evolution(ctx context.Context, contractID, periodID string) (*Evolution, error) {
	contract, err := e.Source.GetContract(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("load contract %s: %w", contractID, err)
	}
	if contract == nil {
		return nil, nil
	}

	today := e.Clock.Today()
	evo := BuildEvolution(contract, periodID, today)
	e.Log.Debug("evolution computed",
		zap.String("contract", contractID),
		zap.String("period", evo.SelectedPeriod.ID),
		zap.Int("months", len(evo.Months)),
		zap.Stringer("as_of", today))
	return evo, nil
}

// TicketConsumption returns the ticket-grouped consumption report for the
// contract's selected period.
func (e *Engine) TicketConsumption(ctx context.Context, contractID, periodID string) (*TicketReport, error) {
	today := e.Clock.Today()

	var (
		contract *Contract
		reviews  []ReviewRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := e.Source.GetContract(gctx, contractID)
		if err != nil {
			return fmt.Errorf("load contract %s: %w", contractID, err)
		}
		contract = c
		return nil
	})
	g.Go(func() error {
		r, err := e.Source.ReviewRequests(gctx, contractID)
		if err != nil {
			return fmt.Errorf("load review requests %s: %w", contractID, err)
		}
		reviews = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, nil
	}

	// The worklog window depends on the selected period, so it is read
	// once the contract is known.
	span := SelectPeriod(SortedPeriods(contract.Periods), periodID, today).Range()
	worklogs, err := e.Source.WorklogsInRange(ctx, contractID, span.Start.FirstOfMonth(), monthEnd(span.End))
	if err != nil {
		return nil, fmt.Errorf("load worklogs %s: %w", contractID, err)
	}

	return BuildTicketReport(contract, worklogs, reviews, periodID, today, e.Log), nil
}

func monthEnd(tp generic.TimePoint) generic.TimePoint {
	return generic.EndOfMonth(tp.Year(), tp.Month())
}
