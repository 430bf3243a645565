package workpackage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/workpackage-engine/generic"
	"go.uber.org/zap"
)

// ForecastAlert is a contract whose current period is heading for a
// shortfall at its next regularization date.
type ForecastAlert struct {
	ContractID   string
	ContractName string
	PeriodID     string
	AsOf         generic.TimePoint
	Remaining    decimal.Decimal
	Forecast     Forecast
}

// ScanForecasts builds the default-period evolution of every contract and
// returns those with a forecast, in listing order.
func (e *Engine) ScanForecasts(ctx context.Context) ([]ForecastAlert, error) {
	contracts, err := e.Source.ListContracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}

	var alerts []ForecastAlert
	for _, cs := range contracts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		evo, err := e.Evolution(ctx, cs.ID, "")
		if err != nil {
			return nil, err
		}
		if evo == nil || evo.Forecast == nil {
			continue
		}

		alert := ForecastAlert{
			ContractID:   evo.ContractID,
			ContractName: evo.ContractName,
			PeriodID:     evo.SelectedPeriod.ID,
			AsOf:         evo.AsOf,
			Remaining:    evo.KPIs.Remaining,
			Forecast:     *evo.Forecast,
		}
		e.Log.Warn("regularization shortfall forecast",
			zap.String("contract", alert.ContractID),
			zap.String("period", alert.PeriodID),
			zap.Stringer("date", alert.Forecast.Date),
			zap.String("hours", alert.Forecast.Hours.String()),
			zap.String("amount", alert.Forecast.Amount.String()))
		alerts = append(alerts, alert)
	}
	return alerts, nil
}
