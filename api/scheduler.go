/*
scheduler.go - Forecast watch scheduler

PURPOSE:
  Periodically scans every contract for an upcoming regularization
  shortfall and keeps the latest result in memory for
  GET /api/forecasts/alerts. Nothing is written to the store.

DESIGN:
  - robfig/cron drives the schedule (standard 5-field or @every/@hourly)
  - Each run replaces the previous alert set as a whole
  - Overlapping runs are skipped, not queued
  - A failed run keeps the previous alerts and logs the error

CONFIGURATION:
  - scheduler.enabled:       Whether the watch is started
  - scheduler.forecast_cron: Cron expression (default @hourly)

USAGE:
  watch, err := NewForecastWatch(engine, "@hourly", logger)
  watch.Start()
  // ... later
  watch.Stop()

SEE ALSO:
  - workpackage/alert.go: Engine.ScanForecasts
  - handlers.go: ListForecastAlerts endpoint
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/workpackage-engine/workpackage"
	"go.uber.org/zap"
)

// runTimeout bounds a single scan.
const runTimeout = 5 * time.Minute

// ForecastWatch runs Engine.ScanForecasts on a cron schedule.
type ForecastWatch struct {
	Engine *workpackage.Engine
	Log    *zap.Logger

	cron    *cron.Cron
	running sync.Mutex
	initial sync.WaitGroup // scan launched by Start

	mu      sync.RWMutex
	lastRun time.Time
	alerts  []workpackage.ForecastAlert
}

// NewForecastWatch creates a watch for the given schedule.
func NewForecastWatch(engine *workpackage.Engine, schedule string, log *zap.Logger) (*ForecastWatch, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw := &ForecastWatch{
		Engine: engine,
		Log:    log.Named("forecast-watch"),
		cron:   cron.New(),
	}

	if _, err := fw.cron.AddFunc(schedule, fw.tick); err != nil {
		return nil, fmt.Errorf("invalid forecast schedule %q: %w", schedule, err)
	}
	fw.Log.Info("job registered", zap.String("schedule", schedule))
	return fw, nil
}

// Start begins the schedule and runs one scan immediately.
func (fw *ForecastWatch) Start() {
	fw.cron.Start()
	fw.initial.Add(1)
	go func() {
		defer fw.initial.Done()
		fw.tick()
	}()
	fw.Log.Info("scheduler started")
}

// Stop stops the schedule and waits for every scan it started, including
// the one launched by Start, to finish.
func (fw *ForecastWatch) Stop() {
	ctx := fw.cron.Stop()
	<-ctx.Done()
	fw.initial.Wait()
	fw.running.Lock()
	fw.running.Unlock()
	fw.Log.Info("scheduler stopped")
}

func (fw *ForecastWatch) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	_ = fw.RunNow(ctx)
}

// RunNow performs one scan. It returns nil without scanning when another
// scan is in progress.
func (fw *ForecastWatch) RunNow(ctx context.Context) error {
	if !fw.running.TryLock() {
		fw.Log.Debug("scan already running, skipped")
		return nil
	}
	defer fw.running.Unlock()

	start := time.Now()
	alerts, err := fw.Engine.ScanForecasts(ctx)
	if err != nil {
		fw.Log.Error("job failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return err
	}

	fw.mu.Lock()
	fw.lastRun = start
	fw.alerts = alerts
	fw.mu.Unlock()

	fw.Log.Info("job completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("alerts", len(alerts)))
	return nil
}

// Alerts returns the time of the last successful scan and its alerts.
func (fw *ForecastWatch) Alerts() (time.Time, []workpackage.ForecastAlert) {
	fw.mu.RLock()
	defer fw.mu.RUnlock()

	out := make([]workpackage.ForecastAlert, len(fw.alerts))
	copy(out, fw.alerts)
	return fw.lastRun, out
}
