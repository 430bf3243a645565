package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/warp/workpackage-engine/config"
	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/logging"
	"github.com/warp/workpackage-engine/store/sqlite"
	"github.com/warp/workpackage-engine/workpackage"
	"go.uber.org/zap"
)

var (
	envFile string
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Work package consumption engine",
	Long: `Tracks consumption of prepaid support contracts: monthly evolution,
carryover between validity periods, KPIs, regularization forecasts and
per-ticket consumption reports.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "environment file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides WP_DATABASE_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evolutionCmd)
	rootCmd.AddCommand(ticketsCmd)
	rootCmd.AddCommand(loadScenarioCmd)
}

// app holds the dependencies every subcommand needs.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	store  *sqlite.Store
	engine *workpackage.Engine
}

// newApp loads configuration and opens the store. Callers must Close it.
func newApp() (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	log, err := logging.New(cfg.Logging.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	loc, err := cfg.Engine.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone: %w", err)
	}

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	engine := workpackage.NewEngine(store, generic.ZoneClock{Location: loc}, log)
	return &app{cfg: cfg, log: log, store: store, engine: engine}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close database", zap.Error(err))
	}
	_ = a.log.Sync()
}
