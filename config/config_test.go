package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workpackage-engine/config"
	"github.com/warp/workpackage-engine/logging"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "Europe/Madrid", cfg.Engine.Timezone)
	assert.Equal(t, "@hourly", cfg.Scheduler.ForecastCron)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr())
	assert.Equal(t, logging.DefaultConfig(), cfg.Logging.LoggerConfig())
}

func TestLoad_LogOutputReachesLogger(t *testing.T) {
	// GIVEN: a log file configured through the environment
	path := filepath.Join(t.TempDir(), "engine.log")
	t.Setenv("WP_LOGGING_OUTPUT", path)
	t.Setenv("WP_LOGGING_LEVEL", "debug")

	// WHEN: the config is loaded and turned into a logger
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	logger, err := logging.New(cfg.Logging.LoggerConfig())
	require.NoError(t, err)
	logger.Debug("configured")
	require.NoError(t, logger.Sync())

	// THEN: the entry is written to the configured file
	assert.Equal(t, path, cfg.Logging.Output)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "configured")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("WP_SERVER_PORT", "9090")
	t.Setenv("WP_ENGINE_TIMEZONE", "UTC")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	loc, err := cfg.Engine.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("WP_DATABASE_PATH=/tmp/wp-test.db\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("WP_DATABASE_PATH") })

	cfg, err := config.Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/wp-test.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		Server:    config.ServerConfig{Port: 8080},
		Database:  config.DatabaseConfig{Path: ":memory:"},
		Engine:    config.EngineConfig{Timezone: "UTC"},
		Scheduler: config.SchedulerConfig{Enabled: true, ForecastCron: "0 * * * *"},
		Logging:   config.LoggingConfig{Level: "info", Format: "json"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"port out of range", func(c *config.Config) { c.Server.Port = 0 }},
		{"missing database path", func(c *config.Config) { c.Database.Path = "" }},
		{"unknown timezone", func(c *config.Config) { c.Engine.Timezone = "Mars/Olympus" }},
		{"bad cron", func(c *config.Config) { c.Scheduler.ForecastCron = "every hour" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_DisabledSchedulerIgnoresCron(t *testing.T) {
	cfg := config.Config{
		Server:    config.ServerConfig{Port: 8080},
		Database:  config.DatabaseConfig{Path: ":memory:"},
		Engine:    config.EngineConfig{Timezone: "UTC"},
		Scheduler: config.SchedulerConfig{Enabled: false, ForecastCron: "nonsense"},
		Logging:   config.LoggingConfig{Format: "console"},
	}
	assert.NoError(t, cfg.Validate())
}
