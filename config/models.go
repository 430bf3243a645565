package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/workpackage-engine/logging"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate ensures required fields are present and parseable.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if _, err := c.Engine.Location(); err != nil {
		return fmt.Errorf("engine.timezone: %w", err)
	}
	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.ForecastCron); err != nil {
			return fmt.Errorf("scheduler.forecast_cron: %w", err)
		}
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}
	return nil
}

// ServerAddr returns host:port for HTTP server binding.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ServerConfig contains HTTP server options.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig points at the SQLite file (":memory:" for ephemeral runs).
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// EngineConfig holds computation settings.
type EngineConfig struct {
	// Timezone in which "today" is taken.
	Timezone string `mapstructure:"timezone"`
}

// Location loads the reference time zone.
func (e EngineConfig) Location() (*time.Location, error) {
	return time.LoadLocation(e.Timezone)
}

// SchedulerConfig controls the forecast watch job.
type SchedulerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ForecastCron string `mapstructure:"forecast_cron"`
}

// LoggingConfig contains logger preferences.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Output is stdout, stderr or a file path.
	Output string `mapstructure:"output"`
}

// LoggerConfig converts the settings for logging.New.
func (l LoggingConfig) LoggerConfig() logging.Config {
	return logging.Config{Level: l.Level, Format: l.Format, Output: l.Output}
}
