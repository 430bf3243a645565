// Package config loads application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/warp/workpackage-engine/logging"
)

// DefaultEnvFile is read before the process environment; variables already
// set in the environment win.
const DefaultEnvFile = ".env"

// Load reads configuration from envFile and the environment using viper
// with typed defaults and validation. A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v.SetEnvPrefix("WP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	logDefaults := logging.DefaultConfig()
	v.SetDefault("logging.level", logDefaults.Level)
	v.SetDefault("logging.format", logDefaults.Format)
	v.SetDefault("logging.output", logDefaults.Output)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.path", "./data/workpackages.db")

	v.SetDefault("engine.timezone", "Europe/Madrid")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.forecast_cron", "@hourly")
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"logging.level",
		"logging.format",
		"logging.output",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"database.path",
		"engine.timezone",
		"scheduler.enabled",
		"scheduler.forecast_cron",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
