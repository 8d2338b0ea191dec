package config

import (
	"os"
	"strconv"

	"goxtab/domain/run"
	"goxtab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Report   ReportConfig
	Defaults run.Config // engine defaults, overridable per run
}

// DatabaseConfig holds run-history database settings. The database is
// optional: with no URL configured, run history is disabled.
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// ReportConfig holds report output settings
type ReportConfig struct {
	OutputDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			Enabled: os.Getenv("DATABASE_URL") != "",
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Report: ReportConfig{
			OutputDir: getEnvOrDefault("REPORT_DIR", "reports"),
		},
		Defaults: loadRunDefaults(),
	}

	if err := cfg.Defaults.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid engine defaults in environment")
	}
	return cfg, nil
}

// loadRunDefaults builds the engine defaults, applying env overrides
func loadRunDefaults() run.Config {
	cfg := run.DefaultConfig()
	if v, ok := floatEnv("SIG_ALPHA"); ok {
		cfg.Alpha = v
	}
	if v, ok := intEnv("SIG_MIN_BASE"); ok {
		cfg.MinBase = v
	}
	if os.Getenv("SIG_BONFERRONI") == "true" {
		cfg.Bonferroni = true
	}
	if os.Getenv("SIG_OVERALL_CHISQ") == "true" {
		cfg.OverallChiSquare = true
	}
	if v, ok := intEnv("TAB_PRECISION"); ok {
		cfg.Precision = v
	}
	if v, ok := intEnv("TAB_WORKERS"); ok {
		cfg.Workers = v
	}
	return cfg
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func floatEnv(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
