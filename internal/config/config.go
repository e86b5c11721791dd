// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an
// error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend kinds selectable via the BACKEND variable.
const (
	BackendPostgres = "postgres"
	BackendREST     = "rest"
)

// Config holds all runtime configuration for the tracker service.
type Config struct {
	Port                 string
	Backend              string // "postgres" or "rest"
	DatabaseURL          string // postgres backend
	DataAPIURL           string // rest backend: service base URL
	DataAPIKey           string // rest backend: opaque access credential
	RedisURL             string
	RefreshIntervalHours int
	SaveDebounce         time.Duration
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Backend:              BackendPostgres,
		RefreshIntervalHours: 6,
	}

	if b := os.Getenv("BACKEND"); b != "" {
		if b != BackendPostgres && b != BackendREST {
			return nil, fmt.Errorf("BACKEND must be %q or %q, got %q", BackendPostgres, BackendREST, b)
		}
		cfg.Backend = b
	}

	switch cfg.Backend {
	case BackendPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case BackendREST:
		cfg.DataAPIURL = os.Getenv("DATA_API_URL")
		if cfg.DataAPIURL == "" {
			return nil, fmt.Errorf("DATA_API_URL is required")
		}
		cfg.DataAPIKey = os.Getenv("DATA_API_KEY")
		if cfg.DataAPIKey == "" {
			return nil, fmt.Errorf("DATA_API_KEY is required")
		}
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	if s := os.Getenv("REFRESH_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("REFRESH_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		cfg.RefreshIntervalHours = v
	}

	if s := os.Getenv("SAVE_DEBOUNCE_MS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SAVE_DEBOUNCE_MS must be a positive integer, got %q", s)
		}
		cfg.SaveDebounce = time.Duration(v) * time.Millisecond
	}

	cfg.Port = os.Getenv("TRACKER_PORT")
	if cfg.Port == "" {
		cfg.Port = "8082"
	}

	return cfg, nil
}
