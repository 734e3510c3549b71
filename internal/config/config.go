package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string
	LogLevel string

	// Feed files. Relative names are resolved against DataDir.
	DataDir        string
	GlobalFile     string
	IndicatorsFile string
	CountriesFile  string

	// ReloadInterval rebuilds the dataset from the files periodically (0 = off).
	ReloadInterval time.Duration
	// CollectInterval refreshes the files from upstream, then reloads (0 = off).
	CollectInterval time.Duration
	HTTPTimeout     time.Duration

	TopCacheTTL      time.Duration
	ForecastMaxYears int

	// Upstream base URLs for the collectors; empty selects the public APIs.
	WorldBankURL  string
	VitalSignsURL string

	CORSOrigins string
	StaticDir   string
	AdminReload bool
}

// Load reads configuration from environment with sensible defaults. A .env
// file in the working directory is applied first when present.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:             getenvDefault("PORT", "8080"),
		LogLevel:         getenvDefault("LOG_LEVEL", "info"),
		DataDir:          getenvDefault("DATA_DIR", "data"),
		GlobalFile:       getenvDefault("GLOBAL_DATA_FILE", "nasa_data.json"),
		IndicatorsFile:   getenvDefault("COUNTRY_DATA_FILE", "worldbank_data.json"),
		CountriesFile:    getenvDefault("METADATA_FILE", "countries_data.json"),
		ForecastMaxYears: getenvInt("FORECAST_MAX_YEARS", 50),
		WorldBankURL:     os.Getenv("WORLDBANK_API_URL"),
		VitalSignsURL:    os.Getenv("VITAL_SIGNS_URL"),
		CORSOrigins:      getenvDefault("CORS_ORIGINS", "*"),
		StaticDir:        os.Getenv("STATIC_DIR"),
		AdminReload:      getenvBool("ADMIN_RELOAD", true),
	}

	var err error
	if cfg.ReloadInterval, err = getenvDuration("RELOAD_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if cfg.CollectInterval, err = getenvDuration("COLLECT_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.TopCacheTTL, err = getenvDuration("TOP_CACHE_TTL", "5m"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback.
func (c *AppConfig) Validate() error {
	if c.ReloadInterval < 0 || c.CollectInterval < 0 {
		return fmt.Errorf("intervals must not be negative")
	}
	if c.ForecastMaxYears <= 0 {
		return fmt.Errorf("FORECAST_MAX_YEARS must be positive, got %d", c.ForecastMaxYears)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	return nil
}

// GlobalPath returns the resolved path of the global indicator file.
func (c *AppConfig) GlobalPath() string { return c.resolve(c.GlobalFile) }

// IndicatorsPath returns the resolved path of the per-country indicator file.
func (c *AppConfig) IndicatorsPath() string { return c.resolve(c.IndicatorsFile) }

// CountriesPath returns the resolved path of the country metadata file.
func (c *AppConfig) CountriesPath() string { return c.resolve(c.CountriesFile) }

func (c *AppConfig) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
