// Package config loads runtime configuration from the environment and
// solver parameters from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Params are the tunables of a planning run.
type Params struct {
	HorizonDays      int     `yaml:"horizon_days"`
	Quantile         float64 `yaml:"quantile"`
	ShortfallPenalty float64 `yaml:"shortfall_penalty"`
	PlanningTime     string  `yaml:"planning_time"`
}

// DefaultParams returns the stock parameters used when no params file is
// configured.
func DefaultParams() Params {
	return Params{
		HorizonDays:      30,
		Quantile:         0.95,
		ShortfallPenalty: 1.0,
		PlanningTime:     "15:00",
	}
}

// Config is the full runtime configuration.
type Config struct {
	DataDir    string
	DBPath     string
	KPILogPath string
	ParamsPath string
	Port       int
	LogLevel   string
	DevMode    bool
	Schedule   string

	ArchiveBucket string
	ArchivePrefix string
	AWSRegion     string
	AWSAccessKey  string
	AWSSecretKey  string

	Params Params
}

// Load reads configuration from the environment, consulting a .env file
// when present, and loads the params file if one is configured.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	cfg := &Config{
		DataDir:    getEnv("DATA_DIR", "./data"),
		DBPath:     getEnv("DB_PATH", "./data/fundflow.db"),
		KPILogPath: getEnv("KPI_LOG_PATH", "./data/kpi.jsonl"),
		ParamsPath: getEnv("PARAMS_PATH", ""),
		Port:       port,
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DevMode:    getEnv("DEV_MODE", "false") == "true",
		Schedule:   getEnv("RUN_SCHEDULE", ""),

		ArchiveBucket: getEnv("ARCHIVE_BUCKET", ""),
		ArchivePrefix: getEnv("ARCHIVE_PREFIX", "plans"),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKey:  getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),

		Params: DefaultParams(),
	}

	if cfg.ParamsPath != "" {
		params, err := LoadParams(cfg.ParamsPath)
		if err != nil {
			return nil, err
		}
		cfg.Params = params
	}
	return cfg, nil
}

// LoadParams reads and validates a YAML params file. Fields left unset
// keep their defaults.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read params file: %w", err)
	}

	params := DefaultParams()
	if err := yaml.Unmarshal(data, &params); err != nil {
		return Params{}, fmt.Errorf("parse params file: %w", err)
	}

	if params.HorizonDays <= 0 {
		return Params{}, fmt.Errorf("horizon_days must be positive, got %d", params.HorizonDays)
	}
	if params.Quantile < 0 || params.Quantile > 1 {
		return Params{}, fmt.Errorf("quantile must be in [0, 1], got %v", params.Quantile)
	}
	if params.ShortfallPenalty < 0 {
		return Params{}, fmt.Errorf("shortfall_penalty must be non-negative, got %v", params.ShortfallPenalty)
	}
	return params, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
