package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort   string        `yaml:"server_port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Ingestion
	BatchSize int   `yaml:"batch_size"`
	MaxIDs    int   `yaml:"max_ids"`
	MaxItemID int64 `yaml:"max_item_id"`

	// Worker
	RateLimitInterval time.Duration `yaml:"rate_limit_interval"`
	ItemLatency       time.Duration `yaml:"item_latency"`

	// Audit log, disabled when empty
	DatabaseURL string `yaml:"database_url"`

	// Logging
	LogLevel slog.Level `yaml:"-"`
	LogFile  string     `yaml:"log_file"`

	LogLevelName string `yaml:"log_level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ServerPort:        "8000",
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		BatchSize:         3,
		MaxIDs:            1000,
		MaxItemID:         1_000_000_007,
		RateLimitInterval: 5 * time.Second,
		ItemLatency:       time.Second,
		LogLevelName:      "INFO",
		LogLevel:          slog.LevelInfo,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.LogLevelName = getEnv("LOG_LEVEL", cfg.LogLevelName)

	var err error
	if cfg.BatchSize, err = getEnvInt("BATCH_SIZE", cfg.BatchSize); err != nil {
		return nil, err
	}
	if cfg.MaxIDs, err = getEnvInt("MAX_IDS", cfg.MaxIDs); err != nil {
		return nil, err
	}
	if cfg.RateLimitInterval, err = getEnvDuration("RATE_LIMIT_INTERVAL", cfg.RateLimitInterval); err != nil {
		return nil, err
	}
	if cfg.ItemLatency, err = getEnvDuration("ITEM_LATENCY", cfg.ItemLatency); err != nil {
		return nil, err
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the scheduler cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.ServerPort == "" {
		errs = append(errs, errors.New("server_port must not be empty"))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.MaxIDs <= 0 {
		errs = append(errs, fmt.Errorf("max_ids must be positive, got %d", c.MaxIDs))
	}
	if c.MaxItemID < 1 {
		errs = append(errs, fmt.Errorf("max_item_id must be at least 1, got %d", c.MaxItemID))
	}
	if c.RateLimitInterval <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit_interval must be positive, got %s", c.RateLimitInterval))
	}
	if c.ItemLatency < 0 {
		errs = append(errs, fmt.Errorf("item_latency must not be negative, got %s", c.ItemLatency))
	}
	return errors.Join(errs...)
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
