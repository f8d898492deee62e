// Package config loads runtime settings for the audit server and CLI.
// Settings come from the environment (optionally seeded from a .env file);
// audit thresholds come from an optional YAML policy file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/ledgeraudit/internal/audit"
)

// Config holds all runtime settings. Load it once at startup.
type Config struct {
	// DBDriver selects the storage dialect: "sqlite" or "postgres".
	DBDriver string

	// DBPath is the SQLite database file, used when DBDriver is sqlite.
	DBPath string

	// DatabaseURL is the Postgres connection string, used when DBDriver is postgres.
	DatabaseURL string

	Port int

	// AuthSecret signs API tokens. An empty secret disables authentication.
	AuthSecret   string
	AuthTokenTTL time.Duration

	// RateLimitRPS and RateLimitBurst bound audit runs per second.
	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogFormat string

	// PolicyPath is the optional YAML file holding audit thresholds.
	PolicyPath string
	Policy     audit.Policy
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DBPath
}

// Load reads .env (if present) and the environment, then the policy file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBPath:         getEnv("DB_PATH", "./data/ledger.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Port:           getEnvInt("PORT", 8080),
		AuthSecret:     getEnv("AUTH_SECRET", ""),
		AuthTokenTTL:   getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		PolicyPath:     getEnv("POLICY_PATH", ""),
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	policy, err := LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy

	return cfg, nil
}

// LoadPolicy reads audit thresholds from a YAML file, keeping defaults for
// any key the file omits. An empty path yields the default policy.
func LoadPolicy(path string) (audit.Policy, error) {
	policy := audit.DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return audit.Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return audit.Policy{}, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return audit.Policy{}, fmt.Errorf("invalid policy file %s: %w", path, err)
	}
	return policy, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvFloat(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}
