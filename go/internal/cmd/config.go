package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/scoreboard/go/internal/dbconfig"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port           string        `yaml:"port"`
	Store          string        `yaml:"store"`
	NatsURL        string        `yaml:"nats_url"`
	LogLevel       string        `yaml:"log_level"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	CASMaxAttempts int           `yaml:"cas_max_attempts"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	Bootstrap      struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"bootstrap"`

	Database dbconfig.Config `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Port:           "8080",
		Store:          StorePostgres,
		LogLevel:       "info",
		SessionTTL:     24 * time.Hour,
		SweepInterval:  10 * time.Minute,
		CASMaxAttempts: 5,
		AllowedOrigins: []string{"*"},
	}
}

// loadConfig applies defaults, then the optional YAML file at path, then
// environment variables.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Store = strings.ToLower(getEnv("STORE", cfg.Store))
	cfg.NatsURL = getEnv("NATS_URL", cfg.NatsURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.SessionTTL = getEnvAsDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.SweepInterval = getEnvAsDuration("SESSION_SWEEP_INTERVAL", cfg.SweepInterval)
	cfg.CASMaxAttempts = getEnvAsInt("CAS_MAX_ATTEMPTS", cfg.CASMaxAttempts)
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}
	cfg.Bootstrap.Email = getEnv("BOOTSTRAP_EMAIL", cfg.Bootstrap.Email)
	cfg.Bootstrap.Password = getEnv("BOOTSTRAP_PASSWORD", cfg.Bootstrap.Password)
	cfg.Database = dbconfig.NewConfigFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q (want %s or %s)", c.Store, StorePostgres, StoreMemory)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.CASMaxAttempts < 1 {
		return fmt.Errorf("CAS_MAX_ATTEMPTS must be at least 1")
	}
	if (c.Bootstrap.Email == "") != (c.Bootstrap.Password == "") {
		return fmt.Errorf("BOOTSTRAP_EMAIL and BOOTSTRAP_PASSWORD must be set together")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
