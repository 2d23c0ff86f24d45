// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	DBPath         string // ":memory:" keeps everything in process memory
	GRPCPort       string // empty disables the gRPC health server
	LogLevel       slog.Level
	SessionTTL     time.Duration
	ReaperInterval time.Duration
	QuestionBank   QuestionBankConfig
}

// QuestionBankConfig controls the upstream trivia source.
type QuestionBankConfig struct {
	URL         string
	Amount      int
	Category    int
	Type        string
	Timeout     time.Duration
	MinInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", ":memory:"),
		GRPCPort:       getEnv("GRPC_PORT", ""),
		LogLevel:       getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		SessionTTL:     getEnvDuration("QUIZ_SESSION_TTL", 60*time.Minute),
		ReaperInterval: getEnvDuration("QUIZ_REAPER_INTERVAL", 5*time.Minute),
		QuestionBank: QuestionBankConfig{
			URL:         getEnv("QUESTION_BANK_URL", "https://opentdb.com/api.php"),
			Amount:      getEnvInt("QUESTION_AMOUNT", 5),
			Category:    getEnvInt("QUESTION_CATEGORY", 9),
			Type:        getEnv("QUESTION_TYPE", "multiple"),
			Timeout:     getEnvDuration("QUESTION_BANK_TIMEOUT", 10*time.Second),
			MinInterval: getEnvDuration("QUESTION_BANK_MIN_INTERVAL", 5*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("QUIZ_SESSION_TTL must be > 0")
	}
	if c.ReaperInterval <= 0 {
		return fmt.Errorf("QUIZ_REAPER_INTERVAL must be > 0")
	}
	if _, err := url.ParseRequestURI(c.QuestionBank.URL); err != nil {
		return fmt.Errorf("QUESTION_BANK_URL is not a valid URL: %w", err)
	}
	if c.QuestionBank.Amount <= 0 || c.QuestionBank.Amount > 50 {
		return fmt.Errorf("QUESTION_AMOUNT must be between 1 and 50")
	}
	if c.QuestionBank.Category < 0 {
		return fmt.Errorf("QUESTION_CATEGORY cannot be negative")
	}
	if c.QuestionBank.Timeout <= 0 {
		return fmt.Errorf("QUESTION_BANK_TIMEOUT must be > 0")
	}
	if c.QuestionBank.MinInterval < 0 {
		return fmt.Errorf("QUESTION_BANK_MIN_INTERVAL cannot be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the CORS origins for the API.
func (c *Config) AllowedOrigins() []string {
	if c.IsDevelopment() {
		return []string{"*"}
	}
	return []string{strings.TrimRight(c.FrontendURL, "/")}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
