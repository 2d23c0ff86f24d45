package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.DBPath != ":memory:" {
		t.Errorf("Expected in-memory database, got %s", cfg.DBPath)
	}
	if cfg.QuestionBank.Amount != 5 || cfg.QuestionBank.Category != 9 || cfg.QuestionBank.Type != "multiple" {
		t.Errorf("Unexpected question bank defaults: %+v", cfg.QuestionBank)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("Expected info level, got %v", cfg.LogLevel)
	}
	if !cfg.IsDevelopment() {
		t.Error("Expected development mode without FRONTEND_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("QUESTION_AMOUNT", "10")
	t.Setenv("QUESTION_BANK_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FRONTEND_URL", "https://quiz.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.QuestionBank.Amount != 10 {
		t.Errorf("Expected amount 10, got %d", cfg.QuestionBank.Amount)
	}
	if cfg.QuestionBank.Timeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %v", cfg.QuestionBank.Timeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.IsDevelopment() {
		t.Error("Expected production mode")
	}
	if got := cfg.AllowedOrigins(); len(got) != 1 || got[0] != "https://quiz.example.com" {
		t.Errorf("Unexpected allowed origins: %v", got)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("QUESTION_AMOUNT", "lots")
	t.Setenv("QUIZ_SESSION_TTL", "forever")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QuestionBank.Amount != 5 {
		t.Errorf("Expected fallback amount 5, got %d", cfg.QuestionBank.Amount)
	}
	if cfg.SessionTTL != 60*time.Minute {
		t.Errorf("Expected fallback TTL, got %v", cfg.SessionTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }},
		{"bad url", func(c *Config) { c.QuestionBank.URL = "not a url" }},
		{"too many questions", func(c *Config) { c.QuestionBank.Amount = 51 }},
		{"negative interval", func(c *Config) { c.QuestionBank.MinInterval = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
