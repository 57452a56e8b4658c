// Package config loads application configuration from environment variables.
// All variables use the VOCA_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Config holds all application configuration.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Cache          CacheConfig
	AI             AIConfig
	Assessment     AssessmentConfig
	Alerts         AlertConfig
	Log            LogConfig
	Locale         string
	CurriculumPath string
	// SeedPath optionally names a YAML roster loaded into the in-memory
	// group store at startup.
	SeedPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	Host            string
	ShutdownTimeout time.Duration
	// AllowedOrigins are host patterns accepted for cross-origin websocket clients.
	AllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL selects
// the in-memory stores.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// CacheConfig holds Redis connection settings. An empty URL disables the
// progress cache.
type CacheConfig struct {
	URL         string
	Namespace   string // key prefix shared by every cached view
	ProgressTTL time.Duration
}

// AIConfig holds configuration for the lesson plan backends.
type AIConfig struct {
	OpenAI  OpenAIConfig
	Ollama  OllamaConfig
	Timeout time.Duration // per provider attempt
}

// OpenAIConfig holds OpenAI-compatible provider settings.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
	Model   string
}

// AssessmentConfig holds defaults applied to new assessment rows.
type AssessmentConfig struct {
	DueDays      int
	Method       string
	StoreTimeout time.Duration
}

// AlertConfig holds the per-student alert thresholds, in percentage points
// behind projected progress.
type AlertConfig struct {
	AtRiskGap  float64
	StalledGap float64
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with VOCA_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("VOCA_SERVER_PORT", 8080),
			Host:            envStr("VOCA_SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: envDuration("VOCA_SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  envList("VOCA_SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			URL:         envStr("VOCA_DATABASE_URL", ""),
			MaxConns:    envInt("VOCA_DATABASE_MAX_CONNS", 25),
			MinConns:    envInt("VOCA_DATABASE_MIN_CONNS", 5),
			AutoMigrate: envBool("VOCA_DATABASE_AUTO_MIGRATE", true),
		},
		Cache: CacheConfig{
			URL:         envStr("VOCA_CACHE_URL", ""),
			Namespace:   envStr("VOCA_CACHE_NAMESPACE", "voca"),
			ProgressTTL: envDuration("VOCA_CACHE_PROGRESS_TTL", 5*time.Minute),
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				APIKey:  envStr("VOCA_AI_OPENAI_API_KEY", ""),
				BaseURL: envStr("VOCA_AI_OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:   envStr("VOCA_AI_OPENAI_MODEL", "gpt-4o-mini"),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("VOCA_AI_OLLAMA_ENABLED", false),
				URL:     envStr("VOCA_AI_OLLAMA_URL", "http://localhost:11434"),
				Model:   envStr("VOCA_AI_OLLAMA_MODEL", "llama3.1"),
			},
			Timeout: envDuration("VOCA_AI_TIMEOUT", 30*time.Second),
		},
		Assessment: AssessmentConfig{
			DueDays:      envInt("VOCA_ASSESSMENT_DUE_DAYS", 7),
			Method:       envStr("VOCA_ASSESSMENT_METHOD", "OBSERVATION"),
			StoreTimeout: envDuration("VOCA_ASSESSMENT_STORE_TIMEOUT", 10*time.Second),
		},
		Alerts: AlertConfig{
			AtRiskGap:  envFloat("VOCA_ALERT_AT_RISK_GAP", 10),
			StalledGap: envFloat("VOCA_ALERT_STALLED_GAP", 25),
		},
		Log: LogConfig{
			Level:  envStr("VOCA_LOG_LEVEL", "info"),
			Format: envStr("VOCA_LOG_FORMAT", "json"),
		},
		Locale:         envStr("VOCA_LOCALE", "en"),
		CurriculumPath: envStr("VOCA_CURRICULUM_PATH", "./curriculum"),
		SeedPath:       envStr("VOCA_SEED_PATH", ""),
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("VOCA_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.CurriculumPath == "" {
		return fmt.Errorf("VOCA_CURRICULUM_PATH is required")
	}

	if c.Assessment.DueDays < 0 {
		return fmt.Errorf("VOCA_ASSESSMENT_DUE_DAYS must not be negative, got %d", c.Assessment.DueDays)
	}

	if c.Assessment.StoreTimeout <= 0 {
		return fmt.Errorf("VOCA_ASSESSMENT_STORE_TIMEOUT must be positive, got %s", c.Assessment.StoreTimeout)
	}

	if c.Alerts.AtRiskGap < 0 || c.Alerts.StalledGap < c.Alerts.AtRiskGap {
		return fmt.Errorf("alert thresholds must satisfy 0 <= VOCA_ALERT_AT_RISK_GAP (%v) <= VOCA_ALERT_STALLED_GAP (%v)",
			c.Alerts.AtRiskGap, c.Alerts.StalledGap)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("VOCA_LOG_LEVEL must be debug, info, warn or error, got %q", c.Log.Level)
	}

	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("VOCA_LOCALE %q: %w", c.Locale, err)
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" || c.AI.Ollama.Enabled
}

// Language returns the configured locale, falling back to English.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
