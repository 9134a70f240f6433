// Package config loads the server configuration from YAML and the
// environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Limits   LimitsConfig   `yaml:"limits"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// DatabaseConfig contains the session database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig contains the token usage ledger configuration
type LedgerConfig struct {
	Path              string  `yaml:"path"`
	MonthlyTokenLimit int     `yaml:"monthly_token_limit"`
	WarningThreshold  float64 `yaml:"warning_threshold"`
}

// OpenAIConfig contains the completion provider configuration. The API
// key is never read from YAML.
type OpenAIConfig struct {
	APIKey         string        `yaml:"-"` // Not in YAML, loaded from env
	Model          string        `yaml:"model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxTokens      int           `yaml:"max_tokens"`
	Temperature    float64       `yaml:"temperature"`
}

// LimitsConfig contains the chat policy ceilings
type LimitsConfig struct {
	MaxMessageLength      int           `yaml:"max_message_length"`
	MaxFormLength         int           `yaml:"max_form_length"`
	MaxHistoryMessages    int           `yaml:"max_history_messages"`
	MaxMessagesPerSession int           `yaml:"max_messages_per_session"`
	MaxSessionDuration    time.Duration `yaml:"max_session_duration"`
	RateWindow            time.Duration `yaml:"rate_window"`
	GlobalRPS             float64       `yaml:"global_rps"`
	GlobalBurst           int           `yaml:"global_burst"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Mode string `yaml:"mode"`
}

// Load loads configuration from a YAML file and environment variables
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", "")
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// Completion calls can take up to 30s; the write timeout must
		// outlast them.
		c.Server.WriteTimeout = 45 * time.Second
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/sessions.db"
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "./data/token-usage.json"
	}
	if c.Ledger.MonthlyTokenLimit == 0 {
		c.Ledger.MonthlyTokenLimit = 1_000_000
	}
	if c.Ledger.WarningThreshold == 0 {
		c.Ledger.WarningThreshold = 0.8
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.RequestTimeout == 0 {
		c.OpenAI.RequestTimeout = 30 * time.Second
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 1024
	}
	if c.Limits.MaxMessageLength == 0 {
		c.Limits.MaxMessageLength = 400
	}
	if c.Limits.MaxFormLength == 0 {
		c.Limits.MaxFormLength = 500
	}
	if c.Limits.MaxHistoryMessages == 0 {
		c.Limits.MaxHistoryMessages = 20
	}
	if c.Limits.MaxMessagesPerSession == 0 {
		c.Limits.MaxMessagesPerSession = 80
	}
	if c.Limits.MaxSessionDuration == 0 {
		c.Limits.MaxSessionDuration = 45 * time.Minute
	}
	if c.Limits.RateWindow == 0 {
		c.Limits.RateWindow = time.Hour
	}
	if c.Logging.Mode == "" {
		c.Logging.Mode = "production"
	}
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Address returns the server address string
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
