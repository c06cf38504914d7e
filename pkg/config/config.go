package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all module configuration.
type Config struct {
	Listen     string           `yaml:"listen"`
	DBPath     string           `yaml:"db_path"`
	AI         AIConfig         `yaml:"ai"`
	Completion CompletionConfig `yaml:"completion"`
	Cache      CacheConfig      `yaml:"cache"`
	Sentiment  SentimentConfig  `yaml:"sentiment"`
	FineTuning FineTuningConfig `yaml:"fine_tuning"`
	Server     ServerConfig     `yaml:"server"`
	Tracking   TrackingConfig   `yaml:"tracking"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AIConfig configures the chat-completion requester.
type AIConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	Temperature       float64       `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	BackoffBase       time.Duration `yaml:"backoff_base"`
	BackoffMax        time.Duration `yaml:"backoff_max"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	// PartialResults is "merge" or "passthrough".
	PartialResults string `yaml:"partial_results"`
}

// CompletionConfig configures the single-shot completion action.
// Empty APIKey and BaseURL inherit from AIConfig.
type CompletionConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig selects and tunes the result cache backend.
type CacheConfig struct {
	// Backend is "memory", "sqlite" or "redis".
	Backend      string      `yaml:"backend"`
	SingleFlight bool        `yaml:"single_flight"`
	Redis        RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SentimentConfig selects the sentiment analyzer strategy.
type SentimentConfig struct {
	// Strategy is "basic" or "llm".
	Strategy string `yaml:"strategy"`
}

// FineTuningConfig points at the fine-tuning backend.
type FineTuningConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig tunes the HTTP API.
type ServerConfig struct {
	// RequestsPerMinute throttles the /ai routes; 0 disables throttling.
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// TrackingConfig controls the invocation tracker.
type TrackingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "aimod.db",
		AI: AIConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4",
			Temperature:    0.3,
			MaxTokens:      2000,
			Timeout:        30 * time.Second,
			MaxRetries:     3,
			BackoffBase:    time.Second,
			BackoffMax:     60 * time.Second,
			PartialResults: "merge",
		},
		Completion: CompletionConfig{
			Model:   "gpt-3.5-turbo-instruct",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:      "memory",
			SingleFlight: true,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Sentiment: SentimentConfig{
			Strategy: "basic",
		},
		FineTuning: FineTuningConfig{
			URL:     "http://localhost:8000/api/fine-tuning",
			Timeout: 60 * time.Second,
		},
		Server: ServerConfig{
			RequestsPerMinute: 60,
			ShutdownTimeout:   5 * time.Second,
		},
		Tracking: TrackingConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv fills credentials that were left empty from the environment.
func (c *Config) ApplyEnv() {
	if strings.TrimSpace(c.AI.APIKey) == "" {
		for _, name := range []string{"AI_API_KEY", "OPENAI_API_KEY"} {
			if v := strings.TrimSpace(os.Getenv(name)); v != "" {
				c.AI.APIKey = v
				break
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("FINE_TUNING_API_URL")); v != "" {
		c.FineTuning.URL = v
	}
}

// CompletionAPIKey returns the completion key, inheriting the chat key when unset.
func (c *Config) CompletionAPIKey() string {
	if c.Completion.APIKey != "" {
		return c.Completion.APIKey
	}
	return c.AI.APIKey
}

// CompletionBaseURL returns the completion base URL, inheriting the chat URL when unset.
func (c *Config) CompletionBaseURL() string {
	if c.Completion.BaseURL != "" {
		return c.Completion.BaseURL
	}
	return c.AI.BaseURL
}
