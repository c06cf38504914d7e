package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalid marks configuration that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Validate ensures the whole configuration is usable.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.ValidateAI,
		c.ValidateCache,
		c.ValidateSentiment,
		c.ValidateFineTuning,
		c.ValidateLogging,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAI checks the requester settings.
func (c *Config) ValidateAI() error {
	if strings.TrimSpace(c.AI.APIKey) == "" {
		return invalid("ai.api_key is required. Set it in the config file or via AI_API_KEY / OPENAI_API_KEY")
	}
	if err := validateHTTPURL("ai.base_url", c.AI.BaseURL); err != nil {
		return err
	}
	if c.AI.Timeout <= 0 {
		return invalid("ai.timeout must be positive")
	}
	if c.AI.MaxRetries < 1 {
		return invalid("ai.max_retries must be at least 1")
	}
	if c.AI.BackoffBase < 0 || c.AI.BackoffMax < 0 {
		return invalid("ai.backoff_base and ai.backoff_max must not be negative")
	}
	if c.AI.RequestsPerSecond < 0 {
		return invalid("ai.requests_per_second must not be negative")
	}
	switch c.AI.PartialResults {
	case "merge", "passthrough":
	default:
		return invalid(fmt.Sprintf("ai.partial_results must be merge or passthrough, got %q", c.AI.PartialResults))
	}
	return nil
}

// ValidateCache checks the cache backend selection.
func (c *Config) ValidateCache() error {
	switch c.Cache.Backend {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return invalid("db_path must be set when cache.backend is sqlite")
		}
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			return invalid("cache.redis.addr must be set when cache.backend is redis")
		}
	default:
		return invalid(fmt.Sprintf("cache.backend must be memory, sqlite or redis, got %q", c.Cache.Backend))
	}
	return nil
}

// ValidateSentiment checks the sentiment strategy.
func (c *Config) ValidateSentiment() error {
	switch c.Sentiment.Strategy {
	case "basic", "llm":
		return nil
	default:
		return invalid(fmt.Sprintf("sentiment.strategy must be basic or llm, got %q", c.Sentiment.Strategy))
	}
}

// ValidateFineTuning checks the fine-tuning endpoint.
func (c *Config) ValidateFineTuning() error {
	return validateHTTPURL("fine_tuning.url", c.FineTuning.URL)
}

// ValidateLogging checks the log level and format.
func (c *Config) ValidateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return invalid(fmt.Sprintf("logging.level %q is not supported", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return invalid(fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid(fmt.Sprintf("%s must be an absolute http(s) URL, got %q", field, raw))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}
