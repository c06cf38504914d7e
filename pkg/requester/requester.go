// Package requester sends prompts to an OpenAI-compatible chat endpoint,
// retrying failed attempts with exponential backoff.
package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/laraxot/module-ai-fila5/pkg/logging"
	"github.com/laraxot/module-ai-fila5/pkg/models"
)

const (
	defaultModel       = "gpt-4"
	defaultTemperature = 0.3
	defaultMaxTokens   = 2000
	defaultBackoffBase = time.Second
	defaultBackoffMax  = 60 * time.Second
	maxLoggedBody      = 2048
	maxResponseBody    = 4 << 20
	maxBackoff         = time.Duration(math.MaxInt64)
	contentPath        = "choices.0.message.content"
)

// Config is the immutable request context shared by every call.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// Client issues chat-completion requests.
type Client struct {
	cfg         Config
	endpoint    string
	httpClient  *http.Client
	logger      *slog.Logger
	limiter     *rate.Limiter
	backoffBase time.Duration
	backoffMax  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The client is copied and
// its timeout replaced by Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for failed attempts.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// WithBackoff overrides the delay after the first failure and the ceiling.
// A zero max leaves the delay uncapped.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		c.backoffBase = base
		c.backoffMax = max
	}
}

// WithRateLimit spaces attempts to at most rps per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithSleeper overrides how backoff delays are waited out (useful for tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New validates cfg and returns a Client. Invalid settings fail here, before
// any request is attempted.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrConfiguration)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be an absolute http(s) URL", ErrConfiguration, cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive", ErrConfiguration)
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("%w: max retries must be at least 1", ErrConfiguration)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	c := &Client{
		cfg:         cfg,
		endpoint:    base.JoinPath("chat", "completions").String(),
		httpClient:  &http.Client{},
		logger:      logging.NewNop(),
		backoffBase: defaultBackoffBase,
		backoffMax:  defaultBackoffMax,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backoffBase < 0 || c.backoffMax < 0 {
		return nil, fmt.Errorf("%w: backoff must not be negative", ErrConfiguration)
	}
	hc := *c.httpClient
	hc.Timeout = cfg.Timeout
	c.httpClient = &hc
	return c, nil
}

// DefaultConfig returns the stock model parameters with the given credentials.
func DefaultConfig(apiKey, baseURL string) Config {
	return Config{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       defaultModel,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		Timeout:     30 * time.Second,
		MaxRetries:  3,
	}
}

// Send posts one prompt and returns choices[0].message.content. A 2xx reply
// without that field yields "" and no error. Failed attempts are retried up
// to MaxRetries in total; then an *ExhaustedError is returned.
func (c *Client) Send(ctx context.Context, task models.Task, systemPrompt, prompt string) (string, error) {
	body, err := json.Marshal(models.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []models.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		content, err := c.do(ctx, body)
		if err == nil {
			return content, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		lastErr = err
		c.logFailure(task, attempt, err)

		if attempt == c.cfg.MaxRetries {
			break
		}
		if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
			return "", err
		}
	}

	return "", &ExhaustedError{Task: task, Attempts: c.cfg.MaxRetries, Last: lastErr}
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	content := gjson.GetBytes(respBody, contentPath)
	if content.Type != gjson.String {
		return "", nil
	}
	return content.Str, nil
}

// backoff returns the delay after the given failed attempt: base, 2·base,
// 4·base, ... capped at backoffMax when set. Without a cap the delay
// saturates at the largest Duration instead of overflowing.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.backoffBase
	for i := 1; i < attempt && d > 0; i++ {
		if d > maxBackoff/2 {
			d = maxBackoff
			break
		}
		d *= 2
		if c.backoffMax > 0 && d >= c.backoffMax {
			return c.backoffMax
		}
	}
	if c.backoffMax > 0 && d > c.backoffMax {
		return c.backoffMax
	}
	return d
}

func (c *Client) logFailure(task models.Task, attempt int, err error) {
	var se *StatusError
	if errors.As(err, &se) {
		c.logger.Warn("ai request failed",
			"task", task,
			"attempt", attempt,
			"status", se.StatusCode,
			"response", truncate(se.Body, maxLoggedBody),
		)
		return
	}
	c.logger.Error("ai request error",
		"task", task,
		"attempt", attempt,
		"error", err,
	)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
