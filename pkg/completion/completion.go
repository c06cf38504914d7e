// Package completion runs single-shot text completions against an
// OpenAI-compatible /completions endpoint.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

var (
	// ErrInvalidInput is returned for a blank prompt.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration is returned by New for a missing API key or model.
	ErrConfiguration = errors.New("completion: configuration error")
	// ErrUpstream wraps failures reported by the completions endpoint.
	ErrUpstream = errors.New("completion: upstream request failed")
	// ErrEmptyResponse is returned when the endpoint answers without choices.
	ErrEmptyResponse = errors.New("completion: response has no choices")
)

const (
	DefaultModel = "gpt-3.5-turbo-instruct"

	defaultMaxTokens   = 100
	defaultTemperature = 0.5
	defaultTimeout     = 30 * time.Second
)

// Config configures an Action.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Action sends prompts to the completions endpoint.
type Action struct {
	client openai.Client
	model  string
}

// Option customizes an Action.
type Option func(*[]option.RequestOption)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(opts *[]option.RequestOption) {
		*opts = append(*opts, option.WithHTTPClient(hc))
	}
}

// New creates an Action. Retries are disabled; callers that want them wrap
// Execute themselves.
func New(cfg Config, opts ...Option) (*Action, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrConfiguration)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	for _, opt := range opts {
		opt(&reqOpts)
	}

	return &Action{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

// Execute completes prompt.
func (a *Action) Execute(ctx context.Context, prompt string) (models.CompletionData, error) {
	if strings.TrimSpace(prompt) == "" {
		return models.CompletionData{}, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}

	resp, err := a.client.Completions.New(ctx, openai.CompletionNewParams{
		Model:            openai.CompletionNewParamsModel(a.model),
		Prompt:           openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
		MaxTokens:        openai.Int(defaultMaxTokens),
		Temperature:      openai.Float(defaultTemperature),
		TopP:             openai.Float(1),
		FrequencyPenalty: openai.Float(0),
		PresencePenalty:  openai.Float(0),
	})
	if err != nil {
		if ctx.Err() != nil {
			return models.CompletionData{}, ctx.Err()
		}
		return models.CompletionData{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return models.CompletionData{}, ErrEmptyResponse
	}

	return models.CompletionData{
		Text:             strings.TrimSpace(resp.Choices[0].Text),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}
