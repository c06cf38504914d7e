// Package ai orchestrates the ticket-assistance tasks: it validates input,
// derives the cache key, and on a miss builds the prompt, sends it through
// the requester and parses the reply into a typed result.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/laraxot/module-ai-fila5/pkg/cache"
	"github.com/laraxot/module-ai-fila5/pkg/cachekey"
	"github.com/laraxot/module-ai-fila5/pkg/logging"
	"github.com/laraxot/module-ai-fila5/pkg/models"
	"github.com/laraxot/module-ai-fila5/pkg/parser"
	"github.com/laraxot/module-ai-fila5/pkg/prompt"
)

var (
	// ErrInvalidInput is returned before any I/O when a required input is blank.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration is returned by New when a dependency is missing.
	ErrConfiguration = errors.New("ai: invalid configuration")
)

const logResponseLimit = 500

// Requester sends one chat completion and returns the reply text.
type Requester interface {
	Send(ctx context.Context, task models.Task, systemPrompt, prompt string) (string, error)
}

// Recorder receives one record per task invocation.
type Recorder interface {
	Record(ctx context.Context, rec models.TaskRecord) error
}

// Service runs the tasks.
type Service struct {
	requester Requester
	cache     *cache.ResultCache
	parser    *parser.Parser
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logging.OrNop(logger)
	}
}

// WithPolicy selects how partial JSON replies are completed.
func WithPolicy(policy parser.Policy) Option {
	return func(s *Service) {
		s.parser = parser.New(policy)
	}
}

// WithRecorder records every invocation, hits and failures included.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithClock overrides time.Now for latency measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service. Both the requester and the cache are required.
func New(req Requester, c *cache.ResultCache, opts ...Option) (*Service, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: requester is required", ErrConfiguration)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: result cache is required", ErrConfiguration)
	}
	s := &Service{
		requester: req,
		cache:     c,
		parser:    parser.New(parser.PolicyMerge),
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ClassifyTicket assigns a category, subcategory and tags to a ticket.
func (s *Service) ClassifyTicket(ctx context.Context, title, description string) (models.Classification, error) {
	if err := required("title", title, "description", description); err != nil {
		return models.Classification{}, err
	}
	return execute(ctx, s, models.TaskClassification,
		[]cachekey.Field{cachekey.F("title", title), cachekey.F("description", description)},
		func() string { return prompt.Classification(title, description) },
		s.parser.Classification,
	)
}

// SuggestSolutions proposes resolution steps. category may be empty.
func (s *Service) SuggestSolutions(ctx context.Context, title, description, category string) (models.Solutions, error) {
	if err := required("title", title, "description", description); err != nil {
		return models.Solutions{}, err
	}
	return execute(ctx, s, models.TaskSolutions,
		[]cachekey.Field{cachekey.F("title", title), cachekey.F("description", description), cachekey.F("category", category)},
		func() string { return prompt.Solutions(title, description, category) },
		s.parser.Solutions,
	)
}

// AnalyzeSentiment reads the tone and urgency of a message.
func (s *Service) AnalyzeSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	if err := required("text", text); err != nil {
		return models.Sentiment{}, err
	}
	return execute(ctx, s, models.TaskSentiment,
		[]cachekey.Field{cachekey.F("text", text)},
		func() string { return prompt.Sentiment(text) },
		s.parser.Sentiment,
	)
}

// PredictPriority estimates urgency. ticketContext may be nil.
func (s *Service) PredictPriority(ctx context.Context, title, description string, ticketContext map[string]any) (models.Priority, error) {
	if err := required("title", title, "description", description); err != nil {
		return models.Priority{}, err
	}
	if ticketContext == nil {
		ticketContext = map[string]any{}
	}
	return execute(ctx, s, models.TaskPriority,
		[]cachekey.Field{cachekey.F("title", title), cachekey.F("description", description), cachekey.F("context", ticketContext)},
		func() string { return prompt.Priority(title, description, ticketContext) },
		s.parser.Priority,
	)
}

// OptimizeRouting assigns tickets to agents.
func (s *Service) OptimizeRouting(ctx context.Context, tickets, agents []map[string]any) (models.Routing, error) {
	if len(tickets) == 0 {
		return models.Routing{}, fmt.Errorf("%w: tickets is required", ErrInvalidInput)
	}
	if agents == nil {
		agents = []map[string]any{}
	}
	return execute(ctx, s, models.TaskRouting,
		[]cachekey.Field{cachekey.F("tickets", tickets), cachekey.F("agents", agents)},
		func() string { return prompt.Routing(tickets, agents) },
		s.parser.Routing,
	)
}

// GenerateAutoResponse drafts a reply to the customer as plain text.
func (s *Service) GenerateAutoResponse(ctx context.Context, content, category, priority string) (string, error) {
	if err := required("content", content); err != nil {
		return "", err
	}
	r, err := execute(ctx, s, models.TaskAutoResponse,
		[]cachekey.Field{cachekey.F("content", content), cachekey.F("category", category), cachekey.F("priority", priority)},
		func() string { return prompt.AutoResponse(content, category, priority) },
		s.parser.AutoResponse,
	)
	return r.Text, err
}

// AnalyzePatterns looks for trends across a set of tickets.
func (s *Service) AnalyzePatterns(ctx context.Context, tickets []map[string]any) (models.Patterns, error) {
	if len(tickets) == 0 {
		return models.Patterns{}, fmt.Errorf("%w: tickets is required", ErrInvalidInput)
	}
	return execute(ctx, s, models.TaskPatterns,
		[]cachekey.Field{cachekey.F("tickets", tickets)},
		func() string { return prompt.Patterns(tickets) },
		s.parser.Patterns,
	)
}

// SuggestImprovements proposes process, technology and training changes
// from aggregated support data.
func (s *Service) SuggestImprovements(ctx context.Context, data map[string]any) (models.Improvements, error) {
	if len(data) == 0 {
		return models.Improvements{}, fmt.Errorf("%w: data is required", ErrInvalidInput)
	}
	return execute(ctx, s, models.TaskImprovements,
		[]cachekey.Field{cachekey.F("data", data)},
		func() string { return prompt.Improvements(data) },
		s.parser.Improvements,
	)
}

func execute[T models.TaskResult](
	ctx context.Context,
	s *Service,
	task models.Task,
	fields []cachekey.Field,
	buildPrompt func() string,
	parse func(raw string) T,
) (T, error) {
	start := s.now()

	key, err := cachekey.Key(task, fields...)
	if err != nil {
		var zero T
		err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
		s.record(ctx, task, start, false, false, err)
		return zero, err
	}

	result, hit, err := cache.Fetch(ctx, s.cache, key, task.TTL(), func(ctx context.Context) (T, error) {
		raw, err := s.requester.Send(ctx, task, prompt.System(task), buildPrompt())
		if err != nil {
			var zero T
			return zero, err
		}
		r := parse(raw)
		if r.IsFallback() {
			s.logger.Warn("ai response could not be parsed, using default result",
				"task", task,
				"response", truncate(raw, logResponseLimit),
			)
		}
		return r, nil
	})
	if err != nil {
		s.record(ctx, task, start, false, false, err)
		return result, fmt.Errorf("%s: %w", task, err)
	}

	s.record(ctx, task, start, hit, result.IsFallback(), nil)
	return result, nil
}

func (s *Service) record(ctx context.Context, task models.Task, start time.Time, hit, fallback bool, err error) {
	if s.recorder == nil {
		return
	}
	rec := models.TaskRecord{
		Task:      task,
		CacheHit:  hit,
		Fallback:  fallback,
		Failed:    err != nil,
		LatencyMs: s.now().Sub(start).Milliseconds(),
		CreatedAt: start.UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	// Recording failures never fail the task.
	if rerr := s.recorder.Record(context.WithoutCancel(ctx), rec); rerr != nil {
		s.logger.Warn("failed to record task run", "task", task, "error", rerr)
	}
}

// required takes name/value pairs and rejects the first blank value.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, pairs[i])
		}
	}
	return nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
