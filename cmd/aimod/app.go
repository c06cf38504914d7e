package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/laraxot/module-ai-fila5/pkg/ai"
	"github.com/laraxot/module-ai-fila5/pkg/cache"
	cacheredis "github.com/laraxot/module-ai-fila5/pkg/cache/redis"
	cachesqlite "github.com/laraxot/module-ai-fila5/pkg/cache/sqlite"
	"github.com/laraxot/module-ai-fila5/pkg/completion"
	"github.com/laraxot/module-ai-fila5/pkg/config"
	"github.com/laraxot/module-ai-fila5/pkg/finetune"
	"github.com/laraxot/module-ai-fila5/pkg/logging"
	"github.com/laraxot/module-ai-fila5/pkg/parser"
	"github.com/laraxot/module-ai-fila5/pkg/requester"
	"github.com/laraxot/module-ai-fila5/pkg/sentiment"
	"github.com/laraxot/module-ai-fila5/pkg/tracker"
)

// app lazily builds the components a command needs and closes them in
// reverse order.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	cache   *cache.ResultCache
	tracker tracker.Tracker
	service *ai.Service
	closers []func() error
}

// newApp loads the config file. A missing default file falls back to
// built-in defaults plus environment; an explicit --config must exist.
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		flag := cmd.Flag("config")
		if !errors.Is(err, fs.ErrNotExist) || (flag != nil && flag.Changed) {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = config.Default()
		cfg.ApplyEnv()
	}
	if err := cfg.ValidateLogging(); err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) resultCache(ctx context.Context) (*cache.ResultCache, error) {
	if a.cache != nil {
		return a.cache, nil
	}
	if err := a.cfg.ValidateCache(); err != nil {
		return nil, err
	}

	var store cache.Store
	switch a.cfg.Cache.Backend {
	case "sqlite":
		s, err := cachesqlite.New(a.cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		store = s
	case "redis":
		s, err := cacheredis.New(ctx, cacheredis.Options{
			Addr:     a.cfg.Cache.Redis.Addr,
			Password: a.cfg.Cache.Redis.Password,
			DB:       a.cfg.Cache.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		store = s
	default:
		store = cache.NewMemoryStore(nil)
	}

	a.cache = cache.New(store,
		cache.WithSingleFlight(a.cfg.Cache.SingleFlight),
		cache.WithLogger(a.logger),
	)
	a.closers = append(a.closers, a.cache.Close)
	return a.cache, nil
}

// taskTracker returns nil when tracking is disabled.
func (a *app) taskTracker() (tracker.Tracker, error) {
	if a.tracker != nil || !a.cfg.Tracking.Enabled {
		return a.tracker, nil
	}
	tr, err := tracker.New(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init tracker: %w", err)
	}
	a.tracker = tr
	a.closers = append(a.closers, tr.Close)
	return tr, nil
}

func (a *app) aiService(ctx context.Context) (*ai.Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	if err := a.cfg.ValidateAI(); err != nil {
		return nil, err
	}

	client, err := requester.New(requester.Config{
		APIKey:      a.cfg.AI.APIKey,
		BaseURL:     a.cfg.AI.BaseURL,
		Model:       a.cfg.AI.Model,
		Temperature: a.cfg.AI.Temperature,
		MaxTokens:   a.cfg.AI.MaxTokens,
		Timeout:     a.cfg.AI.Timeout,
		MaxRetries:  a.cfg.AI.MaxRetries,
	},
		requester.WithLogger(a.logger),
		requester.WithBackoff(a.cfg.AI.BackoffBase, a.cfg.AI.BackoffMax),
		requester.WithRateLimit(a.cfg.AI.RequestsPerSecond, 1),
	)
	if err != nil {
		return nil, err
	}

	rc, err := a.resultCache(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := parser.ParsePolicy(a.cfg.AI.PartialResults)
	if err != nil {
		return nil, err
	}
	opts := []ai.Option{ai.WithLogger(a.logger), ai.WithPolicy(policy)}

	tr, err := a.taskTracker()
	if err != nil {
		return nil, err
	}
	if tr != nil {
		opts = append(opts, ai.WithRecorder(tr))
	}

	svc, err := ai.New(client, rc, opts...)
	if err != nil {
		return nil, err
	}
	a.service = svc
	return svc, nil
}

func (a *app) sentimentAction(ctx context.Context) (*sentiment.Action, error) {
	if err := a.cfg.ValidateSentiment(); err != nil {
		return nil, err
	}
	var svc sentiment.Service
	if sentiment.Strategy(a.cfg.Sentiment.Strategy) == sentiment.StrategyLLM {
		s, err := a.aiService(ctx)
		if err != nil {
			return nil, err
		}
		svc = s
	}
	analyzer, err := sentiment.NewAnalyzer(sentiment.Strategy(a.cfg.Sentiment.Strategy), svc)
	if err != nil {
		return nil, err
	}
	return sentiment.NewAction(analyzer, a.logger), nil
}

func (a *app) completionAction() (*completion.Action, error) {
	return completion.New(completion.Config{
		APIKey:  a.cfg.CompletionAPIKey(),
		BaseURL: a.cfg.CompletionBaseURL(),
		Model:   a.cfg.Completion.Model,
		Timeout: a.cfg.Completion.Timeout,
	})
}

func (a *app) fineTuneClient() (*finetune.Client, error) {
	if err := a.cfg.ValidateFineTuning(); err != nil {
		return nil, err
	}
	return finetune.New(a.cfg.FineTuning.URL, a.cfg.FineTuning.Timeout, finetune.WithLogger(a.logger))
}
