// Package server exposes the ticket-assistance tasks and the completion,
// sentiment and fine-tuning actions over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/laraxot/module-ai-fila5/pkg/ai"
	"github.com/laraxot/module-ai-fila5/pkg/cache"
	"github.com/laraxot/module-ai-fila5/pkg/completion"
	"github.com/laraxot/module-ai-fila5/pkg/config"
	"github.com/laraxot/module-ai-fila5/pkg/finetune"
	"github.com/laraxot/module-ai-fila5/pkg/logging"
	"github.com/laraxot/module-ai-fila5/pkg/models"
	"github.com/laraxot/module-ai-fila5/pkg/requester"
	"github.com/laraxot/module-ai-fila5/pkg/tracker"
)

// TaskRunner runs one ticket-assistance task.
type TaskRunner interface {
	Run(ctx context.Context, task models.Task, in ai.Input) (models.TaskResult, error)
}

// SentimentLabeler labels text; failures are reported inside the result.
type SentimentLabeler interface {
	Execute(ctx context.Context, text string) models.SentimentData
}

// Completer runs a single-shot completion.
type Completer interface {
	Execute(ctx context.Context, prompt string) (models.CompletionData, error)
}

// FineTuner submits fine-tuning jobs.
type FineTuner interface {
	Submit(ctx context.Context, req finetune.Request) error
}

// Deps are the components behind the routes. Completion, FineTune and
// Tracker may be nil; their routes then answer 503 or omit data.
type Deps struct {
	Tasks      TaskRunner
	Sentiment  SentimentLabeler
	Completion Completer
	FineTune   FineTuner
	Cache      *cache.ResultCache
	Tracker    tracker.Tracker
}

// Server is the HTTP API.
type Server struct {
	cfg     *config.Config
	deps    Deps
	logger  *slog.Logger
	limiter *rate.Limiter
	engine  *gin.Engine
}

// New creates a Server with all routes registered.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logging.OrNop(logger),
		engine: gin.New(),
	}
	if rpm := cfg.Server.RequestsPerMinute; rpm > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm)
	}

	s.engine.Use(gin.Recovery(), s.requestID, s.logRequests)
	s.engine.GET("/healthz", s.handleHealth)

	g := s.engine.Group("/ai", s.rateLimit)
	for _, r := range taskRoutes {
		g.POST(r.path, s.handleTask(r.task, r.bind))
	}
	g.POST("/sentiment/label", s.handleSentimentLabel)
	g.POST("/completion", s.handleCompletion)
	g.POST("/fine-tuning", s.handleFineTuning)
	g.GET("/stats", s.handleStats)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("aimod api listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// statusFor maps a component error to an HTTP status.
func statusFor(err error) int {
	var rejected *finetune.RejectedError
	switch {
	case errors.Is(err, ai.ErrInvalidInput),
		errors.Is(err, completion.ErrInvalidInput),
		errors.Is(err, finetune.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, requester.ErrRetriesExhausted),
		errors.Is(err, completion.ErrUpstream),
		errors.As(err, &rejected):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSONError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{
		"error": gin.H{
			"message": message,
			"type":    "aimod_error",
			"code":    code,
		},
	})
}
