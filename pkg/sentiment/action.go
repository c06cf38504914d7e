package sentiment

import (
	"context"
	"log/slog"

	"github.com/laraxot/module-ai-fila5/pkg/logging"
	"github.com/laraxot/module-ai-fila5/pkg/models"
)

// StatusError marks a failed analysis in SentimentData.Status.
const StatusError = "error"

// Action runs an Analyzer and reports failures inside the result.
type Action struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// NewAction wraps analyzer. A nil logger discards output.
func NewAction(analyzer Analyzer, logger *slog.Logger) *Action {
	return &Action{analyzer: analyzer, logger: logging.OrNop(logger)}
}

// Execute analyzes text. It never returns an error: failures come back
// with Status "error" and the message in Error.
func (a *Action) Execute(ctx context.Context, text string) models.SentimentData {
	data, err := a.analyzer.Analyze(ctx, text)
	if err != nil {
		a.logger.Error("sentiment analysis failed", "error", err)
		return models.SentimentData{Status: StatusError, Error: err.Error()}
	}
	return data
}
