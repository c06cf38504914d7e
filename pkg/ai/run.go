package ai

import (
	"context"
	"fmt"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

// Input carries the arguments of any task. Each task reads only its own
// fields; the JSON names match the HTTP and MCP payloads.
type Input struct {
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Priority    string           `json:"priority,omitempty"`
	Text        string           `json:"text,omitempty"`
	Content     string           `json:"content,omitempty"`
	Context     map[string]any   `json:"context,omitempty"`
	Tickets     []map[string]any `json:"tickets,omitempty"`
	Agents      []map[string]any `json:"agents,omitempty"`
	Data        map[string]any   `json:"data,omitempty"`
}

// Run dispatches task with the fields of in that the task uses.
func (s *Service) Run(ctx context.Context, task models.Task, in Input) (models.TaskResult, error) {
	switch task {
	case models.TaskClassification:
		return s.ClassifyTicket(ctx, in.Title, in.Description)
	case models.TaskSolutions:
		return s.SuggestSolutions(ctx, in.Title, in.Description, in.Category)
	case models.TaskSentiment:
		return s.AnalyzeSentiment(ctx, in.Text)
	case models.TaskPriority:
		return s.PredictPriority(ctx, in.Title, in.Description, in.Context)
	case models.TaskRouting:
		return s.OptimizeRouting(ctx, in.Tickets, in.Agents)
	case models.TaskAutoResponse:
		text, err := s.GenerateAutoResponse(ctx, in.Content, in.Category, in.Priority)
		if err != nil {
			return nil, err
		}
		return models.AutoResponse{Text: text}, nil
	case models.TaskPatterns:
		return s.AnalyzePatterns(ctx, in.Tickets)
	case models.TaskImprovements:
		return s.SuggestImprovements(ctx, in.Data)
	default:
		return nil, fmt.Errorf("%w: unknown task %q", ErrInvalidInput, task)
	}
}
