package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/laraxot/module-ai-fila5/pkg/ai"
	"github.com/laraxot/module-ai-fila5/pkg/models"
)

type taskTool struct {
	task  models.Task
	tool  mcpgo.Tool
	input func(req mcpgo.CallToolRequest) (ai.Input, error)
}

var objectItems = mcpgo.Items(map[string]any{"type": "object"})

var taskTools = []taskTool{
	{
		task: models.TaskClassification,
		tool: mcpgo.NewTool("classify_ticket",
			mcpgo.WithDescription("Classify a support ticket into category, subcategory and tags"),
			mcpgo.WithString("title", mcpgo.Required(), mcpgo.Description("Ticket title")),
			mcpgo.WithString("description", mcpgo.Required(), mcpgo.Description("Ticket description")),
		),
		input: func(req mcpgo.CallToolRequest) (ai.Input, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return ai.Input{}, err
			}
			desc, err := req.RequireString("description")
			if err != nil {
				return ai.Input{}, err
			}
			return ai.Input{Title: title, Description: desc}, nil
		},
	},
	{
		task: models.TaskSolutions,
		tool: mcpgo.NewTool("suggest_solutions",
			mcpgo.WithDescription("Suggest resolution steps, preventive measures and follow-ups for a ticket"),
			mcpgo.WithString("title", mcpgo.Required(), mcpgo.Description("Ticket title")),
			mcpgo.WithString("description", mcpgo.Required(), mcpgo.Description("Ticket description")),
			mcpgo.WithString("category", mcpgo.Description("Ticket category, if known")),
		),
		input: func(req mcpgo.CallToolRequest) (ai.Input, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return ai.Input{}, err
			}
			desc, err := req.RequireString("description")
			if err != nil {
				return ai.Input{}, err
			}
			return ai.Input{Title: title, Description: desc, Category: req.GetString("category", "")}, nil
		},
	},
	{
		task: models.TaskSentiment,
		tool: mcpgo.NewTool("analyze_sentiment",
			mcpgo.WithDescription("Analyze sentiment, emotion and urgency of a message"),
			mcpgo.WithString("text", mcpgo.Required(), mcpgo.Description("Message text")),
		),
		input: func(req mcpgo.CallToolRequest) (ai.Input, error) {
			text, err := req.RequireString("text")
			if err != nil {
				return ai.Input{}, err
			}
			return ai.Input{Text: text}, nil
		},
	},
	{
		task: models.TaskPriority,
		tool: mcpgo.NewTool("predict_priority",
			mcpgo.WithDescription("Predict ticket priority and whether escalation is needed"),
			mcpgo.WithString("title", mcpgo.Required(), mcpgo.Description("Ticket title")),
			mcpgo.WithString("description", mcpgo.Required(), mcpgo.Description("Ticket description")),
			mcpgo.WithObject("context", mcpgo.Description("Extra context such as reporter or affected service")),
		),
		input: func(req mcpgo.CallToolRequest) (ai.Input, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return ai.Input{}, err
			}
			desc, err := req.RequireString("description")
			if err != nil {
				return ai.Input{}, err
			}
			extra, err := optionalObject(req, "context")
			if err != nil {
				return ai.Input{}, err
			}
			return ai.Input{Title: title, Description: desc, Context: extra}, nil
		},
	},
	{
		task: models.TaskRouting,
		tool: mcpgo.NewTool("optimize_routing",
			mcpgo.WithDescription("Assign open tickets to available agents"),
			mcpgo.WithArray("tickets", mcpgo.Required(), objectItems, mcpgo.Description("Tickets to route")),
			mcpgo.WithArray("agents", objectItems, mcpgo.Description("Available agents")),
		),
		input: func(req mcpgo.CallToolRequest) (ai.Input, error) {
			tickets, err := objectList(req, "tickets", true)
			if err != nil {
				return ai.Input{}, err
			}
			agents, err := objectList(req, "agents", false)
			if err != nil {
				return ai.Input{}, err
			}
			return ai.Input{Tickets: tickets, Agents: agents}, nil
		},
	},
	{
		task: models.TaskAutoResponse,
		tool: mcpgo.NewTool("generate_auto_response",
			mcpgo.WithDescription("Draft a plain-text reply to a ticket"),
			mcpgo.WithString("content", mcpgo.Required(), mcpgo.Description("Ticket content")),
			mcpgo.WithString("category", mcpgo.Description("Ticket category")),
			mcpgo.WithString("priority", mcpgo.Description("Ticket priority")),
		),
		input: func(req mcpgo.CallToolRequest) (ai.Input, error) {
			content, err := req.RequireString("content")
			if err != nil {
				return ai.Input{}, err
			}
			return ai.Input{
				Content:  content,
				Category: req.GetString("category", ""),
				Priority: req.GetString("priority", ""),
			}, nil
		},
	},
	{
		task: models.TaskPatterns,
		tool: mcpgo.NewTool("analyze_patterns",
			mcpgo.WithDescription("Find temporal, geographic and category trends across tickets"),
			mcpgo.WithArray("tickets", mcpgo.Required(), objectItems, mcpgo.Description("Tickets to analyze")),
		),
		input: func(req mcpgo.CallToolRequest) (ai.Input, error) {
			tickets, err := objectList(req, "tickets", true)
			if err != nil {
				return ai.Input{}, err
			}
			return ai.Input{Tickets: tickets}, nil
		},
	},
	{
		task: models.TaskImprovements,
		tool: mcpgo.NewTool("suggest_improvements",
			mcpgo.WithDescription("Suggest process, technology and training improvements from support data"),
			mcpgo.WithObject("data", mcpgo.Required(), mcpgo.Description("Aggregated support metrics")),
		),
		input: func(req mcpgo.CallToolRequest) (ai.Input, error) {
			data, err := optionalObject(req, "data")
			if err != nil {
				return ai.Input{}, err
			}
			if data == nil {
				return ai.Input{}, errors.New(`required argument "data" not found`)
			}
			return ai.Input{Data: data}, nil
		},
	},
}

var taskStatsTool = mcpgo.NewTool("task_stats",
	mcpgo.WithDescription("Show per-task run counts, cache hits, fallbacks and failures"),
	mcpgo.WithString("since", mcpgo.Description("Look-back window as a Go duration, e.g. 24h (default 24h)")),
)

var cacheStatsTool = mcpgo.NewTool("cache_stats",
	mcpgo.WithDescription("Show result cache statistics"),
)

type taskResponse struct {
	Task     models.Task       `json:"task"`
	Result   models.TaskResult `json:"result"`
	Fallback bool              `json:"fallback"`
}

func (s *Server) handleTask(tt taskTool) func(context.Context, mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		in, err := tt.input(req)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		res, err := s.tasks.Run(ctx, tt.task, in)
		if err != nil {
			s.logger.Warn("mcp tool failed", "tool", tt.tool.Name, "error", err)
			return errorResult(fmt.Sprintf("%s failed: %v", tt.tool.Name, err)), nil
		}
		data, err := json.Marshal(taskResponse{Task: tt.task, Result: res, Fallback: res.IsFallback()})
		if err != nil {
			return errorResult("encode result: " + err.Error()), nil
		}
		return textResult(string(data)), nil
	}
}

func (s *Server) handleTaskStats(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.tracker == nil {
		return textResult("Task tracking is not enabled."), nil
	}
	since := 24 * time.Hour
	if raw := req.GetString("since", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return errorResult("since must be a positive duration, e.g. 24h"), nil
		}
		since = d
	}
	rows, err := s.tracker.Summary(ctx, time.Now().Add(-since))
	if err != nil {
		return errorResult("Error fetching task stats: " + err.Error()), nil
	}
	return textResult(formatSummary(rows)), nil
}

func (s *Server) handleCacheStats(ctx context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cache == nil {
		return textResult("Cache is not configured."), nil
	}
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error()), nil
	}
	return textResult(formatCacheStats(stats)), nil
}

// objectList reads an array of objects. JSON arguments arrive as []any.
func objectList(req mcpgo.CallToolRequest, name string, required bool) ([]map[string]any, error) {
	raw, ok := req.GetArguments()[name]
	if !ok || raw == nil {
		if required {
			return nil, fmt.Errorf("required argument %q not found", name)
		}
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array of objects", name)
	}
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("argument %q: item %d is not an object", name, i)
		}
		out = append(out, obj)
	}
	return out, nil
}

func optionalObject(req mcpgo.CallToolRequest, name string) (map[string]any, error) {
	raw, ok := req.GetArguments()[name]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object", name)
	}
	return obj, nil
}
