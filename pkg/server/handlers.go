package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/laraxot/module-ai-fila5/pkg/ai"
	"github.com/laraxot/module-ai-fila5/pkg/finetune"
	"github.com/laraxot/module-ai-fila5/pkg/models"
	"github.com/laraxot/module-ai-fila5/pkg/sentiment"
)

type ticketRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category"`
}

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

type priorityRequest struct {
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description" binding:"required"`
	Context     map[string]any `json:"context"`
}

type routingRequest struct {
	Tickets []map[string]any `json:"tickets" binding:"required,min=1"`
	Agents  []map[string]any `json:"agents"`
}

type autoResponseRequest struct {
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

type patternsRequest struct {
	Tickets []map[string]any `json:"tickets" binding:"required,min=1"`
}

type improvementsRequest struct {
	Data map[string]any `json:"data" binding:"required"`
}

type labelRequest struct {
	Text string `json:"text"`
}

type completionRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type fineTuningForm struct {
	LearningRate float64 `form:"learning_rate,default=0.001"`
	BatchSize    int     `form:"batch_size,default=32"`
	Epochs       int     `form:"epochs,default=10"`
	Dataset      string  `form:"dataset,default=dataset1"`
}

type taskResponse struct {
	Task     models.Task       `json:"task"`
	Result   models.TaskResult `json:"result"`
	Fallback bool              `json:"fallback"`
}

type binder func(c *gin.Context) (ai.Input, error)

func bindJSON[T any](to func(T) ai.Input) binder {
	return func(c *gin.Context) (ai.Input, error) {
		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			return ai.Input{}, err
		}
		return to(req), nil
	}
}

var taskRoutes = []struct {
	path string
	task models.Task
	bind binder
}{
	{"/classify", models.TaskClassification, bindJSON(func(r ticketRequest) ai.Input {
		return ai.Input{Title: r.Title, Description: r.Description}
	})},
	{"/solutions", models.TaskSolutions, bindJSON(func(r ticketRequest) ai.Input {
		return ai.Input{Title: r.Title, Description: r.Description, Category: r.Category}
	})},
	{"/sentiment", models.TaskSentiment, bindJSON(func(r textRequest) ai.Input {
		return ai.Input{Text: r.Text}
	})},
	{"/priority", models.TaskPriority, bindJSON(func(r priorityRequest) ai.Input {
		return ai.Input{Title: r.Title, Description: r.Description, Context: r.Context}
	})},
	{"/routing", models.TaskRouting, bindJSON(func(r routingRequest) ai.Input {
		return ai.Input{Tickets: r.Tickets, Agents: r.Agents}
	})},
	{"/auto-response", models.TaskAutoResponse, bindJSON(func(r autoResponseRequest) ai.Input {
		return ai.Input{Content: r.Content, Category: r.Category, Priority: r.Priority}
	})},
	{"/patterns", models.TaskPatterns, bindJSON(func(r patternsRequest) ai.Input {
		return ai.Input{Tickets: r.Tickets}
	})},
	{"/improvements", models.TaskImprovements, bindJSON(func(r improvementsRequest) ai.Input {
		return ai.Input{Data: r.Data}
	})},
}

func (s *Server) handleTask(task models.Task, bind binder) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, err := bind(c)
		if err != nil {
			writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		res, err := s.deps.Tasks.Run(c.Request.Context(), task, in)
		if err != nil {
			_ = c.Error(err)
			writeJSONError(c, statusFor(err), err.Error())
			return
		}
		c.JSON(http.StatusOK, taskResponse{Task: task, Result: res, Fallback: res.IsFallback()})
	}
}

func (s *Server) handleSentimentLabel(c *gin.Context) {
	if s.deps.Sentiment == nil {
		writeJSONError(c, http.StatusServiceUnavailable, "sentiment action not configured")
		return
	}
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	data := s.deps.Sentiment.Execute(c.Request.Context(), req.Text)
	if data.Status == sentiment.StatusError {
		c.JSON(http.StatusInternalServerError, data)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) handleCompletion(c *gin.Context) {
	if s.deps.Completion == nil {
		writeJSONError(c, http.StatusServiceUnavailable, "completion not configured")
		return
	}
	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	data, err := s.deps.Completion.Execute(c.Request.Context(), req.Prompt)
	if err != nil {
		_ = c.Error(err)
		writeJSONError(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, data)
}

// handleFineTuning accepts a multipart form with the job parameters and a
// dataset_file upload, stages the file on disk and forwards the job.
func (s *Server) handleFineTuning(c *gin.Context) {
	if s.deps.FineTune == nil {
		writeJSONError(c, http.StatusServiceUnavailable, "fine-tuning not configured")
		return
	}
	var form fineTuningForm
	if err := c.ShouldBind(&form); err != nil {
		writeJSONError(c, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}
	fh, err := c.FormFile("dataset_file")
	if err != nil {
		writeJSONError(c, http.StatusBadRequest, "dataset_file is required")
		return
	}

	dir, err := os.MkdirTemp("", "aimod-finetune-")
	if err != nil {
		_ = c.Error(err)
		writeJSONError(c, http.StatusInternalServerError, "stage dataset file")
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(fh.Filename))
	if err := c.SaveUploadedFile(fh, path); err != nil {
		_ = c.Error(err)
		writeJSONError(c, http.StatusInternalServerError, "stage dataset file")
		return
	}

	err = s.deps.FineTune.Submit(c.Request.Context(), finetune.Request{
		LearningRate: form.LearningRate,
		BatchSize:    form.BatchSize,
		Epochs:       form.Epochs,
		Dataset:      form.Dataset,
		DatasetFile:  path,
	})
	if err != nil {
		_ = c.Error(err)
		writeJSONError(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// handleStats reports cache counters and, with a tracker, per-task run
// aggregates since ?since (a duration, default 24h).
func (s *Server) handleStats(c *gin.Context) {
	since := 24 * time.Hour
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeJSONError(c, http.StatusBadRequest, "since must be a positive duration")
			return
		}
		since = d
	}

	resp := gin.H{}
	if s.deps.Cache != nil {
		stats, err := s.deps.Cache.Stats(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			writeJSONError(c, http.StatusInternalServerError, "cache stats failed")
			return
		}
		resp["cache"] = gin.H{
			"backend":  stats.Backend,
			"entries":  stats.Entries,
			"hits":     stats.Hits,
			"misses":   stats.Misses,
			"hit_rate": stats.HitRate(),
		}
	}
	if s.deps.Tracker != nil {
		summaries, err := s.deps.Tracker.Summary(c.Request.Context(), time.Now().Add(-since))
		if err != nil {
			_ = c.Error(err)
			writeJSONError(c, http.StatusInternalServerError, "task stats failed")
			return
		}
		if summaries == nil {
			summaries = []models.TaskSummary{}
		}
		resp["tasks"] = summaries
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
