// Package finetune submits fine-tuning jobs to an external training backend.
// The backend only acknowledges the submission; job progress is not tracked.
package finetune

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/laraxot/module-ai-fila5/pkg/logging"
)

var (
	// ErrInvalidInput is returned when a Request fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration is returned by New for an unusable endpoint.
	ErrConfiguration = errors.New("finetune: configuration error")
)

// DefaultURL is the endpoint used when none is configured.
const DefaultURL = "http://localhost:8000/api/fine-tuning"

const responseBodyLimit = 4096

// Request describes one fine-tuning job.
type Request struct {
	LearningRate float64 `json:"learning_rate" form:"learning_rate" validate:"gte=0"`
	BatchSize    int     `json:"batch_size" form:"batch_size" validate:"min=1"`
	Epochs       int     `json:"epochs" form:"epochs" validate:"min=1"`
	Dataset      string  `json:"dataset" form:"dataset" validate:"required,oneof=dataset1 dataset2"`
	// DatasetFile is the local path of the training data.
	DatasetFile string `json:"dataset_file" form:"dataset_file" validate:"required,file"`
}

// DefaultRequest returns the form defaults without a dataset file.
func DefaultRequest() Request {
	return Request{
		LearningRate: 0.001,
		BatchSize:    32,
		Epochs:       10,
		Dataset:      "dataset1",
	}
}

// RejectedError is returned when the backend answers with a non-2xx status.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("fine-tuning rejected: status %d: %s", e.StatusCode, e.Body)
}

// Client posts fine-tuning jobs.
type Client struct {
	url      string
	http     *http.Client
	validate *validator.Validate
	logger   *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// New creates a Client for endpoint. An empty endpoint uses DefaultURL.
func New(endpoint string, timeout time.Duration, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("%w: url %q must be http(s)", ErrConfiguration, endpoint)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		url:      endpoint,
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Validate checks req without sending it.
func (c *Client) Validate(req Request) error {
	if err := c.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// Submit validates req and posts it as multipart form data with the
// dataset file attached.
func (c *Client) Submit(ctx context.Context, req Request) error {
	if err := c.Validate(req); err != nil {
		return err
	}

	body, contentType, err := encode(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return fmt.Errorf("build fine-tuning request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send fine-tuning request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("fine-tuning request rejected",
			"status", resp.StatusCode,
			"dataset", req.Dataset,
		)
		return &RejectedError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	c.logger.Info("fine-tuning started",
		"dataset", req.Dataset,
		"epochs", req.Epochs,
		"batch_size", req.BatchSize,
		"learning_rate", req.LearningRate,
	)
	return nil
}

func encode(req Request) (io.Reader, string, error) {
	f, err := os.Open(req.DatasetFile)
	if err != nil {
		return nil, "", fmt.Errorf("open dataset file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"learning_rate", strconv.FormatFloat(req.LearningRate, 'f', -1, 64)},
		{"batch_size", strconv.Itoa(req.BatchSize)},
		{"epochs", strconv.Itoa(req.Epochs)},
		{"dataset", req.Dataset},
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("encode %s: %w", kv[0], err)
		}
	}
	part, err := w.CreateFormFile("dataset_file", filepath.Base(req.DatasetFile))
	if err != nil {
		return nil, "", fmt.Errorf("encode dataset file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read dataset file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
