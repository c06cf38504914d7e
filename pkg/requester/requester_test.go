package requester

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestClient(t *testing.T, url string, retries int, opts ...Option) (*Client, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	cfg := DefaultConfig("sk-test", url)
	cfg.MaxRetries = retries
	cfg.Timeout = 5 * time.Second
	c, err := New(cfg, append([]Option{WithSleeper(rec.sleep)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return c, rec
}

func TestSendSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		var req models.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "gpt-4" || req.Temperature != 0.3 || req.MaxTokens != 2000 {
			t.Errorf("unexpected request params: %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "classifica" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"{\"category\":\"ambiente\"}"}}]}`)
	}))
	defer upstream.Close()

	c, rec := newTestClient(t, upstream.URL+"/v1", 3)
	got, err := c.Send(context.Background(), models.TaskClassification, "system", "classifica")
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"category":"ambiente"}` {
		t.Errorf("unexpected content %q", got)
	}
	if len(rec.delays) != 0 {
		t.Errorf("expected no sleeps, got %v", rec.delays)
	}
}

func TestSendMissingContentIsEmptySuccess(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"message":{"content":null}}]}`, `not json`} {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}))
		c, _ := newTestClient(t, upstream.URL, 3)
		got, err := c.Send(context.Background(), models.TaskSentiment, "s", "p")
		upstream.Close()
		if err != nil {
			t.Errorf("%s: unexpected error %v", body, err)
		}
		if got != "" {
			t.Errorf("%s: expected empty content, got %q", body, got)
		}
	}
}

func TestSendRetriesThenExhausts(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	c, rec := newTestClient(t, upstream.URL, 4)
	_, err := c.Send(context.Background(), models.TaskPriority, "s", "p")

	if calls.Load() != 4 {
		t.Errorf("expected 4 attempts, got %d", calls.Load())
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if !reflect.DeepEqual(rec.delays, want) {
		t.Errorf("expected delays %v, got %v", want, rec.delays)
	}

	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 4 || exhausted.Task != models.TaskPriority {
		t.Errorf("unexpected exhausted error: %#v", exhausted)
	}
	var status *StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected last status error to be wrapped, got %v", err)
	}
}

func TestSendRecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer upstream.Close()

	c, rec := newTestClient(t, upstream.URL, 3)
	got, err := c.Send(context.Background(), models.TaskRouting, "s", "p")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" || calls.Load() != 2 {
		t.Errorf("expected ok after 2 calls, got %q after %d", got, calls.Load())
	}
	if !reflect.DeepEqual(rec.delays, []time.Duration{time.Second}) {
		t.Errorf("unexpected delays %v", rec.delays)
	}
}

func TestSendTransportError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	c, rec := newTestClient(t, url, 2)
	_, err := c.Send(context.Background(), models.TaskPatterns, "s", "p")
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("expected ErrRetriesExhausted, got %v", err)
	}
	if len(rec.delays) != 1 {
		t.Errorf("expected 1 sleep, got %v", rec.delays)
	}
}

func TestBackoffCap(t *testing.T) {
	c, _ := newTestClient(t, "http://localhost", 6, WithBackoff(time.Second, 3*time.Second))
	var got []time.Duration
	for attempt := 1; attempt <= 5; attempt++ {
		got = append(got, c.backoff(attempt))
	}
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second, 3 * time.Second}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	uncapped, _ := newTestClient(t, "http://localhost", 6, WithBackoff(time.Second, 0))
	if d := uncapped.backoff(6); d != 32*time.Second {
		t.Errorf("expected 32s uncapped, got %v", d)
	}

	prev := time.Duration(0)
	for _, attempt := range []int{34, 35, 40, 63, 64, 65, 1000} {
		d := uncapped.backoff(attempt)
		if d < prev {
			t.Errorf("attempt %d: delay %v shrank below %v", attempt, d, prev)
		}
		prev = d
	}
	if d := uncapped.backoff(1000); d != time.Duration(math.MaxInt64) {
		t.Errorf("expected saturated delay, got %v", d)
	}

	zero, _ := newTestClient(t, "http://localhost", 6, WithBackoff(0, 0))
	if d := zero.backoff(5); d != 0 {
		t.Errorf("expected zero delay with zero base, got %v", d)
	}
}

func TestStatusErrorTruncatesBody(t *testing.T) {
	body := strings.Repeat("x", 10*maxLoggedBody)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, body)
	}))
	defer upstream.Close()

	c, _ := newTestClient(t, upstream.URL, 1)
	_, err := c.Send(context.Background(), models.TaskSentiment, "s", "p")
	var status *StatusError
	if !errors.As(err, &status) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if len(status.Body) != len(body) {
		t.Errorf("Body length = %d, want %d", len(status.Body), len(body))
	}
	if msg := err.Error(); len(msg) > maxLoggedBody+200 || !strings.HasSuffix(msg, "...") {
		t.Errorf("error message not truncated: %d bytes", len(msg))
	}
}

func TestSendContextCanceledDuringBackoff(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := DefaultConfig("sk-test", upstream.URL)
	c, err := New(cfg, WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}))
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Send(ctx, models.TaskSolutions, "s", "p")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 attempt before cancel, got %d", calls.Load())
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing key", func(c *Config) { c.APIKey = "" }},
		{"relative url", func(c *Config) { c.BaseURL = "api.openai.com" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("sk-test", "https://api.openai.com/v1")
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}
