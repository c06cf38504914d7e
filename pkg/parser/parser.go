// Package parser turns free-form model replies into typed task results.
//
// Parsing never fails on malformed replies: anything that does not decode
// to a JSON object yields the task's default result flagged as a fallback.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

// ErrUnknownTask is returned by Parse for a task it has no schema for.
var ErrUnknownTask = errors.New("parser: unknown task")

// Policy decides how a JSON object that omits expected fields is completed.
type Policy string

const (
	// PolicyMerge decodes the reply over the task default, so missing
	// fields keep their default values.
	PolicyMerge Policy = "merge"
	// PolicyPassthrough decodes the reply over a zero value, so missing
	// fields stay empty, exactly as the model sent them.
	PolicyPassthrough Policy = "passthrough"
)

// ParsePolicy validates a policy name; empty means PolicyMerge.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyMerge:
		return PolicyMerge, nil
	case PolicyPassthrough:
		return PolicyPassthrough, nil
	default:
		return "", fmt.Errorf("parser: unknown partial result policy %q", s)
	}
}

// Parser decodes replies for every task.
type Parser struct {
	policy Policy
}

// New creates a Parser. An empty policy selects PolicyMerge.
func New(policy Policy) *Parser {
	if policy == "" {
		policy = PolicyMerge
	}
	return &Parser{policy: policy}
}

// Policy returns the partial result policy in use.
func (p *Parser) Policy() Policy { return p.policy }

// Parse decodes raw as the result of task.
func (p *Parser) Parse(task models.Task, raw string) (models.TaskResult, error) {
	switch task {
	case models.TaskClassification:
		return p.Classification(raw), nil
	case models.TaskSolutions:
		return p.Solutions(raw), nil
	case models.TaskSentiment:
		return p.Sentiment(raw), nil
	case models.TaskPriority:
		return p.Priority(raw), nil
	case models.TaskRouting:
		return p.Routing(raw), nil
	case models.TaskAutoResponse:
		return p.AutoResponse(raw), nil
	case models.TaskPatterns:
		return p.Patterns(raw), nil
	case models.TaskImprovements:
		return p.Improvements(raw), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, task)
	}
}

func (p *Parser) Classification(raw string) models.Classification {
	r, ok := decode(raw, base(p, models.DefaultClassification()))
	if !ok {
		r = models.DefaultClassification()
	}
	r.Fallback = !ok
	return r
}

func (p *Parser) Solutions(raw string) models.Solutions {
	r, ok := decode(raw, base(p, models.DefaultSolutions()))
	if !ok {
		r = models.DefaultSolutions()
	}
	r.Fallback = !ok
	return r
}

func (p *Parser) Sentiment(raw string) models.Sentiment {
	r, ok := decode(raw, base(p, models.DefaultSentiment()))
	if !ok {
		r = models.DefaultSentiment()
	}
	r.Fallback = !ok
	return r
}

func (p *Parser) Priority(raw string) models.Priority {
	r, ok := decode(raw, base(p, models.DefaultPriority()))
	if !ok {
		r = models.DefaultPriority()
	}
	r.Fallback = !ok
	return r
}

func (p *Parser) Routing(raw string) models.Routing {
	r, ok := decode(raw, base(p, models.DefaultRouting()))
	if !ok {
		r = models.DefaultRouting()
	}
	r.Fallback = !ok
	return r
}

// AutoResponse returns the trimmed reply; free text has no fallback.
func (p *Parser) AutoResponse(raw string) models.AutoResponse {
	return models.AutoResponse{Text: strings.TrimSpace(raw)}
}

func (p *Parser) Patterns(raw string) models.Patterns {
	r, ok := decode(raw, base(p, models.DefaultPatterns()))
	if !ok {
		r = models.DefaultPatterns()
	}
	r.Fallback = !ok
	return r
}

func (p *Parser) Improvements(raw string) models.Improvements {
	r, ok := decode(raw, base(p, models.DefaultImprovements()))
	if !ok {
		r = models.DefaultImprovements()
	}
	r.Fallback = !ok
	return r
}

func base[T any](p *Parser, fallback T) T {
	if p.policy == PolicyPassthrough {
		var zero T
		return zero
	}
	return fallback
}

// decode unmarshals the JSON object in raw over into. Fields whose JSON type
// does not match keep the value they had in into.
func decode[T any](raw string, into T) (T, bool) {
	payload, ok := objectPayload(raw)
	if !ok {
		return into, false
	}
	out := into
	if err := json.Unmarshal(payload, &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return into, false
		}
	}
	return out, true
}
