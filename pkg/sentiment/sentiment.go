// Package sentiment labels free text as POSITIVE or NEGATIVE.
//
// Two strategies exist: a keyword matcher that needs nothing but the text,
// and an LLM-backed analyzer that uses the sentiment task and falls back to
// the keyword matcher when the model is unavailable.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

// ErrConfiguration is returned by NewAnalyzer for an unusable strategy.
var ErrConfiguration = errors.New("sentiment: configuration error")

const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
)

// BasicWarning accompanies every keyword-based result.
const BasicWarning = "basic keyword sentiment analysis in use; configure the llm strategy for better accuracy"

// Strategy selects an Analyzer implementation.
type Strategy string

const (
	StrategyBasic Strategy = "basic"
	StrategyLLM   Strategy = "llm"
)

var (
	positiveWords = []string{"good", "great", "excellent", "positive", "happy"}
	negativeWords = []string{"bad", "poor", "terrible", "negative", "unhappy"}
)

// Analyzer labels a piece of text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (models.SentimentData, error)
}

// Service is the part of the task orchestrator the LLM strategy needs.
type Service interface {
	AnalyzeSentiment(ctx context.Context, text string) (models.Sentiment, error)
}

// NewAnalyzer builds the analyzer for strategy. The llm strategy requires svc.
func NewAnalyzer(strategy Strategy, svc Service) (Analyzer, error) {
	switch strategy {
	case "", StrategyBasic:
		return BasicAnalyzer{}, nil
	case StrategyLLM:
		if svc == nil {
			return nil, fmt.Errorf("%w: llm strategy needs an ai service", ErrConfiguration)
		}
		return &LLMAnalyzer{svc: svc}, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, strategy)
	}
}

// BasicAnalyzer counts whole-word, case-folded keyword matches. Each
// keyword counts at most once.
type BasicAnalyzer struct{}

// Analyze never fails. Text without any keyword is labelled NEGATIVE with
// score 0.
func (BasicAnalyzer) Analyze(_ context.Context, text string) (models.SentimentData, error) {
	words := wordSet(text)
	pos := countHits(words, positiveWords)
	neg := countHits(words, negativeWords)

	score := float64(pos-neg) / float64(max(1, pos+neg))
	label := LabelNegative
	if score >= 0 && pos+neg > 0 {
		label = LabelPositive
	}
	if score < 0 {
		score = -score
	}
	return models.SentimentData{
		Label:   label,
		Score:   score,
		Warning: BasicWarning,
	}, nil
}

func wordSet(text string) map[string]struct{} {
	folded := cases.Fold().String(text)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func countHits(words map[string]struct{}, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if _, ok := words[k]; ok {
			n++
		}
	}
	return n
}

// LLMAnalyzer asks the model through the sentiment task.
type LLMAnalyzer struct {
	svc   Service
	basic BasicAnalyzer
}

// Analyze maps the model's sentiment to a label with its confidence as the
// score. A neutral reply carries no evidence either way and is labelled
// NEGATIVE with score 0, as the keyword matcher does without hits. When the
// model fails or replies with an unrecognised label, the keyword result is
// returned with Fallback set. Only context errors are returned.
func (a *LLMAnalyzer) Analyze(ctx context.Context, text string) (models.SentimentData, error) {
	res, err := a.svc.AnalyzeSentiment(ctx, text)
	if err != nil && ctx.Err() != nil {
		return models.SentimentData{}, ctx.Err()
	}
	if err == nil && !res.Fallback {
		switch normalizeLabel(res.Sentiment) {
		case "positive", "positivo":
			return models.SentimentData{Label: LabelPositive, Score: res.Confidence}, nil
		case "negative", "negativo":
			return models.SentimentData{Label: LabelNegative, Score: res.Confidence}, nil
		case "neutral", "neutrale", "neutro":
			return models.SentimentData{Label: LabelNegative, Score: 0}, nil
		}
	}
	data, _ := a.basic.Analyze(ctx, text)
	data.Fallback = true
	return data, nil
}

func normalizeLabel(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
