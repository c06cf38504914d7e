package models

// CompletionData is the outcome of a single-shot text completion.
type CompletionData struct {
	Text             string `json:"text"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// SentimentData is the outcome of the sentiment action.
type SentimentData struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Warning  string  `json:"warning,omitempty"`
	Error    string  `json:"error,omitempty"`
	Status   string  `json:"status,omitempty"`
	Fallback bool    `json:"fallback,omitempty"`
}
