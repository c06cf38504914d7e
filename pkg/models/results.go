package models

import (
	"encoding/json"
	"strconv"
)

// TaskResult is the typed output of one task.
type TaskResult interface {
	Task() Task
	IsFallback() bool
}

// Classification is the result of TaskClassification.
type Classification struct {
	Category          string   `json:"category"`
	Subcategory       string   `json:"subcategory"`
	Confidence        float64  `json:"confidence"`
	Tags              []string `json:"tags"`
	UrgencyIndicators []string `json:"urgency_indicators"`
	Fallback          bool     `json:"fallback,omitempty"`
}

func (Classification) Task() Task         { return TaskClassification }
func (r Classification) IsFallback() bool { return r.Fallback }

// DefaultClassification is used when the model reply cannot be decoded.
func DefaultClassification() Classification {
	return Classification{
		Category:          "altro",
		Subcategory:       "generale",
		Confidence:        0.5,
		Tags:              []string{},
		UrgencyIndicators: []string{},
	}
}

// Solution is one suggested resolution path.
type Solution struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Steps             []string `json:"steps"`
	EstimatedTime     string   `json:"estimated_time"`
	RequiredResources []string `json:"required_resources"`
	Priority          string   `json:"priority"`
}

// Solutions is the result of TaskSolutions.
type Solutions struct {
	Solutions          []Solution `json:"solutions"`
	PreventiveMeasures []string   `json:"preventive_measures"`
	FollowUpActions    []string   `json:"follow_up_actions"`
	Fallback           bool       `json:"fallback,omitempty"`
}

func (Solutions) Task() Task         { return TaskSolutions }
func (r Solutions) IsFallback() bool { return r.Fallback }

func DefaultSolutions() Solutions {
	return Solutions{
		Solutions:          []Solution{},
		PreventiveMeasures: []string{},
		FollowUpActions:    []string{},
	}
}

// Sentiment is the result of TaskSentiment.
type Sentiment struct {
	Sentiment               string   `json:"sentiment"`
	Emotion                 string   `json:"emotion"`
	Confidence              float64  `json:"confidence"`
	KeyPhrases              []string `json:"key_phrases"`
	UrgencyLevel            string   `json:"urgency_level"`
	RecommendedResponseTone string   `json:"recommended_response_tone"`
	Fallback                bool     `json:"fallback,omitempty"`
}

func (Sentiment) Task() Task         { return TaskSentiment }
func (r Sentiment) IsFallback() bool { return r.Fallback }

func DefaultSentiment() Sentiment {
	return Sentiment{
		Sentiment:               "neutral",
		Emotion:                 "neutrale",
		Confidence:              0.5,
		KeyPhrases:              []string{},
		UrgencyLevel:            "medium",
		RecommendedResponseTone: "professionale",
	}
}

// Priority is the result of TaskPriority.
type Priority struct {
	Priority                string   `json:"priority"`
	Confidence              float64  `json:"confidence"`
	Reasoning               string   `json:"reasoning"`
	EstimatedResolutionTime string   `json:"estimated_resolution_time"`
	RequiredEscalation      bool     `json:"required_escalation"`
	RiskFactors             []string `json:"risk_factors"`
	Fallback                bool     `json:"fallback,omitempty"`
}

func (Priority) Task() Task         { return TaskPriority }
func (r Priority) IsFallback() bool { return r.Fallback }

func DefaultPriority() Priority {
	return Priority{
		Priority:                "medium",
		Confidence:              0.5,
		Reasoning:               "Priorità standard",
		EstimatedResolutionTime: "3-5 giorni",
		RequiredEscalation:      false,
		RiskFactors:             []string{},
	}
}

// ID is a ticket or agent identifier. Models answer with numbers or strings
// interchangeably, so both decode.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
		return nil
	}
	// Anything else (bool, object) is not an identifier.
	*id = ""
	return nil
}

// MarshalJSON writes integer IDs back as JSON numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Assignment routes one ticket to one agent.
type Assignment struct {
	TicketID            ID      `json:"ticket_id"`
	AgentID             ID      `json:"agent_id"`
	Reason              string  `json:"reason"`
	EstimatedCompletion string  `json:"estimated_completion"`
	Confidence          float64 `json:"confidence"`
}

// Routing is the result of TaskRouting.
type Routing struct {
	Assignments       []Assignment `json:"assignments"`
	UnassignedTickets []ID         `json:"unassigned_tickets"`
	OverloadWarnings  []string     `json:"overload_warnings"`
	EfficiencyScore   float64      `json:"efficiency_score"`
	Fallback          bool         `json:"fallback,omitempty"`
}

func (Routing) Task() Task         { return TaskRouting }
func (r Routing) IsFallback() bool { return r.Fallback }

func DefaultRouting() Routing {
	return Routing{
		Assignments:       []Assignment{},
		UnassignedTickets: []ID{},
		OverloadWarnings:  []string{},
		EfficiencyScore:   0.5,
	}
}

// AutoResponse is the result of TaskAutoResponse: plain text, never a fallback.
type AutoResponse struct {
	Text string `json:"text"`
}

func (AutoResponse) Task() Task       { return TaskAutoResponse }
func (AutoResponse) IsFallback() bool { return false }

// TemporalTrends describes when tickets cluster.
type TemporalTrends struct {
	PeakHours        []string          `json:"peak_hours,omitempty"`
	PeakDays         []string          `json:"peak_days,omitempty"`
	SeasonalPatterns map[string]string `json:"seasonal_patterns,omitempty"`
}

// Hotspot is a geographic area with many tickets.
type Hotspot struct {
	Area  string `json:"area"`
	Count int    `json:"count"`
	Trend string `json:"trend"`
}

// CategoryInsights summarises category movement.
type CategoryInsights struct {
	MostCommon string `json:"most_common,omitempty"`
	Growing    string `json:"growing,omitempty"`
	Declining  string `json:"declining,omitempty"`
}

// Patterns is the result of TaskPatterns.
type Patterns struct {
	TemporalTrends     TemporalTrends   `json:"temporal_trends"`
	GeographicHotspots []Hotspot        `json:"geographic_hotspots"`
	CategoryInsights   CategoryInsights `json:"category_insights"`
	Recommendations    []string         `json:"recommendations"`
	Fallback           bool             `json:"fallback,omitempty"`
}

func (Patterns) Task() Task         { return TaskPatterns }
func (r Patterns) IsFallback() bool { return r.Fallback }

func DefaultPatterns() Patterns {
	return Patterns{
		GeographicHotspots: []Hotspot{},
		Recommendations:    []string{},
	}
}

// ProcessImprovement is a suggested operational change.
type ProcessImprovement struct {
	Area       string `json:"area"`
	Suggestion string `json:"suggestion"`
	Impact     string `json:"impact"`
	Effort     string `json:"effort"`
}

// TechnologyUpgrade is a suggested tooling change.
type TechnologyUpgrade struct {
	Technology   string   `json:"technology"`
	Description  string   `json:"description"`
	Benefits     []string `json:"benefits"`
	CostEstimate string   `json:"cost_estimate"`
}

// TrainingRecommendation is a suggested staff training.
type TrainingRecommendation struct {
	Role     string   `json:"role"`
	Topics   []string `json:"topics"`
	Format   string   `json:"format"`
	Duration string   `json:"duration"`
}

// Improvements is the result of TaskImprovements.
type Improvements struct {
	ProcessImprovements     []ProcessImprovement     `json:"process_improvements"`
	TechnologyUpgrades      []TechnologyUpgrade      `json:"technology_upgrades"`
	TrainingRecommendations []TrainingRecommendation `json:"training_recommendations"`
	Fallback                bool                     `json:"fallback,omitempty"`
}

func (Improvements) Task() Task         { return TaskImprovements }
func (r Improvements) IsFallback() bool { return r.Fallback }

func DefaultImprovements() Improvements {
	return Improvements{
		ProcessImprovements:     []ProcessImprovement{},
		TechnologyUpgrades:      []TechnologyUpgrade{},
		TrainingRecommendations: []TrainingRecommendation{},
	}
}
