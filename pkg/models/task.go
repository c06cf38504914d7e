package models

import (
	"fmt"
	"strings"
	"time"
)

// Task identifies one LLM-backed analysis operation.
type Task string

const (
	TaskClassification Task = "classification"
	TaskSolutions      Task = "solutions"
	TaskSentiment      Task = "sentiment"
	TaskPriority       Task = "priority"
	TaskRouting        Task = "routing"
	TaskAutoResponse   Task = "auto_response"
	TaskPatterns       Task = "patterns"
	TaskImprovements   Task = "improvements"
)

var taskTTLs = map[Task]time.Duration{
	TaskClassification: time.Hour,
	TaskSolutions:      30 * time.Minute,
	TaskSentiment:      30 * time.Minute,
	TaskPriority:       30 * time.Minute,
	TaskRouting:        15 * time.Minute,
	TaskAutoResponse:   30 * time.Minute,
	TaskPatterns:       time.Hour,
	TaskImprovements:   time.Hour,
}

// AllTasks returns every task in a stable order.
func AllTasks() []Task {
	return []Task{
		TaskClassification,
		TaskSolutions,
		TaskSentiment,
		TaskPriority,
		TaskRouting,
		TaskAutoResponse,
		TaskPatterns,
		TaskImprovements,
	}
}

// Valid reports whether t is a known task.
func (t Task) Valid() bool {
	_, ok := taskTTLs[t]
	return ok
}

// TTL is how long a result for t stays in the cache.
func (t Task) TTL() time.Duration {
	return taskTTLs[t]
}

// ReturnsJSON is false for tasks whose reply is free text.
func (t Task) ReturnsJSON() bool {
	return t != TaskAutoResponse
}

func (t Task) String() string { return string(t) }

// ParseTask accepts the canonical name or its dashed form ("auto-response").
func ParseTask(s string) (Task, error) {
	t := Task(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !t.Valid() {
		return "", fmt.Errorf("unknown task %q", s)
	}
	return t, nil
}
