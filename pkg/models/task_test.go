package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTaskTTL(t *testing.T) {
	tests := []struct {
		task Task
		want time.Duration
	}{
		{TaskClassification, 3600 * time.Second},
		{TaskSolutions, 1800 * time.Second},
		{TaskSentiment, 1800 * time.Second},
		{TaskPriority, 1800 * time.Second},
		{TaskRouting, 900 * time.Second},
		{TaskAutoResponse, 1800 * time.Second},
		{TaskPatterns, 3600 * time.Second},
		{TaskImprovements, 3600 * time.Second},
	}
	for _, tt := range tests {
		if got := tt.task.TTL(); got != tt.want {
			t.Errorf("%s: expected TTL %v, got %v", tt.task, tt.want, got)
		}
	}
	if len(AllTasks()) != len(tests) {
		t.Errorf("expected %d tasks, got %d", len(tests), len(AllTasks()))
	}
}

func TestParseTask(t *testing.T) {
	got, err := ParseTask("Auto-Response")
	if err != nil {
		t.Fatal(err)
	}
	if got != TaskAutoResponse {
		t.Errorf("expected auto_response, got %s", got)
	}
	if _, err := ParseTask("translate"); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestIDDecodesNumbersAndStrings(t *testing.T) {
	var r Routing
	body := `{"assignments":[{"ticket_id":123,"agent_id":"a-7"}],"unassigned_tickets":[789,"x",true]}`
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatal(err)
	}
	if r.Assignments[0].TicketID != "123" || r.Assignments[0].AgentID != "a-7" {
		t.Errorf("unexpected ids: %+v", r.Assignments[0])
	}
	if len(r.UnassignedTickets) != 3 || r.UnassignedTickets[2] != "" {
		t.Errorf("unexpected unassigned: %v", r.UnassignedTickets)
	}

	out, err := json.Marshal(r.Assignments[0])
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if _, ok := back["ticket_id"].(float64); !ok {
		t.Errorf("expected numeric ticket_id, got %T", back["ticket_id"])
	}
	if _, ok := back["agent_id"].(string); !ok {
		t.Errorf("expected string agent_id, got %T", back["agent_id"])
	}
}

func TestDefaultsUseEmptyLists(t *testing.T) {
	out, err := json.Marshal(DefaultClassification())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"category":"altro","subcategory":"generale","confidence":0.5,"tags":[],"urgency_indicators":[]}`
	if string(out) != want {
		t.Errorf("expected %s, got %s", want, out)
	}
}
