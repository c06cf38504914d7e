package cachekey

import (
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

var keyPattern = regexp.MustCompile(`^ai:classification:[0-9a-f]{32}$`)

func TestKeyDeterministic(t *testing.T) {
	k1, err := Key(models.TaskClassification, F("title", "Buco in strada"), F("description", "Grande buca"))
	if err != nil {
		t.Fatal(err)
	}
	k2, err := Key(models.TaskClassification, F("title", "Buco in strada"), F("description", "Grande buca"))
	if err != nil {
		t.Fatal(err)
	}
	if k1 != k2 {
		t.Errorf("same input should produce same key: %s vs %s", k1, k2)
	}
	if !keyPattern.MatchString(k1) {
		t.Errorf("unexpected key format: %s", k1)
	}
}

func TestKeyNoConcatenationCollision(t *testing.T) {
	k1, _ := Key(models.TaskSolutions, F("title", "ab"), F("description", "c"))
	k2, _ := Key(models.TaskSolutions, F("title", "a"), F("description", "bc"))
	if k1 == k2 {
		t.Error("adjacent fields must not collide")
	}
}

func TestKeyNamespacedByTask(t *testing.T) {
	k1, _ := Key(models.TaskSentiment, F("text", "hello"))
	k2, _ := Key(models.TaskAutoResponse, F("text", "hello"))
	if k1 == k2 {
		t.Error("different tasks should produce different keys")
	}
}

func TestKeyMapOrderIndependent(t *testing.T) {
	a := map[string]any{"zone": "centro", "reports": 3, "nested": map[string]any{"b": 1, "a": 2}}
	b := map[string]any{"nested": map[string]any{"a": 2, "b": 1}, "reports": 3, "zone": "centro"}

	k1, err := Key(models.TaskPriority, F("context", a))
	if err != nil {
		t.Fatal(err)
	}
	k2, err := Key(models.TaskPriority, F("context", b))
	if err != nil {
		t.Fatal(err)
	}
	if k1 != k2 {
		t.Error("map insertion order should not change the key")
	}
}

func TestKeyFieldOrderMatters(t *testing.T) {
	k1, _ := Key(models.TaskRouting, F("tickets", []any{1}), F("agents", []any{2}))
	k2, _ := Key(models.TaskRouting, F("tickets", []any{2}), F("agents", []any{1}))
	if k1 == k2 {
		t.Error("swapped values should produce different keys")
	}
}

func TestKeyUnserializable(t *testing.T) {
	_, err := Key(models.TaskImprovements, F("data", map[string]any{"score": math.NaN()}))
	if !errors.Is(err, ErrUnserializable) {
		t.Errorf("expected ErrUnserializable, got %v", err)
	}
}

func TestCanonical(t *testing.T) {
	got, err := Canonical(F("text", "<ciao>"), F("n", 2))
	if err != nil {
		t.Fatal(err)
	}
	want := `[["text","<ciao>"],["n",2]]`
	if string(got) != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
