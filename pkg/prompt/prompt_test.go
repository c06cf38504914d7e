package prompt

import (
	"strings"
	"testing"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

func TestSystem(t *testing.T) {
	if System(models.TaskClassification) != SystemJSON {
		t.Error("classification should use the JSON system prompt")
	}
	if System(models.TaskAutoResponse) != SystemText {
		t.Error("auto_response should use the text system prompt")
	}
	if !strings.Contains(SystemJSON, "Rispondi sempre in formato JSON valido.") {
		t.Errorf("unexpected system prompt: %s", SystemJSON)
	}
}

func TestBuildersEmbedInputsAndSchema(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   []string
	}{
		{
			name:   "classification",
			prompt: Classification("Buco in strada", "Grande buca pericolosa"),
			want:   []string{"Titolo: Buco in strada", "Descrizione: Grande buca pericolosa", `"urgency_indicators"`},
		},
		{
			name:   "solutions",
			prompt: Solutions("Lampione rotto", "Via Roma buia", "infrastruttura"),
			want:   []string{"ticket di infrastruttura", `"preventive_measures"`, `"follow_up_actions"`},
		},
		{
			name:   "sentiment",
			prompt: Sentiment("Sono molto deluso"),
			want:   []string{"Sono molto deluso", `"recommended_response_tone"`},
		},
		{
			name:   "priority",
			prompt: Priority("Allagamento", "Sottopasso allagato", map[string]any{"reports": 12}),
			want:   []string{"Contesto: {\n    \"reports\": 12\n}", `"required_escalation"`},
		},
		{
			name:   "routing",
			prompt: Routing([]map[string]any{{"id": 1}}, []map[string]any{{"id": 9, "name": "Anna"}}),
			want:   []string{"Ticket: [\n    {\n        \"id\": 1\n    }\n]", `"name": "Anna"`, `"efficiency_score"`},
		},
		{
			name:   "auto response",
			prompt: AutoResponse("Rifiuti non raccolti", "ambiente", "high"),
			want:   []string{"Contenuto: Rifiuti non raccolti", "Categoria: ambiente", "Priorità: high", "2-3 paragrafi"},
		},
		{
			name:   "patterns",
			prompt: Patterns(nil),
			want:   []string{"Ticket: []", `"estate": "+20%"`, `"geographic_hotspots"`},
		},
		{
			name:   "improvements",
			prompt: Improvements(map[string]any{"avg_resolution_days": 4.5}),
			want:   []string{`"avg_resolution_days": 4.5`, `"training_recommendations"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, w := range tt.want {
				if !strings.Contains(tt.prompt, w) {
					t.Errorf("prompt missing %q:\n%s", w, tt.prompt)
				}
			}
		})
	}
}

func TestBuildersArePure(t *testing.T) {
	ctx := map[string]any{"b": 1, "a": "<x>"}
	p1 := Priority("t", "d", ctx)
	p2 := Priority("t", "d", ctx)
	if p1 != p2 {
		t.Error("same input should produce same prompt")
	}
	if !strings.Contains(p1, `"a": "<x>"`) {
		t.Errorf("expected unescaped, sorted context: %s", p1)
	}
}

func TestEmptyObjectContext(t *testing.T) {
	if !strings.Contains(Priority("t", "d", nil), "Contesto: {}") {
		t.Error("nil context should render as {}")
	}
}
