// Package prompt renders the user and system prompts for every task.
//
// Builders are pure: they only format their arguments. Structured inputs
// are embedded as indented JSON so the model sees them verbatim.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

const persona = "Sei un assistente AI specializzato nella gestione di ticket per amministrazioni pubbliche italiane."

// SystemJSON is the system prompt for tasks that answer with JSON.
const SystemJSON = persona + " Rispondi sempre in formato JSON valido."

// SystemText is the system prompt for tasks that answer with plain text.
const SystemText = persona + " Rispondi solo con testo semplice, senza JSON né formattazione."

// System returns the system prompt for task.
func System(task models.Task) string {
	if task.ReturnsJSON() {
		return SystemJSON
	}
	return SystemText
}

// Classification asks the model to categorise a ticket.
func Classification(title, description string) string {
	return fmt.Sprintf(`Classifica il seguente ticket per il servizio di gestione ticket cittadini:

Titolo: %s
Descrizione: %s

Categorie disponibili:
- infrastruttura (strade, ponti, illuminazione, segnaletica)
- ambiente (rifiuti, inquinamento, verde pubblico)
- trasporti (trasporto pubblico, parcheggi, ciclabili)
- sicurezza (sicurezza urbana, emergenze)
- servizi (uffici pubblici, documenti, pratiche)
- altro

Rispondi in formato JSON con:
{
  "category": "categoria_principale",
  "subcategory": "sottocategoria",
  "confidence": 0.95,
  "tags": ["tag1", "tag2"],
  "urgency_indicators": ["indicatore1", "indicatore2"]
}`, title, description)
}

// Solutions asks for concrete resolution paths for a categorised ticket.
func Solutions(title, description, category string) string {
	return fmt.Sprintf(`Suggerisci soluzioni per questo ticket di %s:

Titolo: %s
Descrizione: %s

Fornisci 3-5 soluzioni pratiche e concrete, specifiche per il contesto italiano e le amministrazioni pubbliche.

Rispondi in formato JSON:
{
  "solutions": [
    {
      "title": "Titolo soluzione",
      "description": "Descrizione dettagliata",
      "steps": ["passo1", "passo2"],
      "estimated_time": "2-3 giorni",
      "required_resources": ["risorsa1", "risorsa2"],
      "priority": "high|medium|low"
    }
  ],
  "preventive_measures": ["misura1", "misura2"],
  "follow_up_actions": ["azione1", "azione2"]
}`, category, title, description)
}

// Sentiment asks for the tone and urgency of a citizen's message.
func Sentiment(text string) string {
	return fmt.Sprintf(`Analizza il sentiment del seguente testo di un cittadino:

%s

Rispondi in formato JSON:
{
  "sentiment": "positive|negative|neutral",
  "emotion": "soddisfazione|frustrazione|preoccupazione|rabbia|speranza",
  "confidence": 0.85,
  "key_phrases": ["frase1", "frase2"],
  "urgency_level": "low|medium|high|critical",
  "recommended_response_tone": "professionale|empatico|rassicurante|decisivo"
}`, text)
}

// Priority asks for a priority estimate given the ticket and its context.
func Priority(title, description string, context map[string]any) string {
	return fmt.Sprintf(`Predici la priorità di questo ticket:

Titolo: %s
Descrizione: %s
Contesto: %s

Considera:
- Impatto sulla sicurezza pubblica
- Numero di cittadini coinvolti
- Urgenza temporale
- Complessità di risoluzione
- Risorse disponibili

Rispondi in formato JSON:
{
  "priority": "low|medium|high|urgent|critical",
  "confidence": 0.90,
  "reasoning": "motivazione dettagliata",
  "estimated_resolution_time": "1-2 giorni",
  "required_escalation": true|false,
  "risk_factors": ["fattore1", "fattore2"]
}`, title, description, prettyObject(context))
}

// Routing asks for ticket-to-agent assignments.
func Routing(tickets, agents []map[string]any) string {
	return fmt.Sprintf(`Ottimizza l'assegnazione di questi ticket agli agenti disponibili:

Ticket: %s
Agenti: %s

Considera:
- Competenze degli agenti
- Carico di lavoro attuale
- Specializzazione per categoria
- Disponibilità temporale
- Precedenti performance

Rispondi in formato JSON:
{
  "assignments": [
    {
      "ticket_id": 123,
      "agent_id": 456,
      "reason": "motivazione assegnazione",
      "estimated_completion": "2024-01-15",
      "confidence": 0.85
    }
  ],
  "unassigned_tickets": [789],
  "overload_warnings": ["agent1 ha troppi ticket"],
  "efficiency_score": 0.92
}`, prettyList(tickets), prettyList(agents))
}

// AutoResponse asks for a plain-text reply to the citizen.
func AutoResponse(content, category, priority string) string {
	return fmt.Sprintf(`Genera una risposta automatica professionale per questo ticket:

Contenuto: %s
Categoria: %s
Priorità: %s

La risposta deve essere:
- Professionale ma amichevole
- Rassicurante per il cittadino
- Specifica per la categoria
- Adatta alla priorità
- In italiano corretto
- Lunga 2-3 paragrafi

Rispondi solo con il testo della risposta, senza formattazione aggiuntiva.`, content, category, priority)
}

// Patterns asks for trends across a batch of tickets.
func Patterns(tickets []map[string]any) string {
	return fmt.Sprintf(`Analizza i pattern in questi ticket per identificare:

Ticket: %s

Identifica:
- Trend temporali
- Aree geografiche problematiche
- Categorie più frequenti
- Pattern stagionali
- Correlazioni tra fattori
- Opportunità di miglioramento

Rispondi in formato JSON:
{
  "temporal_trends": {
    "peak_hours": ["9-11", "14-16"],
    "peak_days": ["lunedì", "martedì"],
    "seasonal_patterns": {"estate": "+20%%"}
  },
  "geographic_hotspots": [
    {"area": "centro", "count": 45, "trend": "increasing"}
  ],
  "category_insights": {
    "most_common": "infrastruttura",
    "growing": "ambiente",
    "declining": "trasporti"
  },
  "recommendations": [
    "Aumentare personale nelle ore di picco",
    "Focus su area centro"
  ]
}`, prettyList(tickets))
}

// Improvements asks for service improvements given aggregate data.
func Improvements(data map[string]any) string {
	return fmt.Sprintf(`Suggerisci miglioramenti per il servizio di gestione ticket basandoti su questi dati:

Dati: %s

Fornisci suggerimenti per:
- Processi operativi
- Tecnologie
- Formazione personale
- Comunicazione cittadini
- Metriche di performance

Rispondi in formato JSON:
{
  "process_improvements": [
    {
      "area": "assegnazione ticket",
      "suggestion": "Implementare sistema di priorità dinamica",
      "impact": "high",
      "effort": "medium"
    }
  ],
  "technology_upgrades": [
    {
      "technology": "AI routing",
      "description": "Sistema di assegnazione automatica",
      "benefits": ["efficienza", "soddisfazione"],
      "cost_estimate": "€50k"
    }
  ],
  "training_recommendations": [
    {
      "role": "operatori",
      "topics": ["comunicazione", "tecniche risoluzione"],
      "format": "workshop",
      "duration": "2 giorni"
    }
  ]
}`, prettyObject(data))
}

func prettyObject(v map[string]any) string {
	if len(v) == 0 {
		return "{}"
	}
	return pretty(v, "{}")
}

func prettyList(v []map[string]any) string {
	if len(v) == 0 {
		return "[]"
	}
	return pretty(v, "[]")
}

// pretty indents v with four spaces. Inputs reach the builders only after
// the cache key has serialized them, so the fallback is never expected.
func pretty(v any, fallback string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fallback
	}
	return strings.TrimRight(buf.String(), "\n")
}
