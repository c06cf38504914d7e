package parser

import (
	"encoding/json"
	"strings"
)

// objectPayload returns the JSON object contained in raw. Models often wrap
// JSON in a markdown fence or a sentence, so both are peeled off.
func objectPayload(raw string) ([]byte, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}
	if isObject(trimmed) {
		return []byte(trimmed), true
	}

	candidate := stripCodeFence(trimmed)
	if !strings.HasPrefix(candidate, "{") {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start < 0 || end <= start {
			return nil, false
		}
		candidate = candidate[start : end+1]
	}
	if isObject(candidate) {
		return []byte(candidate), true
	}
	return nil, false
}

func isObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
