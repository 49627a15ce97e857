package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the JSON object inside an LLM reply. It accepts the
// reply as-is, inside a code fence, or embedded in surrounding prose.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(stripFence(text))
	if s == "" {
		return nil, ErrEmptyResponse
	}

	if isObject(s) {
		return json.RawMessage(s), nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		if candidate := s[start : end+1]; isObject(candidate) {
			return json.RawMessage(candidate), nil
		}
	}

	// The outer braces may belong to prose; take the first object that decodes.
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err == nil && isObject(string(raw)) {
			return raw, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, preview(s, 120))
}

func isObject(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.Index(t, "\n"); nl >= 0 {
		t = t[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(t), "```")
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
