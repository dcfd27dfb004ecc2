package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseJSONObject extracts a single JSON object embedded in raw LLM
// text, degrading gracefully the way the host module's extraction
// parser does: strip markdown code fences, try a clean unmarshal, then
// fall back to a regex repair pass over the first balanced-looking
// {...} span. Never a single brittle json.Unmarshal.
func ParseJSONObject(raw string, out interface{}) error {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return fmt.Errorf("llm: empty response")
	}

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	match := jsonObjectPattern.FindString(cleaned)
	if match == "" {
		return fmt.Errorf("llm: no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(match), out); err != nil {
		return fmt.Errorf("llm: repair attempt failed: %w", err)
	}
	return nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// jsonObjectPattern matches a single-level-nesting-tolerant JSON object:
// good enough to pull a {choice, reason}-shaped object out of
// surrounding prose without a full JSON grammar.
var jsonObjectPattern = regexp.MustCompile(`\{(?:[^{}]|\{[^{}]*\})*\}`)
