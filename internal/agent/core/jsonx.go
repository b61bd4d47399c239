package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeCompletionJSON parses a completion's text into out. LLMs wrap JSON
// in markdown fences or prose more often than not, so decoding is two
// stage: try the whole payload first, then fall back to the first balanced
// top-level object found in the text.
func DecodeCompletionJSON(text string, out interface{}) error {
	trimmed := strings.TrimSpace(stripFences(text))
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}
	obj, ok := firstJSONObject(trimmed)
	if !ok {
		return fmt.Errorf("no JSON object found in completion")
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("parsing extracted JSON object: %w", err)
	}
	return nil
}

func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	if i := strings.LastIndex(t, "```"); i >= 0 {
		t = t[:i]
	}
	return t
}

// firstJSONObject scans for the first balanced top-level brace pair,
// tracking string literals and escapes so braces inside values do not
// terminate the scan early.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
