package query

import (
	"encoding/json"
	"regexp"
	"strings"
)

// braceRun matches the first brace-delimited run in free text, newlines
// included. Last-resort extraction when structural parsing fails.
var braceRun = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON pulls a JSON object out of free-form LLM output and decodes
// it into v. Models wrap JSON in prose or code fences inconsistently, so
// extraction walks an ordered fallback chain:
//
//  1. the first ```json fenced block
//  2. the first fenced block of any kind
//  3. the substring from the first '{' to the last '}'
//  4. a regex match for the first brace-delimited run
//
// Reports whether a candidate was found and decoded. Never returns an
// error: "not found" is a value, not an exception.
func ExtractJSON(text string, v any) bool {
	if candidate, ok := jsonCandidate(text); ok {
		if json.Unmarshal([]byte(candidate), v) == nil {
			return true
		}
	}
	if m := braceRun.FindString(text); m != "" {
		if json.Unmarshal([]byte(m), v) == nil {
			return true
		}
	}
	return false
}

// jsonCandidate selects the most likely JSON substring without parsing it.
func jsonCandidate(text string) (string, bool) {
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j]), true
		}
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j]), true
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1], true
	}
	return "", false
}
