package validation

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// StripFence removes a markdown code fence wrapper from raw agent text.
// Handles ```yaml, ```json and bare ``` fences; text without a fence is
// returned trimmed.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line, including any language tag.
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// Parse strips any code fence and parses the text as a YAML document.
// YAML is a superset of JSON, so agents may answer in either format.
// The top level must be a mapping.
func Parse(raw string) (map[string]any, error) {
	cleaned := StripFence(raw)
	if cleaned == "" {
		return nil, &ParseError{Message: "empty agent response"}
	}

	var doc any
	if err := yaml.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, &ParseError{Message: "response is not well-formed YAML/JSON", Cause: err}
	}

	m, ok := doc.(map[string]any)
	if !ok {
		return nil, &ParseError{Message: "top-level structure must be a mapping"}
	}
	return m, nil
}
