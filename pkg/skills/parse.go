package skills

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON pulls a JSON object out of a model response, tolerating
// markdown code fences and surrounding prose.
func extractJSON(response string) (string, error) {
	s := strings.TrimSpace(response)

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return s[start : end+1], nil
}

// decodeJSON extracts and unmarshals a JSON object from a model response.
func decodeJSON(response string, v interface{}) error {
	raw, err := extractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// trimLines strips empty entries and surrounding whitespace from a list.
func trimLines(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}
