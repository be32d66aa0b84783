package eval

import (
	"encoding/json"
	"strings"
)

// extractJSON pulls JSON out of a model response that may wrap it in markdown
// code fences. Without fences the trimmed input is returned unchanged.
func extractJSON(text string) string {
	lines := strings.Split(text, "\n")
	var buf strings.Builder
	inBlock := false
	found := false

	for _, line := range lines {
		if !inBlock && strings.TrimSpace(line) == "```json" {
			inBlock = true
			found = true
			continue
		}
		if inBlock && strings.TrimSpace(line) == "```" {
			break
		}
		if inBlock {
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(line)
		}
	}

	if found {
		return strings.TrimSpace(buf.String())
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// decodeStructured unmarshals a fenced-or-bare JSON response into dest.
func decodeStructured(text string, dest any) error {
	return json.Unmarshal([]byte(extractJSON(text)), dest)
}
