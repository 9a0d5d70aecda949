package utils

import (
	"strings"
)

// StripCodeFences removes leading/trailing markdown code-fence markers from a
// model reply. Models wrap JSON in ```json blocks no matter how firmly the
// prompt forbids it.
func StripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		// Drop an optional language tag on the opening fence.
		if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
			firstLine := strings.TrimSpace(trimmed[:idx])
			if firstLine == "json" || firstLine == "" {
				trimmed = trimmed[idx+1:]
			}
		} else {
			trimmed = strings.TrimPrefix(trimmed, "json")
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")

	return strings.TrimSpace(trimmed)
}

// ExtractJSONObject returns the substring between the first '{' and the last
// '}' of text, or "" when no braced object is present. Used as a fallback
// when the model pads its JSON with prose.
func ExtractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
