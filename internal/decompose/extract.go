package decompose

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models wrap JSON in markdown fences or surround it with prose more often
// than they return it clean. Extraction tries the whole text, then a fenced
// block, then the outermost brace pair.

var codeBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

func extractJSON(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	if json.Valid([]byte(cleaned)) {
		return cleaned, nil
	}

	if matches := codeBlockRegex.FindStringSubmatch(text); len(matches) > 1 {
		candidate := strings.TrimSpace(matches[1])
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	if candidate, ok := extractBraced(text); ok {
		return candidate, nil
	}

	return "", fmt.Errorf("no valid JSON object found in response")
}

// extractBraced scans for the first balanced top-level object, respecting
// string literals and escapes.
func extractBraced(text string) (string, bool) {
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return "", false
	}

	braceCount := 0
	inString := false
	escaped := false

	for i := startIdx; i < len(text); i++ {
		char := text[i]

		if escaped {
			escaped = false
			continue
		}
		if char == '\\' {
			escaped = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if char == '{' {
				braceCount++
			} else if char == '}' {
				braceCount--
				if braceCount == 0 {
					candidate := text[startIdx : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					return "", false
				}
			}
		}
	}

	return "", false
}
