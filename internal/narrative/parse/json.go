package parse

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	jsonFenceRE     = regexp.MustCompile("(?s)```json\\s*\\n?(.*?)\\n?\\s*```")
	plainFenceRE    = regexp.MustCompile("(?s)```\\s*\\n?(.*?)\\n?\\s*```")
	trailingCommaRE = regexp.MustCompile(`,\s*([}\]])`)
)

// cnPunctuation swaps full-width punctuation models sometimes emit inside
// JSON for the ASCII forms the decoder expects.
var cnPunctuation = strings.NewReplacer(
	"，", ",", // ，
	"、", ",", // 、
	"：", ":", // ：
	"“", `"`, // “
	"”", `"`, // ”
)

// ExtractJSON pulls a JSON object or array out of model output. It tries a
// direct parse, then ```json and plain code fences, then the first balanced
// {...} or [...] block. The decoded value is a map[string]any or []any; the
// second return reports whether any strategy succeeded.
func ExtractJSON(text string) (any, bool) {
	text = strings.TrimSpace(text)

	if value, ok := tryParseJSON(text); ok {
		return value, true
	}

	if match := jsonFenceRE.FindStringSubmatch(text); match != nil {
		if value, ok := tryParseJSON(strings.TrimSpace(match[1])); ok {
			return value, true
		}
	}

	if match := plainFenceRE.FindStringSubmatch(text); match != nil {
		if value, ok := tryParseJSON(strings.TrimSpace(match[1])); ok {
			return value, true
		}
	}

	if value, ok := extractBalanced(text, '{', '}'); ok {
		return value, true
	}
	return extractBalanced(text, '[', ']')
}

func tryParseJSON(text string) (any, bool) {
	text = cnPunctuation.Replace(text)

	if value, ok := decodeJSON(text); ok {
		return value, true
	}

	// Trailing commas are the most common decode failure.
	return decodeJSON(trailingCommaRE.ReplaceAllString(text, "$1"))
}

func decodeJSON(text string) (any, bool) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, false
	}
	switch value.(type) {
	case map[string]any, []any:
		return value, true
	}
	return nil, false
}

// extractBalanced finds the first balanced bracket block, skipping brackets
// inside string literals, and parses it.
func extractBalanced(text string, open, close byte) (any, bool) {
	start := strings.IndexByte(text, open)
	if start == -1 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return tryParseJSON(text[start : i+1])
			}
		}
	}
	return nil, false
}
