// Package parse turns raw transcript text and metadata into normalized tool
// invocations. It handles both wire encodings: the legacy inline XML tags and
// the native structured metadata, including partially streamed input.
package parse

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CoerceValue converts the raw textual form of a parameter value into a typed
// value. JSON objects/arrays/quoted strings are parsed, bare true/false and
// numeric literals are coerced, everything else stays a string. The original
// (untrimmed) text is returned for plain strings so payload whitespace
// survives.
func CoerceValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	}
	if looksLikeJSON(trimmed) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return raw
}

func looksLikeJSON(s string) bool {
	if len(s) < 2 {
		return false
	}
	switch s[0] {
	case '{':
		return s[len(s)-1] == '}'
	case '[':
		return s[len(s)-1] == ']'
	case '"':
		return s[len(s)-1] == '"'
	}
	return false
}

// CoerceArguments applies CoerceValue to every entry of a raw parameter map.
func CoerceArguments(raw map[string]string) map[string]any {
	out := make(map[string]any, len(raw))
	for name, value := range raw {
		out[name] = CoerceValue(value)
	}
	return out
}
