package utils

import (
	"bytes"
	"encoding/json"
)

// nextJSONSpan returns the first balanced {...} or [...] starting at or after
// from, and the offset to resume scanning at. Brackets inside string literals
// are ignored.
func nextJSONSpan(s string, from int) (span string, next int, ok bool) {
	for start := from; start < len(s); start++ {
		if s[start] != '{' && s[start] != '[' {
			continue
		}
		if end, matched := matchJSONSpan(s, start); matched {
			return s[start : end+1], end + 1, true
		}
	}
	return "", len(s), false
}

func matchJSONSpan(s string, start int) (int, bool) {
	closers := make([]byte, 0, 8)
	inString, escaped := false, false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			closers = append(closers, '}')
		case '[':
			closers = append(closers, ']')
		case '}', ']':
			if len(closers) == 0 || closers[len(closers)-1] != c {
				return 0, false
			}
			closers = closers[:len(closers)-1]
			if len(closers) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// DecodeFirstJSON decodes the first span of s that is valid JSON, so prose,
// code fences and bracketed remarks around the payload are skipped.
func DecodeFirstJSON(s string) (interface{}, bool) {
	offset := 0
	for {
		span, next, ok := nextJSONSpan(s, offset)
		if !ok {
			return nil, false
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(span)))
		dec.UseNumber()
		var v interface{}
		if err := dec.Decode(&v); err == nil {
			return v, true
		}
		// a failed candidate may still contain the payload, e.g. "[note: {...}]"
		offset = next - len(span) + 1
	}
}
