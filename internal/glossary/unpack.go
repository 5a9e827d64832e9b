package glossary

import (
	"fmt"
	"strings"
)

// Unpack parses a packed attribute string back into key/value pairs.
//
// A value is quoted only when it starts with '"' and its closing quote is
// followed by ';' or the end of the string; doubled quotes are collapsed.
// Anything else is a bare value running to the next ';'. Values of
// quote-exempt keys such as dataReadiness are never quoted and may hold ';'
// and ',', so they run to the next ";<attribute key>:" boundary instead.
// Unknown keys are kept.
func Unpack(s string) (map[string]string, error) {
	out := make(map[string]string)
	if s == "" {
		return out, nil
	}

	for pos := 0; pos < len(s); {
		colon := strings.Index(s[pos:], valueSeparator)
		if colon < 0 {
			return nil, fmt.Errorf("unpack extension: pair at offset %d has no key", pos)
		}
		key := s[pos : pos+colon]
		if key == "" || strings.Contains(key, pairSeparator) {
			return nil, fmt.Errorf("unpack extension: malformed key %q at offset %d", key, pos)
		}
		pos += colon + 1

		var value string
		if spec, ok := LookupAttribute(key); ok && spec.NoQuote {
			end := nextAttributeBoundary(s, pos)
			value, pos = s[pos:end], end
		} else if v, next, ok := readQuoted(s, pos); ok {
			value, pos = v, next
		} else {
			end := strings.Index(s[pos:], pairSeparator)
			if end < 0 {
				end = len(s) - pos
			}
			value = s[pos : pos+end]
			pos += end
		}

		out[key] = value
		pos++ // skip ';'
	}
	return out, nil
}

// readQuoted reads a quoted value at s[start]. It reports false unless the
// value opens with '"' and the closing quote ends the pair.
func readQuoted(s string, start int) (string, int, bool) {
	if start >= len(s) || s[start] != '"' {
		return "", 0, false
	}

	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		if s[i] != '"' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '"' {
			b.WriteByte('"')
			i++
			continue
		}
		if i+1 == len(s) || s[i+1:i+2] == pairSeparator {
			return b.String(), i + 1, true
		}
		return "", 0, false
	}
	return "", 0, false
}

// nextAttributeBoundary returns the offset of the first ';' after from that
// starts another known "key:" pair, or len(s).
func nextAttributeBoundary(s string, from int) int {
	for i := from; i < len(s); i++ {
		if s[i:i+1] != pairSeparator {
			continue
		}
		rest := s[i+1:]
		colon := strings.Index(rest, valueSeparator)
		if colon < 0 {
			continue
		}
		if _, ok := attributeIndex[rest[:colon]]; ok {
			return i
		}
	}
	return len(s)
}
