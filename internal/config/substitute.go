package config

import (
	"fmt"
	"strings"
)

// Substitute replaces {name} placeholders in raw with values from vars.
//
// Only identifiers ([A-Za-z_][A-Za-z0-9_]*) are placeholders, so regex
// quantifiers such as \d{1,3} pass through unchanged. "{{" and "}}" produce
// literal braces. Substitution is a single pass: text inserted from vars is
// never expanded again.
func Substitute(raw string, vars map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c == '{' && i+1 < len(raw) && raw[i+1] == '{':
			b.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(raw) && raw[i+1] == '}':
			b.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(raw[i+1:], '}')
			if end < 0 {
				b.WriteString(raw[i:])
				return b.String(), nil
			}
			name := raw[i+1 : i+1+end]
			if !isIdentifier(name) {
				b.WriteByte(c)
				i++
				continue
			}
			value, ok := vars[name]
			if !ok {
				return "", fmt.Errorf("%w: no value for placeholder {%s}", ErrMalformedField, name)
			}
			b.WriteString(value)
			i += end + 2
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String(), nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
