// Package template renders {{path}} tokens against webhook payloads.
//
// The token grammar is a dot path between double braces, the same path
// syntax the condition evaluator uses. Rendering never fails: tokens
// that do not resolve produce an empty string.
package template

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/kestrelhq/relay-gw/internal/payload"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Render substitutes every {{path}} token in tmpl with the value
// resolved from p.
func Render(tmpl string, p map[string]any) string {
	return tokenPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		match := tokenPattern.FindStringSubmatch(token)
		if match == nil {
			return token
		}
		return Format(payload.Resolve(p, match[1]))
	})
}

// Format renders a resolved payload value as a string. Integral floats
// drop the decimal point (JSON numbers decode to float64, and "42.0" in
// a run name would be wrong for a PR number). Composite values render
// as compact JSON.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}
