// Package condition evaluates comparison rules against webhook payloads.
//
// A rule addresses a payload location by dot path and compares the value
// found there with a configured target. Rules inside a group combine with
// AND; an empty group is vacuously true and models "always match".
// Evaluation is total: malformed rules and shape mismatches evaluate to
// false, never to a panic or an error.
package condition

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/kestrelhq/relay-gw/internal/payload"
)

// Operator identifies one of the supported comparison operators.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpExists      Operator = "exists"
	OpNotExists   Operator = "not_exists"
)

// Known reports whether op is a supported operator. Unknown operators
// still evaluate (to false); Known exists for config write-time checks.
func (op Operator) Known() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGreaterThan, OpLessThan, OpExists, OpNotExists:
		return true
	}
	return false
}

// Rule is a single comparison against a payload path.
type Rule struct {
	Path     string   `json:"path" yaml:"path"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// Evaluate resolves the rule's path against p and applies its operator.
// Unknown operators evaluate to false (fail closed).
func Evaluate(rule Rule, p map[string]any) bool {
	resolved := payload.Resolve(p, rule.Path)

	switch rule.Operator {
	case OpEquals:
		return looseEqual(resolved, rule.Value)
	case OpNotEquals:
		return !looseEqual(resolved, rule.Value)
	case OpContains:
		return contains(resolved, rule.Value)
	case OpNotContains:
		return !contains(resolved, rule.Value)
	case OpGreaterThan:
		a, aok := asNumber(resolved)
		b, bok := asNumber(rule.Value)
		return aok && bok && a > b
	case OpLessThan:
		a, aok := asNumber(resolved)
		b, bok := asNumber(rule.Value)
		return aok && bok && a < b
	case OpExists:
		return resolved != nil
	case OpNotExists:
		return resolved == nil
	default:
		return false
	}
}

// EvaluateAll applies every rule against p and ANDs the results.
// An empty rule set is vacuously true.
func EvaluateAll(rules []Rule, p map[string]any) bool {
	for _, rule := range rules {
		if !Evaluate(rule, p) {
			return false
		}
	}
	return true
}

// looseEqual compares two payload values with cross-type coercion:
// numbers compare numerically regardless of Go numeric type, and a
// string compares equal to a number when its numeric parse matches.
// Webhook providers disagree on whether numeric fields are numbers or
// strings, so "42" must equal 42. Everything else compares strictly.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	an, aIsNum := asNumber(a)
	bn, bIsNum := asNumber(b)
	if aIsNum && bIsNum {
		return an == bn
	}
	if aIsNum {
		if s, ok := b.(string); ok {
			if parsed, ok := parseNumber(s); ok {
				return an == parsed
			}
		}
		return false
	}
	if bIsNum {
		if s, ok := a.(string); ok {
			if parsed, ok := parseNumber(s); ok {
				return parsed == bn
			}
		}
		return false
	}

	// DeepEqual keeps comparison total for slice/map targets, which would
	// panic under the == operator.
	return reflect.DeepEqual(a, b)
}

// contains implements the polymorphic containment operator:
//   - string haystack: substring match
//   - array haystack: object elements match when their "name" or "id"
//     equals the target (GitHub label arrays), primitive elements match
//     by loose membership
//   - any other shape: false
func contains(haystack, needle any) bool {
	switch v := haystack.(type) {
	case string:
		s, ok := stringify(needle)
		if !ok {
			return false
		}
		return strings.Contains(v, s)
	case []any:
		for _, elem := range v {
			if obj, ok := elem.(map[string]any); ok {
				if looseEqual(obj["name"], needle) || looseEqual(obj["id"], needle) {
					return true
				}
				continue
			}
			if looseEqual(elem, needle) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// asNumber accepts the numeric types seen in decoded JSON and in rule
// values written from Go code. Strings are not numbers here; string
// coercion is the business of looseEqual alone.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// stringify renders scalar targets for substring matching. Numbers use
// their shortest representation so a target of 42 matches "42".
func stringify(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	default:
		if n, ok := asNumber(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64), true
		}
		return "", false
	}
}
