package payload

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var p map[string]any
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return p
}

func TestResolve(t *testing.T) {
	p := decode(t, `{
		"action": "opened",
		"number": 42,
		"merged": false,
		"pull_request": {
			"title": "Fix login bug",
			"user": {"login": "octocat"},
			"draft": null
		},
		"labels": [{"name": "bug"}]
	}`)

	tests := []struct {
		name string
		path string
		want any
	}{
		{"top level string", "action", "opened"},
		{"top level number", "number", float64(42)},
		{"top level bool", "merged", false},
		{"nested", "pull_request.title", "Fix login bug"},
		{"deeply nested", "pull_request.user.login", "octocat"},
		{"missing key", "nope", nil},
		{"missing nested key", "pull_request.nope", nil},
		{"descend through scalar", "action.deeper", nil},
		{"descend through array", "labels.0", nil},
		{"descend through array key", "labels.name", nil},
		{"json null", "pull_request.draft", nil},
		{"descend through null", "pull_request.draft.x", nil},
		{"empty path", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(p, tt.path)
			if got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolveNonObjectRoot(t *testing.T) {
	if got := Resolve("scalar", "a"); got != nil {
		t.Errorf("Resolve on string root = %v, want nil", got)
	}
	if got := Resolve(nil, "a"); got != nil {
		t.Errorf("Resolve on nil root = %v, want nil", got)
	}
	if got := Resolve([]any{"a"}, "a"); got != nil {
		t.Errorf("Resolve on array root = %v, want nil", got)
	}
}

func TestResolveComposite(t *testing.T) {
	p := decode(t, `{"pr": {"labels": [{"name": "bug"}]}}`)
	got := Resolve(p, "pr.labels")
	arr, ok := got.([]any)
	if !ok || len(arr) != 1 {
		t.Fatalf("Resolve(pr.labels) = %#v, want one-element array", got)
	}
}

func TestResolveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Keys without dots always round-trip through a single-level object.
	keyGen := gen.RegexMatch(`[a-zA-Z_][a-zA-Z0-9_]{0,15}`)

	properties.Property("stored value resolves back", prop.ForAll(
		func(key, value string) bool {
			p := map[string]any{key: value}
			return Resolve(p, key) == value
		},
		keyGen,
		gen.AnyString(),
	))

	properties.Property("two-segment path resolves through nesting", prop.ForAll(
		func(outer, inner, value string) bool {
			p := map[string]any{outer: map[string]any{inner: value}}
			return Resolve(p, outer+"."+inner) == value
		},
		keyGen,
		keyGen,
		gen.AnyString(),
	))

	properties.Property("resolution never panics on empty object", prop.ForAll(
		func(path string) bool {
			_ = Resolve(map[string]any{}, path)
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
