package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/relay-gw/internal/condition"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func simpleConfig() Config {
	return Config{
		Name: "run",
		Mappings: []Group{
			{SpecTypeID: "spec-default", WorkflowDefinitionID: "wf-default"},
		},
	}
}

func conditionalConfig() Config {
	return Config{
		Name: "run",
		Mappings: []Group{
			{
				SpecTypeID:           "spec-bug",
				WorkflowDefinitionID: "wf-bug",
				Conditions: []condition.Rule{
					{Path: "labels", Operator: condition.OpContains, Value: "bug"},
				},
			},
			{
				SpecTypeID:           "spec-pr",
				WorkflowDefinitionID: "wf-pr",
				Conditions: []condition.Rule{
					{Path: "action", Operator: condition.OpEquals, Value: "opened"},
					{Path: "pull_request.draft", Operator: condition.OpEquals, Value: false},
				},
			},
		},
		DefaultAction: DefaultSkip,
	}
}

func TestResolveSimpleMode(t *testing.T) {
	p := decode(t, `{"anything": true}`)

	res := Resolve(p, simpleConfig())
	require.NotNil(t, res)
	assert.Equal(t, "spec-default", res.Mapping.SpecTypeID)
	assert.Equal(t, "wf-default", res.Mapping.WorkflowDefinitionID)
	assert.Equal(t, ModeSimple, res.Debug.MappingMode)
	assert.Nil(t, res.Debug.MappingConditionsMatched)
	assert.False(t, res.Debug.UsedDefault)
	assert.Equal(t, res.Mapping, res.Debug.Mapping)
}

func TestResolveSimpleModeIgnoresPayload(t *testing.T) {
	cfg := simpleConfig()
	for _, raw := range []string{`{}`, `{"action": "closed"}`, `{"a": {"b": [1]}}`} {
		res := Resolve(decode(t, raw), cfg)
		require.NotNil(t, res, "payload %s", raw)
		assert.Equal(t, "spec-default", res.Mapping.SpecTypeID)
	}
}

func TestResolveConditionalMatch(t *testing.T) {
	cfg := conditionalConfig()
	p := decode(t, `{"action": "opened", "pull_request": {"draft": false}}`)

	res := Resolve(p, cfg)
	require.NotNil(t, res)
	assert.Equal(t, "spec-pr", res.Mapping.SpecTypeID)
	assert.Equal(t, ModeConditional, res.Debug.MappingMode)
	require.Len(t, res.Debug.MappingConditionsMatched, 2)
	assert.Equal(t, "action", res.Debug.MappingConditionsMatched[0].Path)
	assert.Equal(t, "opened", res.Debug.MappingConditionsMatched[0].PayloadValue)
	assert.Equal(t, false, res.Debug.MappingConditionsMatched[1].PayloadValue)
	assert.False(t, res.Debug.UsedDefault)
}

func TestResolveFirstMatchWins(t *testing.T) {
	cfg := conditionalConfig()
	// Satisfies both groups; the bug group is listed first.
	p := decode(t, `{
		"action": "opened",
		"pull_request": {"draft": false},
		"labels": [{"name": "bug"}]
	}`)

	res := Resolve(p, cfg)
	require.NotNil(t, res)
	assert.Equal(t, "spec-bug", res.Mapping.SpecTypeID)

	// Reordering the groups flips the winner.
	flipped := cfg
	flipped.Mappings = []Group{cfg.Mappings[1], cfg.Mappings[0]}
	res = Resolve(p, flipped)
	require.NotNil(t, res)
	assert.Equal(t, "spec-pr", res.Mapping.SpecTypeID)
}

func TestResolvePartialAndFails(t *testing.T) {
	cfg := conditionalConfig()
	// First condition of the pr group holds, second does not.
	p := decode(t, `{"action": "opened", "pull_request": {"draft": true}}`)

	assert.Nil(t, Resolve(p, cfg))
}

func TestResolveDefaultSkip(t *testing.T) {
	cfg := conditionalConfig()
	p := decode(t, `{"action": "closed"}`)

	assert.Nil(t, Resolve(p, cfg))
}

func TestResolveDefaultSetFields(t *testing.T) {
	cfg := conditionalConfig()
	cfg.DefaultAction = DefaultSetFields
	cfg.DefaultMapping = &Mapping{SpecTypeID: "spec-fallback", WorkflowDefinitionID: "wf-fallback"}
	p := decode(t, `{"action": "closed"}`)

	res := Resolve(p, cfg)
	require.NotNil(t, res)
	assert.Equal(t, "spec-fallback", res.Mapping.SpecTypeID)
	assert.Equal(t, ModeConditional, res.Debug.MappingMode)
	assert.True(t, res.Debug.UsedDefault)
	assert.Nil(t, res.Debug.MappingConditionsMatched)
}

func TestResolveMalformedDefaultFallsBackToSkip(t *testing.T) {
	cfg := conditionalConfig()
	cfg.DefaultAction = DefaultSetFields
	cfg.DefaultMapping = nil
	p := decode(t, `{"action": "closed"}`)

	assert.Nil(t, Resolve(p, cfg))

	cfg.DefaultAction = ""
	assert.Nil(t, Resolve(p, cfg))
}

func TestResolveAlwaysMatchGroupShortCircuits(t *testing.T) {
	cfg := Config{
		Name: "run",
		Mappings: []Group{
			{
				SpecTypeID:           "spec-a",
				WorkflowDefinitionID: "wf-a",
				Conditions: []condition.Rule{
					{Path: "action", Operator: condition.OpEquals, Value: "never"},
				},
			},
			{SpecTypeID: "spec-b", WorkflowDefinitionID: "wf-b"},
			{SpecTypeID: "spec-c", WorkflowDefinitionID: "wf-c"},
		},
		DefaultAction: DefaultSkip,
	}
	p := decode(t, `{"action": "opened"}`)

	res := Resolve(p, cfg)
	require.NotNil(t, res)
	// The first always-match group wins even with another behind it.
	assert.Equal(t, "spec-b", res.Mapping.SpecTypeID)
	assert.Equal(t, ModeSimple, res.Debug.MappingMode)
}

func TestResolveEmptyMappings(t *testing.T) {
	cfg := Config{Name: "run", DefaultAction: DefaultSkip}
	assert.Nil(t, Resolve(decode(t, `{}`), cfg))
}

func TestResolveWebhookConditionsNotConsulted(t *testing.T) {
	// Webhook-level filter conditions are the orchestrator's business;
	// the resolver only looks at group conditions.
	cfg := simpleConfig()
	cfg.Conditions = []condition.Rule{
		{Path: "action", Operator: condition.OpEquals, Value: "never"},
	}

	res := Resolve(decode(t, `{"action": "opened"}`), cfg)
	require.NotNil(t, res)
	assert.Equal(t, "spec-default", res.Mapping.SpecTypeID)
}

func TestResolveLabelRouting(t *testing.T) {
	cfg := Config{
		Name: "run",
		Mappings: []Group{
			{
				SpecTypeID:           "spec_bug",
				WorkflowDefinitionID: "wf-bug",
				Conditions: []condition.Rule{
					{Path: "labels", Operator: condition.OpContains, Value: "bug"},
				},
			},
			{
				SpecTypeID:           "spec_feature",
				WorkflowDefinitionID: "wf-feature",
				Conditions: []condition.Rule{
					{Path: "labels", Operator: condition.OpContains, Value: "feature"},
				},
			},
		},
		DefaultAction: DefaultSkip,
	}

	res := Resolve(decode(t, `{"action": "opened", "labels": ["bug", "critical"]}`), cfg)
	require.NotNil(t, res)
	assert.Equal(t, "spec_bug", res.Mapping.SpecTypeID)
	assert.Len(t, res.Debug.MappingConditionsMatched, 1)

	// Both conditions of a group must hold.
	cfg.Mappings[0].Conditions = append(cfg.Mappings[0].Conditions,
		condition.Rule{Path: "priority", Operator: condition.OpEquals, Value: "high"})
	assert.Nil(t, Resolve(decode(t, `{"labels": ["bug"], "priority": "low"}`), cfg))
}

func TestResolveIsPure(t *testing.T) {
	cfg := conditionalConfig()
	p := decode(t, `{"action": "opened", "pull_request": {"draft": false}}`)

	first := Resolve(p, cfg)
	second := Resolve(p, cfg)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Mapping, second.Mapping)
	assert.Equal(t, first.Debug, second.Debug)
}
