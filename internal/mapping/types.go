// Package mapping resolves which workflow a webhook delivery triggers.
//
// A webhook's mapping config is an ordered list of groups, each naming a
// spec type and workflow definition guarded by AND-combined conditions.
// Resolution is first-match-wins over the group order, with a
// configurable default action when nothing matches. The resolver is a
// pure function: it never errors, never mutates its inputs, and builds a
// fresh debug trail on every call.
package mapping

import (
	"github.com/kestrelhq/relay-gw/internal/condition"
	"github.com/kestrelhq/relay-gw/internal/signature"
)

// Mapping is the pair a resolution selects: which spec type to
// instantiate and which workflow definition to run it through.
type Mapping struct {
	SpecTypeID           string `json:"spec_type_id" yaml:"spec_type_id"`
	WorkflowDefinitionID string `json:"workflow_definition_id" yaml:"workflow_definition_id"`
}

// Group is one candidate mapping with its guard conditions. An empty
// Conditions slice means the group always matches.
type Group struct {
	SpecTypeID           string           `json:"spec_type_id" yaml:"spec_type_id"`
	WorkflowDefinitionID string           `json:"workflow_definition_id" yaml:"workflow_definition_id"`
	Conditions           []condition.Rule `json:"conditions" yaml:"conditions"`
}

// Target returns the group's mapping pair.
func (g Group) Target() Mapping {
	return Mapping{SpecTypeID: g.SpecTypeID, WorkflowDefinitionID: g.WorkflowDefinitionID}
}

// DefaultAction controls what happens when no group matches in
// conditional mode.
type DefaultAction string

const (
	DefaultSkip      DefaultAction = "skip"
	DefaultSetFields DefaultAction = "set_fields"
)

// Config is the mapping configuration carried by a webhook. Name and
// SpecContent are templates rendered against the payload when a run is
// created. Conditions is the webhook-level filter applied before any
// group is considered.
type Config struct {
	Name          string                  `json:"name" yaml:"name"`
	SpecContent   string                  `json:"spec_content,omitempty" yaml:"spec_content,omitempty"`
	Conditions    []condition.Rule        `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Mappings      []Group                 `json:"mappings" yaml:"mappings"`
	DefaultAction DefaultAction           `json:"default_action,omitempty" yaml:"default_action,omitempty"`
	DefaultMapping *Mapping               `json:"default_mapping,omitempty" yaml:"default_mapping,omitempty"`
	SourceConfig  *signature.SourceConfig `json:"source_config,omitempty" yaml:"source_config,omitempty"`
}

// Mode describes how a config was resolved, for the debug trail.
type Mode string

const (
	ModeSimple      Mode = "simple"
	ModeConditional Mode = "conditional"
)

// MatchedCondition is a condition rule plus the payload value it was
// evaluated against, captured at resolution time. It is a snapshot for
// observability and is never mutated afterwards.
type MatchedCondition struct {
	condition.Rule
	PayloadValue any `json:"payload_value"`
}

// DebugInfo explains a resolution: which mode applied, which conditions
// matched (nil for always-match and default outcomes), whether the
// default mapping was used, and the selected mapping.
type DebugInfo struct {
	MappingMode              Mode               `json:"mapping_mode"`
	MappingConditionsMatched []MatchedCondition `json:"mapping_conditions_matched"`
	UsedDefault              bool               `json:"used_default"`
	Mapping                  Mapping            `json:"mapping"`
}

// Resolution is a successful mapping decision. A nil *Resolution means
// "do not create a run" — either an explicit skip or the defensive
// fallback for a malformed config.
type Resolution struct {
	Mapping Mapping   `json:"mapping"`
	Debug   DebugInfo `json:"debug_info"`
}
