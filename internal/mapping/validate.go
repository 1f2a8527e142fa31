package mapping

import (
	"fmt"

	"github.com/kestrelhq/relay-gw/internal/condition"
)

// Validate enforces the write-time invariants on a mapping config.
//
// The resolver itself tolerates invalid configs (it degrades to skip),
// but configs accepted through the admin API must be resolvable without
// ambiguity: once any group carries conditions, or more than one group
// always matches, a default action is mandatory.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name template is required")
	}

	alwaysMatch := 0
	conditional := 0
	for i, group := range c.Mappings {
		if group.SpecTypeID == "" {
			return fmt.Errorf("mappings[%d]: spec_type_id is required", i)
		}
		if group.WorkflowDefinitionID == "" {
			return fmt.Errorf("mappings[%d]: workflow_definition_id is required", i)
		}
		if len(group.Conditions) == 0 {
			alwaysMatch++
		} else {
			conditional++
		}
		if err := validateRules(group.Conditions, fmt.Sprintf("mappings[%d]", i)); err != nil {
			return err
		}
	}

	if err := validateRules(c.Conditions, "conditions"); err != nil {
		return err
	}

	if conditional > 0 || alwaysMatch > 1 {
		switch c.DefaultAction {
		case DefaultSkip:
		case DefaultSetFields:
			if c.DefaultMapping == nil {
				return fmt.Errorf("default_action %q requires default_mapping", DefaultSetFields)
			}
			if c.DefaultMapping.SpecTypeID == "" || c.DefaultMapping.WorkflowDefinitionID == "" {
				return fmt.Errorf("default_mapping must set spec_type_id and workflow_definition_id")
			}
		case "":
			return fmt.Errorf("default_action is required when mappings are conditional or ambiguous")
		default:
			return fmt.Errorf("unknown default_action %q", c.DefaultAction)
		}
	}

	return nil
}

func validateRules(rules []condition.Rule, where string) error {
	for i, rule := range rules {
		if rule.Path == "" {
			return fmt.Errorf("%s.conditions[%d]: path is required", where, i)
		}
		if !rule.Operator.Known() {
			return fmt.Errorf("%s.conditions[%d]: unknown operator %q", where, i, rule.Operator)
		}
	}
	return nil
}
