package mapping

import (
	"github.com/kestrelhq/relay-gw/internal/condition"
	"github.com/kestrelhq/relay-gw/internal/payload"
)

// Resolve selects the mapping a payload triggers under cfg, or nil when
// the delivery should be skipped.
//
// Groups are tried strictly in config order and the first match wins —
// including the first of several always-match groups in an ambiguous
// config. Group order is therefore load-bearing: reordering groups can
// change which workflow an ambiguous payload triggers.
func Resolve(p map[string]any, cfg Config) *Resolution {
	mode := ModeConditional
	if len(cfg.Mappings) == 1 && len(cfg.Mappings[0].Conditions) == 0 {
		mode = ModeSimple
	}

	for _, group := range cfg.Mappings {
		if len(group.Conditions) == 0 {
			target := group.Target()
			return &Resolution{
				Mapping: target,
				Debug: DebugInfo{
					MappingMode:              ModeSimple,
					MappingConditionsMatched: nil,
					UsedDefault:              false,
					Mapping:                  target,
				},
			}
		}

		if condition.EvaluateAll(group.Conditions, p) {
			matched := make([]MatchedCondition, 0, len(group.Conditions))
			for _, rule := range group.Conditions {
				matched = append(matched, MatchedCondition{
					Rule:         rule,
					PayloadValue: payload.Resolve(p, rule.Path),
				})
			}
			target := group.Target()
			return &Resolution{
				Mapping: target,
				Debug: DebugInfo{
					MappingMode:              ModeConditional,
					MappingConditionsMatched: matched,
					UsedDefault:              false,
					Mapping:                  target,
				},
			}
		}
	}

	if mode == ModeConditional {
		switch {
		case cfg.DefaultAction == DefaultSkip:
			return nil
		case cfg.DefaultAction == DefaultSetFields && cfg.DefaultMapping != nil:
			target := *cfg.DefaultMapping
			return &Resolution{
				Mapping: target,
				Debug: DebugInfo{
					MappingMode:              ModeConditional,
					MappingConditionsMatched: nil,
					UsedDefault:              true,
					Mapping:                  target,
				},
			}
		default:
			// Conditional mode without a usable default only happens when a
			// config bypassed write-time validation. Treat it as a skip.
			return nil
		}
	}

	// Simple mode with no match is only reachable with zero mappings.
	return nil
}
