package loam

import (
	"github.com/aretw0/statenode/pkg/domain"
)

// Document is the frontmatter of a machine definition file.
// Scalars are untyped so that "2" and 2 are both accepted, as in YAML config files.
type Document struct {
	Name        string              `json:"name" mapstructure:"name"`
	States      []string            `json:"states" mapstructure:"states"`
	Transitions []domain.Transition `json:"transitions" mapstructure:"transitions"`

	InitialDelay           any `json:"initialDelay" mapstructure:"initialDelay"`
	PersistOnReload        any `json:"persistOnReload" mapstructure:"persistOnReload"`
	PersistKey             any `json:"persistKey" mapstructure:"persistKey"`
	ReportOnInvalidTrigger any `json:"reportOnInvalidTrigger" mapstructure:"reportOnInvalidTrigger"`
	EmitOnNoChange         any `json:"emitOnNoChange" mapstructure:"emitOnNoChange"`
	StateProperty          any `json:"stateProperty" mapstructure:"stateProperty"`
	TriggerProperty        any `json:"triggerProperty" mapstructure:"triggerProperty"`

	// Legacy keys
	ThrowException        any `json:"throwException" mapstructure:"throwException"`
	OutputStateChangeOnly any `json:"outputStateChangeOnly" mapstructure:"outputStateChangeOnly"`
}

// toMap returns the keys that are present, in the shape config.FromMap expects.
func (d Document) toMap() map[string]any {
	m := map[string]any{
		"name":        d.Name,
		"states":      d.States,
		"transitions": d.Transitions,
	}
	optional := map[string]any{
		"initialDelay":           d.InitialDelay,
		"persistOnReload":        d.PersistOnReload,
		"persistKey":             d.PersistKey,
		"reportOnInvalidTrigger": d.ReportOnInvalidTrigger,
		"emitOnNoChange":         d.EmitOnNoChange,
		"stateProperty":          d.StateProperty,
		"triggerProperty":        d.TriggerProperty,
		"throwException":         d.ThrowException,
		"outputStateChangeOnly":  d.OutputStateChangeOnly,
	}
	for k, v := range optional {
		if v != nil {
			m[k] = v
		}
	}
	return m
}
