package domain

// Wildcard is the From marker of a transition valid from any state.
const Wildcard = "*"

// Transition defines a named edge between two states.
type Transition struct {
	// Name is the canonical (lower-camel-case) trigger name.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// From is the source state, or Wildcard.
	From string `json:"from" yaml:"from" mapstructure:"from"`

	To string `json:"to" yaml:"to" mapstructure:"to"`
}

// IsWildcard reports whether the transition applies to every source state.
func (t Transition) IsWildcard() bool {
	return t.From == Wildcard
}

// Definition is the declarative shape of a machine.
// The first state is the default initial state.
type Definition struct {
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	States      []string     `json:"states" yaml:"states"`
	Transitions []Transition `json:"transitions" yaml:"transitions"`
}

// InitialState returns the first declared state, or "" if none is declared.
func (d Definition) InitialState() string {
	if len(d.States) == 0 {
		return ""
	}
	return d.States[0]
}
