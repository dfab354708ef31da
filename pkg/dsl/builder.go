package dsl

import (
	"strconv"
	"time"

	"github.com/aretw0/statenode/internal/runtime"
	"github.com/aretw0/statenode/pkg/config"
	"github.com/aretw0/statenode/pkg/domain"
)

// Builder accumulates a machine configuration.
type Builder struct {
	cfg config.Config
}

// New starts a configuration for the named machine with default properties.
func New(name string) *Builder {
	return &Builder{
		cfg: config.Config{
			Name:            name,
			StateProperty:   config.DefaultStateProperty,
			TriggerProperty: config.DefaultTriggerProperty,
		},
	}
}

// States appends declared states. The first state ever declared is the initial one.
func (b *Builder) States(states ...string) *Builder {
	b.cfg.States = append(b.cfg.States, states...)
	return b
}

// On starts a transition named name.
func (b *Builder) On(name string) *TransitionBuilder {
	return &TransitionBuilder{builder: b, name: name}
}

// InitialDelay emits the current state once, d after the node starts.
func (b *Builder) InitialDelay(d time.Duration) *Builder {
	b.cfg.InitialDelay = strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	return b
}

// PersistOnReload restores the saved state when a node is built.
func (b *Builder) PersistOnReload() *Builder {
	b.cfg.PersistOnReload = true
	return b
}

// PersistKey overrides the persistence key.
func (b *Builder) PersistKey(key string) *Builder {
	b.cfg.PersistKey = key
	return b
}

// ReportInvalidTriggers makes unresolvable triggers return an error.
func (b *Builder) ReportInvalidTriggers() *Builder {
	b.cfg.ReportOnInvalidTrigger = true
	return b
}

// EmitOnNoChange emits the unchanged state for rejected triggers.
func (b *Builder) EmitOnNoChange() *Builder {
	b.cfg.EmitOnNoChange = true
	return b
}

// Properties sets the output state property and the input trigger property.
func (b *Builder) Properties(state, trigger string) *Builder {
	b.cfg.StateProperty = state
	b.cfg.TriggerProperty = trigger
	return b
}

// Build validates and returns the configuration.
func (b *Builder) Build() (*config.Config, error) {
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := runtime.Build(cfg.States, cfg.Transitions); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *config.Config {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}

// TransitionBuilder collects the source states of one named transition.
type TransitionBuilder struct {
	builder *Builder
	name    string
	from    []string
}

// From adds source states. Each one produces its own transition.
func (t *TransitionBuilder) From(states ...string) *TransitionBuilder {
	t.from = append(t.from, states...)
	return t
}

// FromAny makes the transition apply from every state.
func (t *TransitionBuilder) FromAny() *TransitionBuilder {
	return t.From(domain.Wildcard)
}

// To completes the transition and returns to the machine builder.
// A transition without From applies from every state.
func (t *TransitionBuilder) To(state string) *Builder {
	from := t.from
	if len(from) == 0 {
		from = []string{domain.Wildcard}
	}
	for _, f := range from {
		t.builder.cfg.Transitions = append(t.builder.cfg.Transitions, domain.Transition{
			Name: t.name,
			From: f,
			To:   state,
		})
	}
	return t.builder
}
