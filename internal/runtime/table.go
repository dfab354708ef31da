package runtime

import (
	"slices"

	"github.com/aretw0/statenode/pkg/domain"
)

type edge struct {
	from string
	name string
}

// Table is the immutable transition table of a machine.
// It is built once by Build and is safe to share between machines.
type Table struct {
	states      []string
	declared    map[string]struct{}
	exact       map[edge]string
	wildcard    map[string]string
	transitions []domain.Transition
}

// Build validates the definition and compiles it into a Table.
//
// It fails with domain.ErrEmptyStates when no state is declared, with
// domain.ErrInvalidTransition when a transition targets an undeclared state or has
// no name, and with domain.ErrAmbiguousTransition when two transitions share
// (from, name) but differ in target. Exact duplicates are accepted.
func Build(states []string, transitions []domain.Transition) (*Table, error) {
	if len(states) == 0 {
		return nil, &domain.ConfigError{Kind: domain.ErrEmptyStates}
	}

	t := &Table{
		states:      slices.Clone(states),
		declared:    make(map[string]struct{}, len(states)),
		exact:       make(map[edge]string),
		wildcard:    make(map[string]string),
		transitions: make([]domain.Transition, 0, len(transitions)),
	}

	for _, s := range states {
		if s == "" {
			return nil, domain.NewConfigError(domain.ErrMissingField, "state name is empty")
		}
		t.declared[s] = struct{}{}
	}

	for i, tr := range transitions {
		if tr.Name == "" {
			return nil, domain.NewConfigError(domain.ErrInvalidTransition, "transition #%d has no name", i)
		}
		if _, ok := t.declared[tr.To]; !ok {
			return nil, domain.NewConfigError(domain.ErrInvalidTransition,
				"'%s' targets undeclared state '%s'", tr.Name, tr.To)
		}

		if tr.IsWildcard() {
			if prev, dup := t.wildcard[tr.Name]; dup {
				if prev != tr.To {
					return nil, domain.NewConfigError(domain.ErrAmbiguousTransition,
						"'%s' from '%s' leads to both '%s' and '%s'", tr.Name, tr.From, prev, tr.To)
				}
				continue
			}
			t.wildcard[tr.Name] = tr.To
		} else {
			key := edge{from: tr.From, name: tr.Name}
			if prev, dup := t.exact[key]; dup {
				if prev != tr.To {
					return nil, domain.NewConfigError(domain.ErrAmbiguousTransition,
						"'%s' from '%s' leads to both '%s' and '%s'", tr.Name, tr.From, prev, tr.To)
				}
				continue
			}
			t.exact[key] = tr.To
		}
		t.transitions = append(t.transitions, tr)
	}

	return t, nil
}

// Resolve looks up (from, name), falling back to the wildcard entry for name.
func (t *Table) Resolve(from, name string) (string, bool) {
	if to, ok := t.exact[edge{from: from, name: name}]; ok {
		return to, true
	}
	to, ok := t.wildcard[name]
	return to, ok
}

// Has reports whether state is declared.
func (t *Table) Has(state string) bool {
	_, ok := t.declared[state]
	return ok
}

// States returns the declared states in declaration order.
func (t *Table) States() []string {
	return slices.Clone(t.states)
}

// Initial returns the default initial state (the first declared one).
func (t *Table) Initial() string {
	return t.states[0]
}

// Transitions returns the deduplicated transitions in declaration order.
func (t *Table) Transitions() []domain.Transition {
	return slices.Clone(t.transitions)
}

// Triggers returns the sorted trigger names resolvable from state.
func (t *Table) Triggers(from string) []string {
	var names []string
	for key := range t.exact {
		if key.from == from {
			names = append(names, key.name)
		}
	}
	for name := range t.wildcard {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
