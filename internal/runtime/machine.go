package runtime

import "github.com/aretw0/statenode/pkg/domain"

// Machine holds the current state of one instance over an immutable Table.
//
// A Machine is not safe for concurrent use; its owner serializes access.
type Machine struct {
	table   *Table
	current string
}

// NewMachine creates a machine positioned at initial.
// An empty initial selects the table's first declared state.
func NewMachine(table *Table, initial string) (*Machine, error) {
	if initial == "" {
		initial = table.Initial()
	}
	if !table.Has(initial) {
		return nil, domain.NewConfigError(domain.ErrUnknownInitialState, "'%s'", initial)
	}
	return &Machine{table: table, current: initial}, nil
}

// Current returns the current state.
func (m *Machine) Current() string {
	return m.current
}

// Table returns the transition table the machine runs on.
func (m *Machine) Table() *Table {
	return m.table
}

// Can reports whether the canonical trigger name resolves from the current state.
func (m *Machine) Can(name string) bool {
	_, ok := m.table.Resolve(m.current, name)
	return ok
}

// Fire applies the canonical trigger name. On failure the current state is untouched
// and a *domain.FireError is returned.
func (m *Machine) Fire(name string) (string, error) {
	to, ok := m.table.Resolve(m.current, name)
	if !ok {
		return m.current, &domain.FireError{From: m.current, Trigger: name}
	}
	m.current = to
	return to, nil
}

// Available returns the sorted trigger names that can fire from the current state.
func (m *Machine) Available() []string {
	return m.table.Triggers(m.current)
}

// Reset moves the machine to state without consulting the table's transitions.
// It is used to restore persisted state; state must be declared.
func (m *Machine) Reset(state string) error {
	if !m.table.Has(state) {
		return domain.NewConfigError(domain.ErrUnknownInitialState, "'%s'", state)
	}
	m.current = state
	return nil
}
