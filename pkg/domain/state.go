package domain

import "time"

// Snapshot is the persisted record of a machine instance.
type Snapshot struct {
	// Machine is the definition name the state belongs to (informational).
	Machine string `json:"machine,omitempty" yaml:"machine,omitempty"`

	// State is the current state name. Empty when Sealed is set.
	State string `json:"state,omitempty" yaml:"state,omitempty"`

	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// Sealed holds an opaque envelope written by persistence middleware
	// (e.g. the encrypted form of the real snapshot).
	Sealed string `json:"sealed,omitempty" yaml:"sealed,omitempty"`
}

// NewSnapshot creates a snapshot stamped with the current time.
func NewSnapshot(machine, state string) *Snapshot {
	return &Snapshot{
		Machine:   machine,
		State:     state,
		UpdatedAt: time.Now().UTC(),
	}
}

// Output is the value produced downstream for one processed event
// (or for the initial emission).
type Output struct {
	Machine string `json:"machine,omitempty"`

	// Key is the persistence key of the instance (the session ID under a session manager).
	Key string `json:"key,omitempty"`

	// Property is the field name the host should store State under.
	Property string `json:"property"`

	State string `json:"state"`

	// Trigger is the raw trigger that produced this output. Empty for the initial emission.
	Trigger string `json:"trigger,omitempty"`

	// Changed is false when the trigger was rejected and output was emitted anyway.
	Changed bool `json:"changed"`

	Initial bool `json:"initial,omitempty"`
}

// Fill is the color of a status indicator.
type Fill string

const (
	FillOK    Fill = "green"
	FillError Fill = "red"
)

// Status is the operator-facing indicator of a machine instance.
type Status struct {
	Fill Fill   `json:"fill"`
	Text string `json:"text"`
}

// OK reports whether the status is healthy.
func (s Status) OK() bool {
	return s.Fill == FillOK
}

// StatusOK builds a healthy status carrying the current state.
func StatusOK(state string) Status {
	return Status{Fill: FillOK, Text: state}
}

// StatusError builds an error status carrying the message.
func StatusError(err error) Status {
	return Status{Fill: FillError, Text: err.Error()}
}
