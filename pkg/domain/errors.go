package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every construction-time error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Construction error kinds, carried by ConfigError.Kind.
var (
	// ErrEmptyStates is returned when no state is declared.
	ErrEmptyStates = errors.New("at least one state is required")
	// ErrInvalidTransition is returned when a transition targets an undeclared state.
	ErrInvalidTransition = errors.New("transition targets an undeclared state")
	// ErrAmbiguousTransition is returned when (from, name) maps to two different targets.
	ErrAmbiguousTransition = errors.New("ambiguous transition")
	// ErrMissingField is returned when a required configuration field is empty.
	ErrMissingField = errors.New("required field is missing")
	// ErrUnknownInitialState is returned when the initial state is not declared.
	ErrUnknownInitialState = errors.New("initial state is not declared")
	// ErrInvalidDelay is returned when initialDelay is negative, not a number or too large for a duration.
	ErrInvalidDelay = errors.New("invalid initial delay")
)

// ErrNoTransition is matched by every FireError.
var ErrNoTransition = errors.New("no transition")

// ErrStateNotFound is returned by a StateStore when nothing was saved under a key.
var ErrStateNotFound = errors.New("state not found")

// ErrNodeClosed is returned when a closed node receives a trigger.
var ErrNodeClosed = errors.New("node is closed")

// ConfigError describes why a machine could not be constructed.
type ConfigError struct {
	Kind   error
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Detail)
}

// Is makes every ConfigError match ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func (e *ConfigError) Unwrap() error {
	return e.Kind
}

// NewConfigError builds a ConfigError with a formatted detail.
func NewConfigError(kind error, format string, args ...any) *ConfigError {
	return &ConfigError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// FireError is returned when a trigger has no resolvable edge from the current state.
type FireError struct {
	From    string
	Trigger string
}

func (e *FireError) Error() string {
	return fmt.Sprintf("can not transition '%s' from state '%s'", e.Trigger, e.From)
}

func (e *FireError) Unwrap() error {
	return ErrNoTransition
}
