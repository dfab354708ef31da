package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/statenode/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestConfigError_Matching(t *testing.T) {
	err := domain.NewConfigError(domain.ErrAmbiguousTransition, "%q from %q", "turnOn", "off")

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.ErrorIs(t, err, domain.ErrAmbiguousTransition)
	assert.NotErrorIs(t, err, domain.ErrEmptyStates)
	assert.Equal(t, `ambiguous transition: "turnOn" from "off"`, err.Error())
}

func TestFireError_Matching(t *testing.T) {
	var err error = &domain.FireError{From: "on", Trigger: "turnOn"}

	assert.ErrorIs(t, err, domain.ErrNoTransition)
	assert.NotErrorIs(t, err, domain.ErrInvalidConfig)

	var fe *domain.FireError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "on", fe.From)
	assert.Equal(t, "can not transition 'turnOn' from state 'on'", err.Error())
}
