package runtime_test

import (
	"errors"
	"testing"

	"github.com/aretw0/statenode/internal/runtime"
	"github.com/aretw0/statenode/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLight(t *testing.T, initial string) *runtime.Machine {
	t.Helper()
	table, err := runtime.Build([]string{"off", "on"}, lightTransitions())
	require.NoError(t, err)
	m, err := runtime.NewMachine(table, initial)
	require.NoError(t, err)
	return m
}

func TestMachine_RoundTrip(t *testing.T) {
	m := newLight(t, "")
	assert.Equal(t, "off", m.Current())

	state, err := m.Fire(domain.Normalize("turn-on"))
	require.NoError(t, err)
	assert.Equal(t, "on", state)
	assert.Equal(t, "on", m.Current())

	state, err = m.Fire(domain.Normalize("turn-on"))
	require.Error(t, err)
	assert.Equal(t, "on", state)
	assert.Equal(t, "on", m.Current(), "failed fire must not mutate state")

	var fe *domain.FireError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "on", fe.From)
	assert.Equal(t, "turnOn", fe.Trigger)
	assert.ErrorIs(t, err, domain.ErrNoTransition)
}

func TestMachine_UnknownInitialState(t *testing.T) {
	table, err := runtime.Build([]string{"off", "on"}, lightTransitions())
	require.NoError(t, err)

	_, err = runtime.NewMachine(table, "dimmed")
	assert.ErrorIs(t, err, domain.ErrUnknownInitialState)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestMachine_WildcardFromEveryState(t *testing.T) {
	states := []string{"off", "on", "broken", "standby"}
	table, err := runtime.Build(states, []domain.Transition{
		{Name: "reset", From: domain.Wildcard, To: "off"},
	})
	require.NoError(t, err)

	for _, s := range states {
		m, err := runtime.NewMachine(table, s)
		require.NoError(t, err)
		assert.True(t, m.Can("reset"), "from %s", s)

		to, err := m.Fire("reset")
		require.NoError(t, err, "from %s", s)
		assert.Equal(t, "off", to)
	}
}

func TestMachine_CanIffFireSucceeds(t *testing.T) {
	states := []string{"idle", "running", "paused", "done"}
	table, err := runtime.Build(states, []domain.Transition{
		{Name: "start", From: "idle", To: "running"},
		{Name: "pause", From: "running", To: "paused"},
		{Name: "resume", From: "paused", To: "running"},
		{Name: "finish", From: "running", To: "done"},
		{Name: "abort", From: domain.Wildcard, To: "idle"},
	})
	require.NoError(t, err)

	triggers := []string{"start", "pause", "resume", "finish", "abort", "unknown", ""}
	for _, from := range states {
		for _, trig := range triggers {
			m, err := runtime.NewMachine(table, from)
			require.NoError(t, err)

			can := m.Can(trig)
			_, fireErr := m.Fire(trig)
			assert.Equal(t, can, fireErr == nil, "from=%s trigger=%s", from, trig)
			if !can {
				assert.Equal(t, from, m.Current(), "from=%s trigger=%s", from, trig)
			}
		}
	}
}

func TestMachine_DeadEndIsNotAnError(t *testing.T) {
	table, err := runtime.Build([]string{"start", "end"}, []domain.Transition{
		{Name: "finish", From: "start", To: "end"},
	})
	require.NoError(t, err)
	m, err := runtime.NewMachine(table, "end")
	require.NoError(t, err)

	assert.Empty(t, m.Available())
	assert.False(t, m.Can("finish"))
}

func TestMachine_Reset(t *testing.T) {
	m := newLight(t, "off")

	require.NoError(t, m.Reset("on"))
	assert.Equal(t, "on", m.Current())
	assert.Equal(t, []string{"turnOff"}, m.Available())

	err := m.Reset("dimmed")
	assert.ErrorIs(t, err, domain.ErrUnknownInitialState)
	assert.Equal(t, "on", m.Current())
}
