package domain_test

import (
	"testing"

	"github.com/aretw0/statenode/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"kebab", "turn-on", "turnOn"},
		{"snake", "turn_on", "turnOn"},
		{"screaming snake", "TURN_ON", "turnOn"},
		{"mixed separators", "go-to_sleep", "goToSleep"},
		{"already canonical", "turnOn", "turnOn"},
		{"single lowercase word", "reset", "reset"},
		{"single word with inner uppercase kept verbatim", "turnON", "turnON"},
		{"single capitalized word", "Reset", "reset"},
		{"single pascal word is flattened", "TurnOn", "turnon"},
		{"symbol first", "1st", "1st"},
		{"double separator", "turn__on", "turnOn"},
		{"trailing separator", "turn-", "turn"},
		{"leading separator", "-on", "On"},
		{"unicode", "élan-vital", "élanVital"},
		{"invalid utf-8 kept byte for byte", "turn-\xffon", "turn-\xffon"},
		{"invalid utf-8 first word", "\xc3_ON", "\xc3_ON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Normalize(tt.input))
		})
	}
}

func TestNormalize_IdempotentForMultiWordLabels(t *testing.T) {
	inputs := []string{
		"turn-on", "turn_off", "TURN_ON", "Go-To-Sleep", "a-b-c", "x_Y", "open-DOOR_now", "1-on",
	}
	for _, in := range inputs {
		once := domain.Normalize(in)
		assert.Equal(t, once, domain.Normalize(once), "input %q", in)
	}
}
