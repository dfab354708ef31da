package runner

import (
	"strings"
	"testing"

	"github.com/aretw0/statenode/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	_, err := SanitizeInput(strings.Repeat("a", DefaultMaxInputSize))
	assert.NoError(t, err)

	_, err = SanitizeInput(strings.Repeat("a", DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	t.Setenv(EnvMaxInputSize, "8")
	_, err = SanitizeInput("turn-off!")
	assert.ErrorIs(t, err, ErrInputTooLarge)
	_, err = SanitizeInput("turn-on")
	assert.NoError(t, err)

	t.Setenv(EnvMaxInputSize, "junk")
	assert.Equal(t, DefaultMaxInputSize, MaxInputSize())
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("turn-\xbd\xb2on")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestCleanTrigger(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		clean     string
		canonical string
	}{
		{"plain", "turn-on", "turn-on", "turnOn"},
		{"ansi colored", "\x1b[1mturn_off", "[1mturn_off", "[1mturnOff"},
		{"escape inside a word", "turn-\x1bon", "turn-on", "turnOn"},
		{"null byte", "TURN\x00_ON", "TURN_ON", "turnOn"},
		{"bell and line ending", "toggle\x07\r\n", "toggle", "toggle"},
		{"padded", "  \tturn-on  ", "turn-on", "turnOn"},
		{"only controls", "\x00\x07", "", ""},
		{"unicode word", "ligar-lâmpada", "ligar-lâmpada", "ligarLâmpada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanTrigger(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.clean, got)
			assert.Equal(t, tt.canonical, domain.Normalize(got))
		})
	}
}
