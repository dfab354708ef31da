package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize converts a raw trigger label ("turn-on", "TURN_ON") into the canonical
// lower-camel-case name used as a transition key ("turnOn").
//
// A label made of a single word whose first character is not an uppercase letter is
// returned unchanged, byte for byte ("turnON" stays "turnON"). Transition names must
// therefore be declared in exactly the form triggers normalize to. A label that is
// not valid UTF-8 is also returned unchanged.
//
// Normalize(Normalize(x)) == Normalize(x) holds for labels with at least one separator
// and a non-empty first word; a leading separator ("-on" -> "On") is outside that guarantee.
func Normalize(label string) string {
	if label == "" || !utf8.ValidString(label) {
		return label
	}

	words := strings.Split(strings.ReplaceAll(label, "-", "_"), "_")

	if len(words) == 1 {
		first, _ := utf8.DecodeRuneInString(label)
		if unicode.ToLower(first) == first {
			return label
		}
	}

	var sb strings.Builder
	sb.Grow(len(label))
	sb.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		if w == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(w)
		sb.WriteString(strings.ToUpper(string(first)))
		sb.WriteString(strings.ToLower(w[size:]))
	}
	return sb.String()
}
