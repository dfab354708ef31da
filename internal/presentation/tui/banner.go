package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"      _        _                       _      ",
	"  ___| |_ __ _| |_ ___ _ __   ___   __| | ___ ",
	" / __| __/ _` | __/ _ \\ '_ \\ / _ \\ / _` |/ _ \\",
	" \\__ \\ || (_| | ||  __/ | | | (_) | (_| |  __/",
	" |___/\\__\\__,_|\\__\\___|_| |_|\\___/ \\__,_|\\___|",
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa"}

// PrintBanner writes the ASCII art banner to w using the given color profile.
func PrintBanner(w io.Writer, profile termenv.Profile) {
	out := termenv.NewOutput(w, termenv.WithProfile(profile))
	fmt.Fprintln(out)
	for i, line := range bannerLines {
		fmt.Fprintln(out, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(out)
}
