package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Frame ASCII art banner to w, colored when the
// terminal supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{"   __                          ", "#818cf8"},
		{"  / _|_ __ __ _ _ __ ___   ___ ", "#a78bfa"},
		{" | |_| '__/ _` | '_ ` _ \\ / _ \\", "#c084fc"},
		{" |  _| | | (_| | | | | | |  __/", "#e879f9"},
		{" |_| |_|  \\__,_|_| |_| |_|\\___|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
