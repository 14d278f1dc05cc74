package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a glamour markdown renderer adapted to the terminal background.
func NewRenderer() (ContentRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// PrintBanner writes the muster banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _ __ ___  _   _ ___| |_ ___ _ __ ", "#818cf8"},
		{" | '_ ` _ \\| | | / __| __/ _ \\ '__|", "#a78bfa"},
		{" | | | | | | |_| \\__ \\ ||  __/ |   ", "#e879f9"},
		{" |_| |_| |_|\\__,_|___/\\__\\___|_|   ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
