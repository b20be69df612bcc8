package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct{ text, color string }{
	{`   __ _ _   _ _ _ __ ___ `, "#38bdf8"},
	{`  / _' | | | | | '__/ _ \`, "#22d3ee"},
	{` | (_| | |_| | | | |  __/`, "#2dd4bf"},
	{`  \__, |\__,_|_|_|  \___|`, "#34d399"},
	{`     |_|                 `, "#4ade80"},
}

// PrintBanner writes the quire banner to w, colored when the terminal allows it.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// DirtyLabel returns "dirty" or "clean", colored for w.
func DirtyLabel(w io.Writer, dirty bool) string {
	p := termenv.NewOutput(w).ColorProfile()
	if dirty {
		return p.String("dirty").Foreground(p.Color("#f59e0b")).Bold().String()
	}
	return p.String("clean").Foreground(p.Color("#22c55e")).String()
}
