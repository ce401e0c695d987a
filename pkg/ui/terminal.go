package ui

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	colorOnce sync.Once
	colorOK   bool
)

// ColorTerminal reports whether stdout is an interactive terminal with
// color support. Piped output, TERM=dumb and ASCII-only profiles all
// disable styling so CI logs stay clean.
func ColorTerminal() bool {
	colorOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
			return
		}
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return
		}
		colorOK = termenv.EnvColorProfile() != termenv.Ascii
	})
	return colorOK
}

// Icon returns the unicode glyph on capable terminals, the ascii
// fallback otherwise.
func Icon(unicode, ascii string) string {
	if ColorTerminal() {
		return unicode
	}
	return ascii
}

// Render applies a style only when the terminal supports it.
func Render(style interface{ Render(...string) string }, text string) string {
	if !ColorTerminal() {
		return text
	}
	return style.Render(text)
}
