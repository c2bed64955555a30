package ui

import (
	"os"

	"golang.org/x/term"
)

const defaultWidth = 80

// IsTTY reports whether fd is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// TermWidth returns the column count of the terminal on fd, falling back to
// 80 columns.
func TermWidth(fd uintptr) int {
	w, _, err := term.GetSize(int(fd))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// ColorEnabled reports whether the report written to fd may be styled.
// NO_COLOR and TERM=dumb turn styling off just like --no-color.
func ColorEnabled(fd uintptr, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTTY(fd)
}
