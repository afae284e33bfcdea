// Package components provides the ANSI-aware grid renderer and text
// primitives for the gridkit TUI. Width math goes through x/ansi so wide
// characters and escape sequences measure correctly.
package components

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Align controls horizontal text alignment within a cell.
type Align int

const (
	// AlignLeft aligns text to the left edge (default).
	AlignLeft Align = iota
	// AlignCenter centers text horizontally.
	AlignCenter
	// AlignRight aligns text to the right edge.
	AlignRight
)

// VisibleLen returns the visible character width of s in terminal cells.
// ANSI escape sequences are ignored. Wide characters (CJK, emoji) count
// as width 2.
func VisibleLen(s string) int {
	return ansi.StringWidth(s)
}

// Truncate truncates s to at most maxWidth visible characters, appending
// tail (e.g. "…") if truncation occurs. The tail counts toward maxWidth.
func Truncate(s string, maxWidth int, tail string) string {
	if maxWidth <= 0 {
		return ""
	}
	return ansi.Truncate(s, maxWidth, tail)
}

// Pad pads s with spaces so that its visible width equals width, placed
// according to align. If s is already wider than width, it is returned
// unchanged.
func Pad(s string, width int, align Align) string {
	vis := VisibleLen(s)
	if vis >= width {
		return s
	}
	total := width - vis
	switch align {
	case AlignRight:
		return strings.Repeat(" ", total) + s
	case AlignCenter:
		left := total / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", total-left)
	default:
		return s + strings.Repeat(" ", total)
	}
}
