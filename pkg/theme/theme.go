// Package theme defines the color palettes for the gridkit TUI. A theme
// is a flat set of hex colors that compiles into the lipgloss styles the
// grid renders with. Users pick a theme via config and may define custom
// palettes via TOML.
package theme

import (
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/gridkit/pkg/components"
)

// Theme defines the complete color palette for the grid.
type Theme struct {
	Name string

	// Base colors
	Foreground string // hex color e.g. "#d4d4d4"
	Dim        string // dimmed text, scroll indicators
	Accent     string // cursor row, active sort caret

	// Grid colors
	HeaderFg   string // header row text
	HeaderBg   string // header row background
	CursorFg   string // cursor row text
	CursorBg   string // cursor row background
	SelectedFg string // selected row text

	// Status colors
	StatusOK    string // healthy collector
	StatusWarn  string // recovering
	StatusError string // recovery failed
}

var (
	mu       sync.RWMutex
	registry = map[string]Theme{}
)

func init() {
	thRegisterBuiltins()
}

// Get returns a named theme, falling back to the default if not found.
func Get(name string) Theme {
	mu.RLock()
	defer mu.RUnlock()
	if t, ok := registry[strings.ToLower(name)]; ok {
		return t
	}
	return registry["default"]
}

// Names returns all available theme names sorted alphabetically.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a theme. Names are case-insensitive.
func Register(t Theme) {
	mu.Lock()
	defer mu.Unlock()
	thRegister(t)
}

// thRegister adds t to the registry. Caller must hold mu.
func thRegister(t Theme) {
	registry[strings.ToLower(t.Name)] = t
}

// Styles compiles the palette into the grid's lipgloss styles. Empty
// color fields leave the corresponding attribute unset, so a sparse
// custom theme degrades to the terminal's defaults.
func (t Theme) Styles() components.Styles {
	s := components.Styles{
		Header:    thStyle(t.HeaderFg, t.HeaderBg).Bold(true),
		Cursor:    thStyle(t.CursorFg, t.CursorBg),
		Selected:  thStyle(t.SelectedFg, ""),
		Cell:      thStyle(t.Foreground, ""),
		Indicator: thStyle(t.Dim, "").Faint(true),
	}
	return s
}

// thStyle builds a lipgloss style from optional fg/bg hex colors.
func thStyle(fg, bg string) lipgloss.Style {
	st := lipgloss.NewStyle()
	if fg != "" {
		st = st.Foreground(lipgloss.Color(fg))
	}
	if bg != "" {
		st = st.Background(lipgloss.Color(bg))
	}
	return st
}
