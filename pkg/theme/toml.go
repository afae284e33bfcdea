package theme

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// thTOMLTheme is the TOML-serializable representation of a Theme.
type thTOMLTheme struct {
	Name   string       `toml:"name"`
	Base   thTOMLBase   `toml:"base"`
	Grid   thTOMLGrid   `toml:"grid"`
	Status thTOMLStatus `toml:"status"`
}

type thTOMLBase struct {
	Foreground string `toml:"foreground"`
	Dim        string `toml:"dim"`
	Accent     string `toml:"accent"`
}

type thTOMLGrid struct {
	HeaderFg   string `toml:"header_fg"`
	HeaderBg   string `toml:"header_bg"`
	CursorFg   string `toml:"cursor_fg"`
	CursorBg   string `toml:"cursor_bg"`
	SelectedFg string `toml:"selected_fg"`
}

type thTOMLStatus struct {
	OK    string `toml:"ok"`
	Warn  string `toml:"warn"`
	Error string `toml:"error"`
}

var thHexRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LoadFromTOML parses a custom theme from TOML data. The name is
// required; every color field is optional but must be a #RRGGBB hex
// string when present.
func LoadFromTOML(data []byte) (Theme, error) {
	var raw thTOMLTheme
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Theme{}, fmt.Errorf("theme: parse TOML: %w", err)
	}
	if raw.Name == "" {
		return Theme{}, fmt.Errorf("theme: missing required field 'name'")
	}

	t := Theme{
		Name:        raw.Name,
		Foreground:  raw.Base.Foreground,
		Dim:         raw.Base.Dim,
		Accent:      raw.Base.Accent,
		HeaderFg:    raw.Grid.HeaderFg,
		HeaderBg:    raw.Grid.HeaderBg,
		CursorFg:    raw.Grid.CursorFg,
		CursorBg:    raw.Grid.CursorBg,
		SelectedFg:  raw.Grid.SelectedFg,
		StatusOK:    raw.Status.OK,
		StatusWarn:  raw.Status.Warn,
		StatusError: raw.Status.Error,
	}
	if err := thValidate(t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

// LoadFile reads a theme from a TOML file and registers it.
func LoadFile(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("theme: read %s: %w", path, err)
	}
	t, err := LoadFromTOML(data)
	if err != nil {
		return Theme{}, err
	}
	Register(t)
	return t, nil
}

// thValidate checks that all populated color fields are #RRGGBB strings.
func thValidate(t Theme) error {
	fields := map[string]string{
		"base.foreground":  t.Foreground,
		"base.dim":         t.Dim,
		"base.accent":      t.Accent,
		"grid.header_fg":   t.HeaderFg,
		"grid.header_bg":   t.HeaderBg,
		"grid.cursor_fg":   t.CursorFg,
		"grid.cursor_bg":   t.CursorBg,
		"grid.selected_fg": t.SelectedFg,
		"status.ok":        t.StatusOK,
		"status.warn":      t.StatusWarn,
		"status.error":     t.StatusError,
	}
	for name, v := range fields {
		if v != "" && !thHexRe.MatchString(v) {
			return fmt.Errorf("theme %s: %s: invalid color %q", t.Name, name, v)
		}
	}
	return nil
}
