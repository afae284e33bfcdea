package theme

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetFallsBackToDefault(t *testing.T) {
	th := Get("no-such-theme")
	require.Equal(t, "default", th.Name)
}

func TestGetCaseInsensitive(t *testing.T) {
	require.Equal(t, "tokyonight", Get("TokyoNight").Name)
}

func TestNamesIncludeBuiltins(t *testing.T) {
	names := Names()
	for _, want := range []string{"default", "tokyonight", "gruvbox", "mono"} {
		require.Contains(t, names, want)
	}
}

func TestLoadFromTOML(t *testing.T) {
	data := []byte(`
name = "custom"

[base]
foreground = "#aabbcc"
dim = "#334455"

[grid]
header_bg = "#112233"
cursor_bg = "#445566"

[status]
ok = "#00ff00"
`)
	th, err := LoadFromTOML(data)
	require.NoError(t, err)
	require.Equal(t, "custom", th.Name)
	require.Equal(t, "#aabbcc", th.Foreground)
	require.Equal(t, "#112233", th.HeaderBg)
	require.Equal(t, "#00ff00", th.StatusOK)
}

func TestLoadFromTOMLRejectsBadColor(t *testing.T) {
	_, err := LoadFromTOML([]byte("name = \"bad\"\n[base]\nforeground = \"red\"\n"))
	require.Error(t, err)
}

func TestLoadFromTOMLRequiresName(t *testing.T) {
	_, err := LoadFromTOML([]byte("[base]\nforeground = \"#ffffff\"\n"))
	require.Error(t, err)
}

func TestMonoThemeStylesAreUnstyled(t *testing.T) {
	s := Get("mono").Styles()
	// No colors configured: rendering adds no escape sequences beyond
	// the structural attributes.
	require.Equal(t, "x", s.Cell.Render("x"))
}

func TestRegisterShadowsBuiltin(t *testing.T) {
	orig := Get("gruvbox")
	t.Cleanup(func() { Register(orig) })

	custom := orig
	custom.Accent = "#123456"
	Register(custom)
	require.Equal(t, "#123456", Get("gruvbox").Accent)
}
