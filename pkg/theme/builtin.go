package theme

// thRegisterBuiltins registers all built-in themes in the registry.
func thRegisterBuiltins() {
	for _, t := range []Theme{
		thDefaultTheme(),
		thTokyoNightTheme(),
		thGruvboxTheme(),
		thMonoTheme(),
	} {
		thRegister(t)
	}
}

// thDefaultTheme returns the dark neutral theme with purple accent.
func thDefaultTheme() Theme {
	return Theme{
		Name:       "default",
		Foreground: "#d4d4d4",
		Dim:        "#6b6b6b",
		Accent:     "#7C3AED",

		HeaderFg:   "#d4d4d4",
		HeaderBg:   "#2d2d2d",
		CursorFg:   "#ffffff",
		CursorBg:   "#7C3AED",
		SelectedFg: "#e06cb8",

		StatusOK:    "#4ec970",
		StatusWarn:  "#e5c07b",
		StatusError: "#e06c75",
	}
}

func thTokyoNightTheme() Theme {
	return Theme{
		Name:       "tokyonight",
		Foreground: "#c0caf5",
		Dim:        "#565f89",
		Accent:     "#7aa2f7",

		HeaderFg:   "#c0caf5",
		HeaderBg:   "#292e42",
		CursorFg:   "#1a1b26",
		CursorBg:   "#7aa2f7",
		SelectedFg: "#bb9af7",

		StatusOK:    "#9ece6a",
		StatusWarn:  "#e0af68",
		StatusError: "#f7768e",
	}
}

func thGruvboxTheme() Theme {
	return Theme{
		Name:       "gruvbox",
		Foreground: "#ebdbb2",
		Dim:        "#928374",
		Accent:     "#fe8019",

		HeaderFg:   "#ebdbb2",
		HeaderBg:   "#3c3836",
		CursorFg:   "#282828",
		CursorBg:   "#fe8019",
		SelectedFg: "#d3869b",

		StatusOK:    "#b8bb26",
		StatusWarn:  "#fabd2f",
		StatusError: "#fb4934",
	}
}

// thMonoTheme leaves everything to the terminal's default colors; useful
// for pipes and minimal terminals.
func thMonoTheme() Theme {
	return Theme{Name: "mono"}
}
