package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings. It satisfies help.KeyMap so the footer
// can render hints.
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Toggle     key.Binding
	SelectAll  key.Binding
	ClearSel   key.Binding
	Filter     key.Binding
	ClearFilt  key.Binding
	Preset     key.Binding
	Refresh    key.Binding
	ForceReset key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		NextPage:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		Top:        key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:     key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		SelectAll:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		ClearSel:   key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "clear selection")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		ClearFilt:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		Preset:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "cycle preset")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		ForceReset: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "force reset")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Filter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.PrevPage, k.NextPage, k.Preset, k.Refresh},
		{k.Toggle, k.SelectAll, k.ClearSel},
		{k.Filter, k.ClearFilt, k.ForceReset, k.Quit},
	}
}
