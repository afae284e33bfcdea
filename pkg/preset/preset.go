// Package preset defines named table views: a filter set, a sort order,
// and a page size bundled under one name. Users select presets via config
// or CLI, and may define custom views via TOML.
package preset

import (
	"sort"

	"gitlab.com/tinyland/lab/gridkit/pkg/pipeline"
)

// ViewPreset is a named table view.
type ViewPreset struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	// Filters holds the serialized filter state, same wire format as
	// filter.Serialize. Empty means no filters.
	Filters  string     `toml:"filters"`
	Sorts    []SortSlot `toml:"sorts"`
	PageSize int        `toml:"page_size"`
}

// SortSlot is one entry in the preset's sort order.
type SortSlot struct {
	Column    string `toml:"column"`
	Direction string `toml:"direction"` // "asc" or "desc"
}

// builtins maps preset names to their definitions.
var builtins map[string]ViewPreset

func init() {
	builtins = map[string]ViewPreset{
		"default": prDefaultPreset(),
		"hogs":    prHogsPreset(),
		"compact": prCompactPreset(),
	}
}

// Get returns a named preset, falling back to the default view if not found.
func Get(name string) ViewPreset {
	if p, ok := builtins[name]; ok {
		return p
	}
	return builtins["default"]
}

// Names returns all available preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for k := range builtins {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// prNormalize fills in default direction and page size values.
func prNormalize(p ViewPreset) ViewPreset {
	if p.PageSize <= 0 {
		p.PageSize = 50
	}
	sorts := make([]SortSlot, 0, len(p.Sorts))
	for _, s := range p.Sorts {
		if s.Column == "" {
			continue
		}
		if s.Direction != string(pipeline.Descending) {
			s.Direction = string(pipeline.Ascending)
		}
		sorts = append(sorts, s)
	}
	p.Sorts = sorts
	return p
}
