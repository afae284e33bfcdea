package preset

// prDefaultPreset shows everything, sorted by name.
func prDefaultPreset() ViewPreset {
	return ViewPreset{
		Name:        "default",
		Description: "All rows sorted by name",
		Sorts: []SortSlot{
			{Column: "name", Direction: "asc"},
		},
		PageSize: 50,
	}
}

// prHogsPreset surfaces the biggest resource consumers first.
func prHogsPreset() ViewPreset {
	return ViewPreset{
		Name:        "hogs",
		Description: "Heaviest CPU and memory consumers",
		Filters:     `{"cpu":{"columnName":"cpu","filterType":"number","conditions":[{"field":"cpu","operator":"greaterThan","value":"0.5","dataType":"number"}],"isActive":true}}`,
		Sorts: []SortSlot{
			{Column: "cpu", Direction: "desc"},
			{Column: "mem", Direction: "desc"},
		},
		PageSize: 25,
	}
}

// prCompactPreset is a short page for small terminals.
func prCompactPreset() ViewPreset {
	return ViewPreset{
		Name:        "compact",
		Description: "Short pages for small terminals",
		Sorts: []SortSlot{
			{Column: "cpu", Direction: "desc"},
		},
		PageSize: 15,
	}
}
