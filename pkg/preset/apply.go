package preset

import (
	"gitlab.com/tinyland/lab/gridkit/pkg/pipeline"
)

// Apply configures a store to match the preset: restores its filter
// state, replaces its sort order, and sets its page size. The store
// recomputes once per mutation, so listeners see the final view after
// the last call.
func Apply[T any](p ViewPreset, st *pipeline.Store[T]) {
	p = prNormalize(p)

	st.RestoreFilters(p.Filters)

	st.ClearSorting()
	for _, s := range p.Sorts {
		st.AddSort(s.Column, pipeline.SortDirection(s.Direction))
	}

	st.SetPageSize(p.PageSize)
}

// Capture snapshots the store's current view as a preset, so the user
// can persist a hand-tuned view under a name.
func Capture[T any](name, description string, st *pipeline.Store[T]) (ViewPreset, error) {
	raw, err := st.SerializedFilters()
	if err != nil {
		return ViewPreset{}, err
	}

	specs := st.SortSpecs()
	sorts := make([]SortSlot, len(specs))
	for i, sp := range specs {
		sorts[i] = SortSlot{Column: sp.Column, Direction: string(sp.Direction)}
	}

	return ViewPreset{
		Name:        name,
		Description: description,
		Filters:     raw,
		Sorts:       sorts,
		PageSize:    st.Pagination().PageSize,
	}, nil
}
