package pipeline

import "gitlab.com/tinyland/lab/gridkit/pkg/filter"

// textOf renders an identity value as a string key.
func textOf(v any) string {
	return filter.Text(v)
}

// Accessor defines how the engine reaches into the host's opaque row
// type: a stable identity key and named-field access. The engine never
// copies or mutates rows; it only holds references and derived key lists.
type Accessor[T any] struct {
	// Key extracts the stable row identity. Keys must be unique within
	// one dataset and survive re-sorting and re-filtering.
	Key func(row T) string

	// Field resolves a named field. The second return reports whether
	// the row has the field at all.
	Field func(row T, column string) (any, bool)
}

// MapRow is the convenience row shape for hosts without a concrete row
// struct: arbitrary named fields in a map.
type MapRow = map[string]any

// MapAccessor returns an Accessor over MapRow using idField as the
// identity key, rendered as text.
func MapAccessor(idField string) Accessor[MapRow] {
	return Accessor[MapRow]{
		Key: func(row MapRow) string {
			v, ok := row[idField]
			if !ok {
				return ""
			}
			return textOf(v)
		},
		Field: func(row MapRow, column string) (any, bool) {
			v, ok := row[column]
			return v, ok
		},
	}
}
