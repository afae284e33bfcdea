package pipeline

import (
	"sort"
	"strings"

	"gitlab.com/tinyland/lab/gridkit/pkg/filter"
)

// SortDirection orders a sorted column.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortSpec is one entry in the multi-sort priority list. Priority is the
// entry's position: earlier entries win, later entries break ties.
type SortSpec struct {
	Column    string
	Direction SortDirection
}

// SetSorting replaces the whole sort list with a single spec. An empty
// column clears sorting, restoring original relative order.
func (s *Store[T]) SetSorting(spec SortSpec) {
	s.finishAction(EventSort, func() {
		if spec.Column == "" {
			s.sorts = nil
			return
		}
		s.sorts = []SortSpec{spec}
	})
}

// AddSort adds a column to the multi-sort list. An existing entry for the
// same column keeps its priority and only has its direction replaced;
// otherwise the column is appended with the lowest priority.
func (s *Store[T]) AddSort(column string, direction SortDirection) {
	s.finishAction(EventSort, func() {
		for i, spec := range s.sorts {
			if spec.Column == column {
				s.sorts[i].Direction = direction
				return
			}
		}
		s.sorts = append(s.sorts, SortSpec{Column: column, Direction: direction})
	})
}

// ClearSorting drops the sort list.
func (s *Store[T]) ClearSorting() {
	s.finishAction(EventSort, func() {
		s.sorts = nil
	})
}

// SortSpecs returns a copy of the multi-sort priority list.
func (s *Store[T]) SortSpecs() []SortSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SortSpec(nil), s.sorts...)
}

// sortIDsLocked stably sorts ids by the multi-sort list. Equal keys keep
// their prior relative order; a descending direction negates the
// comparator result rather than swapping operands, which preserves
// stability under ties.
func (s *Store[T]) sortIDsLocked(ids []string) []string {
	out := append([]string(nil), ids...)
	if len(s.sorts) == 0 {
		return out
	}

	get := s.getterLocked()
	sort.SliceStable(out, func(i, j int) bool {
		for _, spec := range s.sorts {
			va, _ := get(out[i], spec.Column)
			vb, _ := get(out[j], spec.Column)
			c := compareValues(va, vb)
			if spec.Direction == Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

// compareValues orders two cell values: numerically when both coerce to
// numbers, otherwise as case-insensitive text. Nil sorts before any
// value.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	fa, okA := filter.Number(a)
	fb, okB := filter.Number(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(
		strings.ToLower(filter.Text(a)),
		strings.ToLower(filter.Text(b)),
	)
}
