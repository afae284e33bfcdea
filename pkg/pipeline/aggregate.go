package pipeline

import (
	"gitlab.com/tinyland/lab/gridkit/pkg/filter"
)

// AggFunc names an aggregation function.
type AggFunc string

const (
	AggSum    AggFunc = "sum"
	AggAvg    AggFunc = "avg"
	AggCount  AggFunc = "count"
	AggMin    AggFunc = "min"
	AggMax    AggFunc = "max"
	AggCustom AggFunc = "custom"
)

// Aggregation configures one column aggregation. Reduce is only used for
// AggCustom; it receives the column's values over the filtered set.
type Aggregation struct {
	Column string
	Func   AggFunc
	Reduce func(values []any) any
}

// AddAggregation registers (or replaces) the aggregation for a column and
// recomputes results over the filtered set.
func (s *Store[T]) AddAggregation(agg Aggregation) {
	s.finishAction(EventAggregation, func() {
		s.aggs[agg.Column] = agg
	})
}

// RemoveAggregation drops the aggregation for column.
func (s *Store[T]) RemoveAggregation(column string) {
	s.finishAction(EventAggregation, func() {
		delete(s.aggs, column)
		delete(s.aggResults, column)
	})
}

// UpdateAggregationResults forces a recompute of every configured
// aggregation without touching filters, sort or pagination.
func (s *Store[T]) UpdateAggregationResults() {
	s.finishAction(EventAggregation, func() {})
}

// AggregationResults returns a copy of the current column -> value map.
// A column whose custom reducer failed carries a nil value; the other
// columns remain valid.
func (s *Store[T]) AggregationResults() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.aggResults))
	for k, v := range s.aggResults {
		out[k] = v
	}
	return out
}

// aggregateLocked computes every configured aggregation over the filtered
// ids. Aggregations always see filteredData, never the paginated display
// slice.
func (s *Store[T]) aggregateLocked(filteredIDs []string) map[string]any {
	out := make(map[string]any, len(s.aggs))
	if len(s.aggs) == 0 {
		return out
	}

	get := s.getterLocked()
	for column, agg := range s.aggs {
		values := make([]any, 0, len(filteredIDs))
		for _, id := range filteredIDs {
			v, ok := get(id, column)
			if !ok {
				v = nil
			}
			values = append(values, v)
		}
		out[column] = s.reduce(agg, values)
	}
	return out
}

// reduce applies one aggregation to a value slice. Numeric functions
// coerce values and skip the ones that do not parse; count counts
// non-null values; a custom reducer is guarded so it cannot throw past
// the pipeline boundary, and on panic the column's result is nil.
func (s *Store[T]) reduce(agg Aggregation, values []any) (result any) {
	switch agg.Func {
	case AggCount:
		n := 0
		for _, v := range values {
			if v != nil {
				n++
			}
		}
		return n

	case AggSum, AggAvg, AggMin, AggMax:
		nums := make([]float64, 0, len(values))
		for _, v := range values {
			if f, ok := filter.Number(v); ok {
				nums = append(nums, f)
			}
		}
		return reduceNumeric(agg.Func, nums)

	case AggCustom:
		if agg.Reduce == nil {
			return nil
		}
		defer func() {
			if r := recover(); r != nil {
				s.logger.Warn("pipeline: custom reducer panicked, degrading column to nil",
					"column", agg.Column, "panic", r)
				result = nil
			}
		}()
		return agg.Reduce(values)

	default:
		return nil
	}
}

func reduceNumeric(fn AggFunc, nums []float64) any {
	if len(nums) == 0 {
		if fn == AggSum {
			return float64(0)
		}
		return nil
	}
	switch fn {
	case AggSum, AggAvg:
		sum := 0.0
		for _, f := range nums {
			sum += f
		}
		if fn == AggAvg {
			return sum / float64(len(nums))
		}
		return sum
	case AggMin:
		m := nums[0]
		for _, f := range nums[1:] {
			if f < m {
				m = f
			}
		}
		return m
	case AggMax:
		m := nums[0]
		for _, f := range nums[1:] {
			if f > m {
				m = f
			}
		}
		return m
	}
	return nil
}
