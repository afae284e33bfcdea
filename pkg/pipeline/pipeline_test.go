package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/tinyland/lab/gridkit/pkg/filter"
	"gitlab.com/tinyland/lab/gridkit/pkg/sched"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, cfg Config) (*Store[MapRow], *sched.Manual) {
	t.Helper()
	clock := sched.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg.Scheduler = clock
	cfg.Clock = clock
	cfg.Logger = discard()
	s := NewStore(MapAccessor("id"), cfg)
	t.Cleanup(s.Close)
	return s, clock
}

func people() []MapRow {
	return []MapRow{
		{"id": "1", "name": "John Doe", "age": 25, "active": true, "city": "New York"},
		{"id": "2", "name": "Jane Smith", "age": 30, "active": false, "city": "Los Angeles"},
		{"id": "3", "name": "Bob Johnson", "age": 35, "active": true, "city": "Chicago"},
		{"id": "4", "name": "Ada Lovelace", "age": 35, "active": true, "city": "New York"},
	}
}

func containsFilter(col, value string) filter.ColumnFilter {
	return filter.ColumnFilter{
		ColumnName: col,
		FilterType: "text",
		Conditions: []filter.Condition{{Field: col, Operator: filter.OpContains, Value: value}},
		IsActive:   true,
	}
}

func TestSetDataResetsAndRecomputes(t *testing.T) {
	s, _ := newTestStore(t, Config{PageSize: 2})
	s.SetData(people())

	assert.Equal(t, 4, s.RowCount())
	assert.Equal(t, []string{"1", "2"}, s.DisplayIDs(), "first page in original order")

	p := s.Pagination()
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 4, p.TotalItems)
	assert.Equal(t, 2, p.TotalPages)

	s.SetCurrentPage(2)
	require.Equal(t, []string{"3", "4"}, s.DisplayIDs())

	// A data refresh resets to page one.
	s.SetData(people()[:3])
	assert.Equal(t, 1, s.Pagination().CurrentPage)
	assert.Equal(t, []string{"1", "2"}, s.DisplayIDs())
}

func TestDisplayEqualsPaginateSortFilterAfterEveryAction(t *testing.T) {
	s, _ := newTestStore(t, Config{PageSize: 3})
	s.SetData(people())

	check := func(stage string) {
		t.Helper()
		p := s.Pagination()
		sorted := s.FilteredIDs()
		start := (p.CurrentPage - 1) * p.PageSize
		end := start + p.PageSize
		if p.TotalItems == 0 {
			assert.Empty(t, s.DisplayIDs(), stage)
			return
		}
		if end > len(sorted) {
			end = len(sorted)
		}
		assert.Equal(t, sorted[start:end], s.DisplayIDs(), stage)
	}

	check("after load")
	s.ApplyFilter("active", filter.ColumnFilter{
		ColumnName: "active",
		Conditions: []filter.Condition{{Field: "active", Operator: filter.OpEquals, Value: true, DataType: filter.TypeBoolean}},
		IsActive:   true,
	})
	check("after filter")
	s.SetSorting(SortSpec{Column: "age", Direction: Descending})
	check("after sort")
	s.SetPageSize(2)
	check("after page size")
	s.SetCurrentPage(2)
	check("after page change")
	s.ClearAllFilters()
	check("after clearing filters")
	s.Refresh()
	check("after refresh")
}

func TestFilteredSubsetPreservesOriginalOrder(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData(people())

	s.ApplyFilter("name", containsFilter("name", "john"))
	assert.Equal(t, []string{"1", "3"}, s.FilteredIDs())

	s.RemoveFilter("name")
	assert.Equal(t, []string{"1", "2", "3", "4"}, s.FilteredIDs())
}

func TestAdvancedFilterCombinesWithBasic(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData(people())

	s.ApplyFilter("active", filter.ColumnFilter{
		ColumnName: "active",
		Conditions: []filter.Condition{{Field: "active", Operator: filter.OpEquals, Value: true, DataType: filter.TypeBoolean}},
		IsActive:   true,
	})
	s.ApplyAdvancedFilter(filter.State{
		"age": {
			ColumnName: "age",
			Conditions: []filter.Condition{{Field: "age", Operator: filter.OpGreaterThan, Value: 30, DataType: filter.TypeNumber}},
			IsActive:   true,
		},
	})
	assert.Equal(t, []string{"3", "4"}, s.FilteredIDs())

	s.ClearFilters() // basic only
	assert.Equal(t, []string{"3", "4"}, s.FilteredIDs(), "advanced filter still active")

	s.ClearAllFilters()
	assert.Equal(t, []string{"1", "2", "3", "4"}, s.FilteredIDs())
}

func TestStableSortAndDescNegation(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData(people())

	s.SetSorting(SortSpec{Column: "age", Direction: Ascending})
	assert.Equal(t, []string{"1", "2", "3", "4"}, s.FilteredIDs(), "ties (3,4) keep original order")

	s.SetSorting(SortSpec{Column: "age", Direction: Descending})
	assert.Equal(t, []string{"3", "4", "2", "1"}, s.FilteredIDs(),
		"desc negates the comparator; the 35-year-old tie keeps prior relative order")

	s.SetSorting(SortSpec{})
	assert.Equal(t, []string{"1", "2", "3", "4"}, s.FilteredIDs(), "clearing sort restores original order")
}

func TestMultiSortPriority(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData(people())

	s.AddSort("age", Descending)
	s.AddSort("name", Ascending)
	assert.Equal(t, []string{"4", "3", "2", "1"}, s.FilteredIDs(),
		"age desc first, name asc breaks the 35 tie (Ada before Bob)")

	// Re-adding an existing column replaces its direction in place.
	s.AddSort("age", Ascending)
	require.Equal(t, []SortSpec{{"age", Ascending}, {"name", Ascending}}, s.SortSpecs())
	assert.Equal(t, []string{"1", "2", "4", "3"}, s.FilteredIDs())
}

func TestPaginationInvariants(t *testing.T) {
	s, _ := newTestStore(t, Config{PageSize: 10})
	s.SetData(people())

	s.ApplyFilter("name", containsFilter("name", "no-such-person"))
	p := s.Pagination()
	assert.Equal(t, 0, p.TotalItems)
	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, 1, p.CurrentPage, "empty result pins to page 1")
	assert.Empty(t, s.DisplayIDs())

	s.ClearFilters()
	s.SetPageSize(3)
	p = s.Pagination()
	assert.Equal(t, 2, p.TotalPages, "ceil(4/3)")
	assert.Equal(t, 1, p.CurrentPage, "page size change resets to page 1")

	s.SetCurrentPage(99)
	assert.Equal(t, 2, s.Pagination().CurrentPage, "page clamped")
	s.SetCurrentPage(-5)
	assert.Equal(t, 1, s.Pagination().CurrentPage)
}

func TestAggregationsComputeOverFilteredData(t *testing.T) {
	s, _ := newTestStore(t, Config{PageSize: 1})
	s.SetData(people())

	s.AddAggregation(Aggregation{Column: "age", Func: AggSum})
	s.AddAggregation(Aggregation{Column: "name", Func: AggCount})

	res := s.AggregationResults()
	assert.Equal(t, float64(125), res["age"], "sum over all filtered rows, not the 1-row page")
	assert.Equal(t, 4, res["name"])

	s.ApplyFilter("active", filter.ColumnFilter{
		ColumnName: "active",
		Conditions: []filter.Condition{{Field: "active", Operator: filter.OpEquals, Value: true, DataType: filter.TypeBoolean}},
		IsActive:   true,
	})
	res = s.AggregationResults()
	assert.Equal(t, float64(95), res["age"], "recomputed when filteredData changes")
	assert.Equal(t, 3, res["name"])
}

func TestAggregationFunctions(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData([]MapRow{
		{"id": "1", "n": 10},
		{"id": "2", "n": "20"},
		{"id": "3", "n": "not a number"},
		{"id": "4", "n": nil},
	})

	s.AddAggregation(Aggregation{Column: "n", Func: AggAvg})
	assert.Equal(t, float64(15), s.AggregationResults()["n"], "non-numeric and null skipped")

	s.AddAggregation(Aggregation{Column: "n", Func: AggMin})
	assert.Equal(t, float64(10), s.AggregationResults()["n"])

	s.AddAggregation(Aggregation{Column: "n", Func: AggMax})
	assert.Equal(t, float64(20), s.AggregationResults()["n"])

	s.AddAggregation(Aggregation{Column: "n", Func: AggCount})
	assert.Equal(t, 3, s.AggregationResults()["n"], "count skips nulls only")
}

func TestCustomReducerPanicDegradesOnlyItsColumn(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData(people())

	s.AddAggregation(Aggregation{Column: "age", Func: AggSum})
	require.NotPanics(t, func() {
		s.AddAggregation(Aggregation{
			Column: "name",
			Func:   AggCustom,
			Reduce: func([]any) any { panic("bad reducer") },
		})
	})

	res := s.AggregationResults()
	assert.Nil(t, res["name"], "failed custom reducer degrades to nil")
	assert.Equal(t, float64(125), res["age"], "other columns remain valid")
}

func TestCustomReducerReceivesFilteredValues(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData(people())

	var seen int
	s.AddAggregation(Aggregation{
		Column: "city",
		Func:   AggCustom,
		Reduce: func(values []any) any {
			seen = len(values)
			return "ok"
		},
	})
	assert.Equal(t, 4, seen)
	assert.Equal(t, "ok", s.AggregationResults()["city"])
}

func TestListenerPanicDoesNotBreakAction(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.Subscribe(func(Event) { panic("bad listener") })
	var kinds []EventKind
	s.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	require.NotPanics(t, func() { s.SetData(people()) })
	assert.Equal(t, []EventKind{EventData}, kinds)
	assert.Equal(t, 4, s.RowCount(), "the triggering action completed")
}

func TestSelectionPassthroughAndPruneOnRefresh(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData(people())

	s.ToggleRowSelection("2")
	s.ToggleRowSelection("4")
	assert.Equal(t, 2, s.Selection().Count())

	// Selection is independent of the active filter.
	s.ApplyFilter("name", containsFilter("name", "john"))
	assert.True(t, s.Selection().IsSelected("2"), "row filtered out of view stays selected")

	// A data refresh prunes keys that left the universe.
	s.SetData(people()[:3])
	assert.True(t, s.Selection().IsSelected("2"))
	assert.False(t, s.Selection().IsSelected("4"))

	s.SetSelectedRows([]string{"1", "3", "ghost"})
	assert.Equal(t, 2, s.Selection().Count())
	s.ClearSelection()
	assert.Equal(t, 0, s.Selection().Count())
}

func TestSelectionRangeFollowsSortOrder(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData(people())
	s.SetSorting(SortSpec{Column: "age", Direction: Descending})

	// View order is now 3,4,2,1; range [0,1] selects the two oldest.
	s.Selection().SelectRange(0, 1)
	assert.True(t, s.Selection().IsSelected("3"))
	assert.True(t, s.Selection().IsSelected("4"))
	assert.False(t, s.Selection().IsSelected("1"))
}

func TestSerializedFiltersRoundTripThroughStore(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData(people())
	s.ApplyFilter("name", containsFilter("name", "john"))

	raw, err := s.SerializedFilters()
	require.NoError(t, err)

	s.ClearAllFilters()
	require.Len(t, s.FilteredIDs(), 4)

	s.RestoreFilters(raw)
	assert.Equal(t, []string{"1", "3"}, s.FilteredIDs())

	s.RestoreFilters("garbage input")
	assert.Len(t, s.FilteredIDs(), 4, "malformed input yields an empty filter state")
}

func TestUniqueValuesMemoized(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	s.SetData(people())

	first := s.UniqueValues("city")
	require.Equal(t, []filter.ValueCount{
		{Value: "Chicago", Count: 1},
		{Value: "Los Angeles", Count: 1},
		{Value: "New York", Count: 2},
	}, first)

	again := s.UniqueValues("city")
	assert.Equal(t, first, again)

	// New data generation invalidates the memo.
	s.SetData(append(people(), MapRow{"id": "5", "city": "Chicago"}))
	got := s.UniqueValues("city")
	assert.Equal(t, 2, got[0].Count, "Chicago now appears twice")
}

func TestFilterLatencyRecorded(t *testing.T) {
	s, _ := newTestStore(t, Config{})

	rows := make([]MapRow, 2000)
	for i := range rows {
		rows[i] = MapRow{"id": fmt.Sprintf("%d", i), "name": fmt.Sprintf("row %d", i)}
	}
	s.SetData(rows)
	s.ApplyFilter("name", containsFilter("name", "99"))

	assert.GreaterOrEqual(t, s.LastFilterLatency(), time.Duration(0))
	assert.NotEmpty(t, s.FilteredIDs())
}

func TestRefreshRestoresConsistencyFromOriginalDataAlone(t *testing.T) {
	s, _ := newTestStore(t, Config{PageSize: 2})
	s.SetData(people())
	s.SetSorting(SortSpec{Column: "age", Direction: Descending})
	s.SetCurrentPage(2)

	before := s.DisplayIDs()
	s.Refresh()
	assert.Equal(t, before, s.DisplayIDs(), "refresh is deterministic")
}
