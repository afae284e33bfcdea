package filter

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// table builds a Getter over id -> column -> value.
func table(rows map[string]map[string]any) Getter {
	return func(id, column string) (any, bool) {
		row, ok := rows[id]
		if !ok {
			return nil, false
		}
		v, ok := row[column]
		return v, ok
	}
}

func peopleRows() (Getter, []string) {
	rows := map[string]map[string]any{
		"1": {"name": "John Doe", "age": 25, "active": true, "city": "New York"},
		"2": {"name": "Jane Smith", "age": 30, "active": false, "city": "Los Angeles"},
		"3": {"name": "Bob Johnson", "age": 35, "active": true, "city": "Chicago"},
		"4": {"name": "Ada Lovelace", "age": 35, "active": true, "city": "New York"},
	}
	return table(rows), []string{"1", "2", "3", "4"}
}

func contains(col string, value any) ColumnFilter {
	return ColumnFilter{
		ColumnName: col,
		FilterType: "text",
		Conditions: []Condition{{Field: col, Operator: OpContains, Value: value, DataType: TypeText}},
		IsActive:   true,
	}
}

func TestApplyNoActiveFiltersIsIdentity(t *testing.T) {
	get, ids := peopleRows()

	assert.Equal(t, ids, Apply(ids, get, nil))
	assert.Equal(t, ids, Apply(ids, get, State{}))

	inactive := State{"name": {
		ColumnName: "name",
		Conditions: []Condition{{Field: "name", Operator: OpContains, Value: "zzz"}},
		IsActive:   false,
	}}
	assert.Equal(t, ids, Apply(ids, get, inactive))
}

func TestApplyContainsIsCaseInsensitive(t *testing.T) {
	get, ids := peopleRows()
	got := Apply(ids, get, State{"name": contains("name", "john")})
	assert.Equal(t, []string{"1", "3"}, got, `"John" matches John Doe and Bob Johnson`)
}

func TestApplyANDAcrossColumns(t *testing.T) {
	get, ids := peopleRows()
	state := State{
		"active": {
			ColumnName: "active",
			Conditions: []Condition{{Field: "active", Operator: OpEquals, Value: true, DataType: TypeBoolean}},
			IsActive:   true,
		},
		"age": {
			ColumnName: "age",
			Conditions: []Condition{{Field: "age", Operator: OpGreaterThan, Value: 30, DataType: TypeNumber}},
			IsActive:   true,
		},
	}

	got := Apply(ids, get, state)
	assert.Equal(t, []string{"3", "4"}, got)

	// A row passes iff it passes every active column independently.
	actives := Apply(ids, get, State{"active": state["active"]})
	olds := Apply(ids, get, State{"age": state["age"]})
	want := intersect(actives, olds)
	assert.Equal(t, want, got)
}

func intersect(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	var out []string
	for _, id := range a {
		if in[id] {
			out = append(out, id)
		}
	}
	return out
}

func TestApplyANDWithinColumn(t *testing.T) {
	get, ids := peopleRows()
	state := State{"age": {
		ColumnName: "age",
		Conditions: []Condition{
			{Field: "age", Operator: OpGreaterThanOrEqual, Value: 30, DataType: TypeNumber},
			{Field: "age", Operator: OpLessThan, Value: 35, DataType: TypeNumber},
		},
		IsActive: true,
	}}

	assert.Equal(t, []string{"2"}, Apply(ids, get, state))
}

func TestApplyNumericCoercionFailureFailsRow(t *testing.T) {
	get := table(map[string]map[string]any{
		"1": {"age": "not a number"},
		"2": {"age": "42"},
		"3": {"age": nil},
	})
	state := State{"age": {
		ColumnName: "age",
		Conditions: []Condition{{Field: "age", Operator: OpGreaterThan, Value: 10, DataType: TypeNumber}},
		IsActive:   true,
	}}

	assert.Equal(t, []string{"2"}, Apply([]string{"1", "2", "3"}, get, state))
}

func TestApplyOperators(t *testing.T) {
	get := table(map[string]map[string]any{
		"1": {"name": "alpha", "n": 1, "tag": ""},
		"2": {"name": "beta", "n": 5, "tag": "x"},
		"3": {"name": "gamma", "n": 10, "tag": nil},
	})
	ids := []string{"1", "2", "3"}

	cases := []struct {
		name string
		cond Condition
		want []string
	}{
		{"startsWith", Condition{Field: "name", Operator: OpStartsWith, Value: "GA"}, []string{"3"}},
		{"endsWith", Condition{Field: "name", Operator: OpEndsWith, Value: "A"}, []string{"1", "2", "3"}},
		{"notEquals", Condition{Field: "name", Operator: OpNotEquals, Value: "beta"}, []string{"1", "3"}},
		{"between", Condition{Field: "n", Operator: OpBetween, Value: 2, SecondaryValue: 10, DataType: TypeNumber}, []string{"2", "3"}},
		{"betweenSwappedBounds", Condition{Field: "n", Operator: OpBetween, Value: 10, SecondaryValue: 2, DataType: TypeNumber}, []string{"2", "3"}},
		{"in", Condition{Field: "name", Operator: OpIn, Value: []any{"Alpha", "Gamma"}}, []string{"1", "3"}},
		{"notIn", Condition{Field: "name", Operator: OpNotIn, Value: []string{"alpha"}}, []string{"2", "3"}},
		{"isEmpty", Condition{Field: "tag", Operator: OpIsEmpty}, []string{"1", "3"}},
		{"isNotEmpty", Condition{Field: "tag", Operator: OpIsNotEmpty}, []string{"2"}},
		{"regex", Condition{Field: "name", Operator: OpRegex, Value: "^(al|be)"}, []string{"1", "2"}},
		{"regexInvalidPatternMatchesNothing", Condition{Field: "name", Operator: OpRegex, Value: "("}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := State{tc.cond.Field: {
				ColumnName: tc.cond.Field,
				Conditions: []Condition{tc.cond},
				IsActive:   true,
			}}
			got := Apply(ids, get, state)
			if len(tc.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUniqueValuesSortedWithCounts(t *testing.T) {
	get := table(map[string]map[string]any{
		"1": {"city": "New York"},
		"2": {"city": "Los Angeles"},
		"3": {"city": "Chicago"},
		"4": {"city": "New York"},
	})

	got := UniqueValues([]string{"1", "2", "3", "4"}, get, "city")
	want := []ValueCount{
		{Value: "Chicago", Count: 1},
		{Value: "Los Angeles", Count: 1},
		{Value: "New York", Count: 2},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestUniqueValuesSkipsMissingColumn(t *testing.T) {
	get := table(map[string]map[string]any{
		"1": {"city": "Oslo"},
		"2": {"other": 1},
	})
	got := UniqueValues([]string{"1", "2"}, get, "city")
	assert.Equal(t, []ValueCount{{Value: "Oslo", Count: 1}}, got)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	states := []State{
		{},
		{"name": contains("name", "john")},
		{
			"age": {
				ColumnName: "age",
				FilterType: "number",
				Conditions: []Condition{{
					Field:          "age",
					Operator:       OpBetween,
					Value:          float64(20),
					SecondaryValue: float64(40),
					DataType:       TypeNumber,
				}},
				IsActive: true,
			},
			"city": {
				ColumnName: "city",
				FilterType: "text",
				Conditions: []Condition{{Field: "city", Operator: OpIn, Value: []any{"Oslo", "Bergen"}}},
				IsActive:   false,
			},
		},
	}

	for _, state := range states {
		raw, err := Serialize(state)
		require.NoError(t, err)
		got := Deserialize(raw, logger)
		assert.Empty(t, cmp.Diff(state, got))
	}
}

func TestSerializeIsDeterministic(t *testing.T) {
	state := State{
		"b": contains("b", "x"),
		"a": contains("a", "y"),
		"c": contains("c", "z"),
	}
	first, err := Serialize(state)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Serialize(state)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDeserializeMalformedInputReturnsEmptyState(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, raw := range []string{"invalid json", "", "42", `["not","an","object"]`, `{"x":`} {
		var got State
		require.NotPanics(t, func() { got = Deserialize(raw, logger) })
		assert.Empty(t, got, "input %q", raw)
	}
}
