// Package filter implements pure, stateless evaluation of per-column
// predicates over tabular rows. A filter State maps column names to
// ColumnFilters; active columns combine with AND semantics, as do the
// conditions within a single column. Evaluation is order-preserving: the
// surviving row ids come back in exactly the order they went in.
//
// Rows are reached through a Getter so the package stays independent of
// how the host stores its data.
package filter

import (
	"strings"
)

// Operator is a comparison applied by a single Condition.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "notEquals"
	OpContains           Operator = "contains"
	OpNotContains        Operator = "notContains"
	OpStartsWith         Operator = "startsWith"
	OpEndsWith           Operator = "endsWith"
	OpGreaterThan        Operator = "greaterThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThan           Operator = "lessThan"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
	OpBetween            Operator = "between"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "notIn"
	OpIsEmpty            Operator = "isEmpty"
	OpIsNotEmpty         Operator = "isNotEmpty"
	OpRegex              Operator = "regex"
)

// DataType declares how a condition's operands are compared.
type DataType string

const (
	TypeText    DataType = "text"
	TypeNumber  DataType = "number"
	TypeBoolean DataType = "boolean"
	TypeDate    DataType = "date"
)

// Condition is one predicate against one field. SecondaryValue is only
// meaningful for OpBetween (the upper bound, inclusive).
type Condition struct {
	Field          string
	Operator       Operator
	Value          any
	SecondaryValue any
	DataType       DataType
}

// ColumnFilter groups the conditions applied to one column. Conditions
// combine with AND: every condition must hold for the row to survive.
type ColumnFilter struct {
	ColumnName string
	FilterType string
	Conditions []Condition
	IsActive   bool
}

// State maps column name to that column's filter. Active columns combine
// with AND across the whole State.
type State map[string]ColumnFilter

// Getter resolves a column value for a row id. The second return reports
// whether the row has the column at all.
type Getter func(id, column string) (any, bool)

// ActiveCount returns the number of active column filters.
func (s State) ActiveCount() int {
	n := 0
	for _, cf := range s {
		if cf.IsActive {
			n++
		}
	}
	return n
}

// Clone returns a deep-enough copy: the map and condition slices are
// copied, condition values are shared.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	for col, cf := range s {
		conds := make([]Condition, len(cf.Conditions))
		copy(conds, cf.Conditions)
		cf.Conditions = conds
		out[col] = cf
	}
	return out
}

// Apply evaluates state over ids and returns the surviving ids in input
// order. A row survives when every active ColumnFilter, and within it
// every Condition, evaluates true. A nil or all-inactive state returns a
// copy of ids unchanged.
func Apply(ids []string, get Getter, state State) []string {
	active := make([]columnMatcher, 0, len(state))
	for _, cf := range state {
		if !cf.IsActive || len(cf.Conditions) == 0 {
			continue
		}
		active = append(active, compileColumn(cf))
	}

	out := make([]string, 0, len(ids))
	if len(active) == 0 {
		return append(out, ids...)
	}

	for _, id := range ids {
		pass := true
		for _, cm := range active {
			if !cm.match(id, get) {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, id)
		}
	}
	return out
}

// columnMatcher is a compiled ColumnFilter: regex conditions have their
// patterns compiled once per Apply call rather than once per row.
type columnMatcher struct {
	conds []condMatcher
}

func compileColumn(cf ColumnFilter) columnMatcher {
	cm := columnMatcher{conds: make([]condMatcher, 0, len(cf.Conditions))}
	for _, c := range cf.Conditions {
		if c.Field == "" {
			c.Field = cf.ColumnName
		}
		cm.conds = append(cm.conds, compileCondition(c))
	}
	return cm
}

func (cm columnMatcher) match(id string, get Getter) bool {
	for _, c := range cm.conds {
		v, ok := get(id, c.cond.Field)
		if !ok {
			v = nil
		}
		if !c.eval(v) {
			return false
		}
	}
	return true
}

// lowerString renders v for case-insensitive text comparison.
func lowerString(v any) string {
	return strings.ToLower(stringify(v))
}
