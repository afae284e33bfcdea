package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// condMatcher is a Condition with any per-condition compilation (regex)
// done up front.
type condMatcher struct {
	cond Condition
	re   *regexp.Regexp // non-nil only for a valid OpRegex pattern
}

func compileCondition(c Condition) condMatcher {
	m := condMatcher{cond: c}
	if c.Operator == OpRegex {
		if pat := stringify(c.Value); pat != "" {
			// An invalid pattern leaves re nil; the condition then
			// matches nothing rather than failing the whole Apply.
			if re, err := regexp.Compile(pat); err == nil {
				m.re = re
			}
		}
	}
	return m
}

// eval reports whether the row value v satisfies the condition.
func (m condMatcher) eval(v any) bool {
	c := m.cond

	switch c.Operator {
	case OpIsEmpty:
		return isEmptyValue(v)
	case OpIsNotEmpty:
		return !isEmptyValue(v)
	case OpRegex:
		return m.re != nil && m.re.MatchString(stringify(v))
	case OpIn:
		return valueInList(v, c)
	case OpNotIn:
		return !valueInList(v, c)
	case OpContains:
		return strings.Contains(lowerString(v), lowerString(c.Value))
	case OpNotContains:
		return !strings.Contains(lowerString(v), lowerString(c.Value))
	case OpStartsWith:
		return strings.HasPrefix(lowerString(v), lowerString(c.Value))
	case OpEndsWith:
		return strings.HasSuffix(lowerString(v), lowerString(c.Value))
	case OpEquals:
		return equalValues(v, c)
	case OpNotEquals:
		return !equalValues(v, c)
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		return orderedCompare(v, c)
	case OpBetween:
		lo, okLo := coerceNumber(c.Value, c.DataType)
		hi, okHi := coerceNumber(c.SecondaryValue, c.DataType)
		n, okN := coerceNumber(v, c.DataType)
		if !okLo || !okHi || !okN {
			return false
		}
		if hi < lo {
			lo, hi = hi, lo
		}
		return n >= lo && n <= hi
	default:
		return false
	}
}

// equalValues applies type-aware equality: strict for booleans, numeric
// for numbers and dates, case-insensitive text otherwise.
func equalValues(v any, c Condition) bool {
	switch c.DataType {
	case TypeBoolean:
		a, okA := coerceBool(v)
		b, okB := coerceBool(c.Value)
		return okA && okB && a == b
	case TypeNumber, TypeDate:
		a, okA := coerceNumber(v, c.DataType)
		b, okB := coerceNumber(c.Value, c.DataType)
		return okA && okB && a == b
	default:
		return lowerString(v) == lowerString(c.Value)
	}
}

// orderedCompare handles the four relational operators. Rows whose value
// cannot be coerced to a number (or date) fail the comparison.
func orderedCompare(v any, c Condition) bool {
	a, okA := coerceNumber(v, c.DataType)
	b, okB := coerceNumber(c.Value, c.DataType)
	if !okA || !okB {
		return false
	}
	switch c.Operator {
	case OpGreaterThan:
		return a > b
	case OpGreaterThanOrEqual:
		return a >= b
	case OpLessThan:
		return a < b
	case OpLessThanOrEqual:
		return a <= b
	}
	return false
}

// valueInList tests membership of v in the condition's value list. List
// elements compare case-insensitively as text.
func valueInList(v any, c Condition) bool {
	needle := lowerString(v)
	for _, item := range listValues(c.Value) {
		if lowerString(item) == needle {
			return true
		}
	}
	return false
}

// listValues normalizes the accepted list shapes for In/NotIn.
func listValues(v any) []any {
	switch vv := v.(type) {
	case []any:
		return vv
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	case nil:
		return nil
	default:
		return []any{vv}
	}
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// stringify renders v the way it would appear in a cell.
func stringify(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(vv), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(vv)
	case fmt.Stringer:
		return vv.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// coerceNumber parses v as a float64. For TypeDate it first tries RFC 3339
// (returning the Unix-nano instant) before falling back to a plain numeric
// parse.
func coerceNumber(v any, dt DataType) (float64, bool) {
	if dt == TypeDate {
		if ts, ok := coerceDate(v); ok {
			return ts, true
		}
	}
	switch vv := v.(type) {
	case float64:
		return vv, true
	case float32:
		return float64(vv), true
	case int:
		return float64(vv), true
	case int8:
		return float64(vv), true
	case int16:
		return float64(vv), true
	case int32:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case uint:
		return float64(vv), true
	case uint8:
		return float64(vv), true
	case uint16:
		return float64(vv), true
	case uint32:
		return float64(vv), true
	case uint64:
		return float64(vv), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func coerceDate(v any) (float64, bool) {
	switch vv := v.(type) {
	case time.Time:
		return float64(vv.UnixNano()), true
	case string:
		if t, err := time.Parse(time.RFC3339, vv); err == nil {
			return float64(t.UnixNano()), true
		}
	}
	return 0, false
}

// Number coerces v to a float64 using the same rules the relational
// operators apply. Exposed for callers that sort or aggregate cell
// values.
func Number(v any) (float64, bool) {
	return coerceNumber(v, "")
}

// Text renders v the way it would appear in a cell.
func Text(v any) string {
	return stringify(v)
}

func coerceBool(v any) (bool, bool) {
	switch vv := v.(type) {
	case bool:
		return vv, true
	case string:
		b, err := strconv.ParseBool(strings.ToLower(vv))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}
