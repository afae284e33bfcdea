package filter

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ValueCount is one distinct column value and how many rows carry it.
type ValueCount struct {
	Value string
	Count int
}

// UniqueValues collects the distinct values of column across ids, with
// occurrence counts, sorted ascending under a locale-aware collator.
// Rows that lack the column are skipped; empty strings count as a value.
func UniqueValues(ids []string, get Getter, column string) []ValueCount {
	counts := make(map[string]int)
	for _, id := range ids {
		v, ok := get(id, column)
		if !ok {
			continue
		}
		counts[stringify(v)]++
	}

	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}

	coll := collate.New(language.Und)
	sort.SliceStable(out, func(i, j int) bool {
		return coll.CompareString(out[i].Value, out[j].Value) < 0
	})
	return out
}
