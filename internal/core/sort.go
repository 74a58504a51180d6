package core

import (
	"sort"
	"strings"
)

// SortRows applies rules to rows and returns a new, sorted slice.
// Earlier rules have higher priority. The sort is stable: rows that tie on
// every rule keep their original relative order. rows is never modified.
func SortRows(rows []Row, rules []SortRule) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	if len(rules) == 0 || len(out) < 2 {
		return out
	}

	cs := newComparatorSet()
	cmps := make([]comparator, len(rules))
	for i, rule := range rules {
		cmps[i] = cs.get(rule.Type)
	}

	// Extract trimmed keys once instead of on every comparison.
	keys := make([][]string, len(out))
	for i, r := range out {
		k := make([]string, len(rules))
		for j, rule := range rules {
			k[j] = strings.TrimSpace(r.Get(rule.Column))
		}
		keys[i] = k
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(i, j int) bool {
		a, b := keys[idx[i]], keys[idx[j]]
		for r, rule := range rules {
			c := cmps[r](a[r], b[r])
			if c == 0 {
				continue
			}
			if rule.Direction == Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	sorted := make([]Row, len(out))
	for i, k := range idx {
		sorted[i] = out[k]
	}
	return sorted
}
