package core

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is returned when a rule references a column the dataset does not have.
var ErrUnknownColumn = errors.New("column not found")

// ErrInvalidRule is returned for rules with an unsupported direction or type.
var ErrInvalidRule = errors.New("invalid sort rule")

// DefaultRules returns the rule set applied right after a paste:
// the first column, ascending, with its detected type.
func DefaultRules(columns []string, rows []Row) []SortRule {
	if len(columns) == 0 {
		return []SortRule{}
	}
	first := columns[0]
	return []SortRule{{Column: first, Direction: Asc, Type: DetectType(rows, first)}}
}

// ToggleColumn implements the column-header click cycle:
// not sorted → ascending (appended as the lowest priority) → descending → removed.
// The input slice is not modified.
func ToggleColumn(rules []SortRule, column string, rows []Row) []SortRule {
	for i, r := range rules {
		if r.Column != column {
			continue
		}
		if r.Direction == Asc {
			out := append([]SortRule(nil), rules...)
			out[i].Direction = Desc
			return out
		}
		out := make([]SortRule, 0, len(rules)-1)
		out = append(out, rules[:i]...)
		return append(out, rules[i+1:]...)
	}

	out := make([]SortRule, 0, len(rules)+1)
	out = append(out, rules...)
	return append(out, SortRule{Column: column, Direction: Asc, Type: DetectType(rows, column)})
}

// AddRule appends an ascending rule for the first column that has no rule yet,
// falling back to the first column when all are in use.
func AddRule(rules []SortRule, columns []string, rows []Row) []SortRule {
	if len(columns) == 0 {
		return rules
	}

	used := make(map[string]bool, len(rules))
	for _, r := range rules {
		used[r.Column] = true
	}
	col := columns[0]
	for _, c := range columns {
		if !used[c] {
			col = c
			break
		}
	}

	out := make([]SortRule, 0, len(rules)+1)
	out = append(out, rules...)
	return append(out, SortRule{Column: col, Direction: Asc, Type: DetectType(rows, col)})
}

// UpdateRule replaces the rule at idx.
func UpdateRule(rules []SortRule, idx int, rule SortRule) ([]SortRule, error) {
	if idx < 0 || idx >= len(rules) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidRule, idx)
	}
	out := append([]SortRule(nil), rules...)
	out[idx] = rule
	return out, nil
}

// RemoveRule drops the rule at idx.
func RemoveRule(rules []SortRule, idx int) ([]SortRule, error) {
	if idx < 0 || idx >= len(rules) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidRule, idx)
	}
	out := make([]SortRule, 0, len(rules)-1)
	out = append(out, rules[:idx]...)
	return append(out, rules[idx+1:]...), nil
}

// ValidateRules checks that every rule references a known column and uses a
// supported direction and type. Duplicate columns are allowed; SortRows
// simply applies them in order.
func ValidateRules(rules []SortRule, columns []string) error {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	for i, r := range rules {
		if !known[r.Column] {
			return fmt.Errorf("rule %d: %w: %q", i+1, ErrUnknownColumn, r.Column)
		}
		if !r.Direction.Valid() {
			return fmt.Errorf("rule %d: %w: direction %q", i+1, ErrInvalidRule, r.Direction)
		}
		if !r.Type.Valid() {
			return fmt.Errorf("rule %d: %w: type %q", i+1, ErrInvalidRule, r.Type)
		}
	}
	return nil
}
