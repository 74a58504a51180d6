package cli

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/sortly/internal/core"
)

// parseRuleSpecs turns --by values of the form COLUMN[:asc|desc][:TYPE] into
// sort rules. Modifiers are read from the right, so column names may contain
// colons. A missing type is detected from rows.
func parseRuleSpecs(specs []string, columns []string, rows []core.Row) ([]core.SortRule, error) {
	rules := make([]core.SortRule, 0, len(specs))
	for _, spec := range specs {
		rule, err := parseRuleSpec(spec)
		if err != nil {
			return nil, err
		}
		if rule.Type == "" {
			rule.Type = core.DetectType(rows, rule.Column)
		}
		rules = append(rules, rule)
	}
	if err := core.ValidateRules(rules, columns); err != nil {
		return nil, err
	}
	return rules, nil
}

func parseRuleSpec(spec string) (core.SortRule, error) {
	rule := core.SortRule{Direction: core.Asc}
	parts := strings.Split(spec, ":")

	var sawDir, sawType bool
	for len(parts) > 1 && !(sawDir && sawType) {
		last := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
		switch {
		case !sawDir && core.Direction(last).Valid():
			rule.Direction = core.Direction(last)
			sawDir = true
		case !sawType && core.SortType(last).Valid():
			rule.Type = core.SortType(last)
			sawType = true
		default:
			goto done
		}
		parts = parts[:len(parts)-1]
	}
done:
	rule.Column = strings.TrimSpace(strings.Join(parts, ":"))
	if rule.Column == "" {
		return core.SortRule{}, fmt.Errorf("%w: %q has no column", core.ErrInvalidRule, spec)
	}
	return rule, nil
}

// formatRules renders rules the way --by accepts them.
func formatRules(rules []core.SortRule) string {
	if len(rules) == 0 {
		return "(original order)"
	}
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = fmt.Sprintf("%s:%s:%s", r.Column, r.Direction, r.Type)
	}
	return strings.Join(out, ", ")
}
