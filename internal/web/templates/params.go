// Package templates renders Sortly's HTML pages. Components live in .templ
// files; run `templ generate` after editing them.
package templates

import (
	"github.com/a-h/templ"

	"github.com/JonMunkholm/sortly/internal/core"
)

// HomeParams feeds the paste page.
type HomeParams struct {
	Text    string
	Label   string
	Error   *core.UserMessage
	History []core.HistoryEntry
}

// DatasetParams feeds the editing page. Rows are already sorted.
type DatasetParams struct {
	ID      string
	Label   string
	Columns []string
	Rows    []core.Row
	Rules   []core.SortRule
	Error   *core.UserMessage
}

// ShareParams feeds the read-only shared view. Rows are already sorted.
type ShareParams struct {
	Token   string
	URL     string
	Label   string
	Columns []string
	Rows    []core.Row
	Rules   []core.SortRule
}

func (p ShareParams) title() string {
	if p.Label == "" {
		return "Shared data"
	}
	return p.Label
}

// headerFunc renders the content of one <th>.
type headerFunc func(column string) templ.Component

// plainHeader renders the column name with its rule marker, if any.
func plainHeader(rules []core.SortRule) headerFunc {
	return func(column string) templ.Component {
		return plainHeaderCell(rules, column)
	}
}

// toggleHeader renders each header as a button cycling asc → desc → off.
func toggleHeader(base string, rules []core.SortRule) headerFunc {
	return func(column string) templ.Component {
		return toggleHeaderCell(base, rules, column)
	}
}

// rulePosition returns the 1-based priority of column in rules, or 0.
func rulePosition(rules []core.SortRule, column string) (int, core.SortRule) {
	for i, r := range rules {
		if r.Column == column {
			return i + 1, r
		}
	}
	return 0, core.SortRule{}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

var directionOptions = []string{string(core.Asc), string(core.Desc)}

func directionLabel(d string) string {
	if core.Direction(d) == core.Desc {
		return "Descending"
	}
	return "Ascending"
}

func typeOptions() []string {
	types := make([]string, len(core.SortTypes))
	for i, t := range core.SortTypes {
		types[i] = string(t)
	}
	return types
}

func typeLabel(t string) string { return core.SortType(t).Label() }

func columnLabel(c string) string { return c }

func pageTitle(title string) string {
	if title == "" {
		return "Sortly"
	}
	return title + " · Sortly"
}
