// Package core provides the business logic for pasting, sorting and sharing tabular data.
// This package has no UI dependencies and can be used by any frontend.
package core

import "time"

// Row is a flat record keyed by column name. Every cell is a string;
// a missing key reads as the empty string.
type Row map[string]string

// Get returns the cell for column, or "" when the row has no such key.
func (r Row) Get(column string) string {
	return r[column]
}

// SortType selects the comparison strategy for a sort rule.
type SortType string

const (
	SortAlpha   SortType = "alpha"
	SortNumeric SortType = "numeric"
	SortDate    SortType = "date"
	SortLength  SortType = "length"
)

// SortTypes lists the supported comparison strategies in display order.
var SortTypes = []SortType{SortAlpha, SortNumeric, SortDate, SortLength}

// Valid reports whether t is one of the supported strategies.
func (t SortType) Valid() bool {
	switch t {
	case SortAlpha, SortNumeric, SortDate, SortLength:
		return true
	}
	return false
}

// Label returns the human-readable name shown next to rule pills.
func (t SortType) Label() string {
	switch t {
	case SortNumeric:
		return "Numeric"
	case SortDate:
		return "Date"
	case SortLength:
		return "Length"
	default:
		return "A → Z"
	}
}

// Direction is the order a rule applies its comparator in.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Valid reports whether d is asc or desc.
func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// Arrow returns the glyph used when rendering a rule.
func (d Direction) Arrow() string {
	if d == Desc {
		return "↓"
	}
	return "↑"
}

// SortRule is one entry in a prioritized multi-column sort.
type SortRule struct {
	Column    string    `json:"column"`    // Column the rule reads
	Direction Direction `json:"direction"` // "asc" | "desc"
	Type      SortType  `json:"type"`      // How the column values are compared
}

// Dataset is the full working set the application passes around.
type Dataset struct {
	Columns   []string   `json:"columns"`         // Header names, first-seen order
	Rows      []Row      `json:"rows"`            // All rows
	SortRules []SortRule `json:"sortRules"`       // Active rules, highest priority first
	Label     string     `json:"label,omitempty"` // Optional title set by the user
	CreatedAt int64      `json:"createdAt"`       // Unix milliseconds
}

// HistoryEntry is what the history store persists for a dataset.
type HistoryEntry struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Columns   []string   `json:"columns"`
	Rows      []Row      `json:"rows"`
	SortRules []SortRule `json:"sortRules"`
	CreatedAt int64      `json:"createdAt"`
}

// Dataset returns the dataset portion of the entry.
func (e HistoryEntry) Dataset() Dataset {
	return Dataset{
		Columns:   e.Columns,
		Rows:      e.Rows,
		SortRules: e.SortRules,
		Label:     e.Label,
		CreatedAt: e.CreatedAt,
	}
}

// SharePayload is the structure encoded into a share token.
type SharePayload struct {
	Columns   []string   `json:"columns"`
	Rows      []Row      `json:"rows"`
	SortRules []SortRule `json:"sortRules"`
	Label     string     `json:"label,omitempty"`
}

// NewSharePayload builds the share payload for a dataset.
func NewSharePayload(ds Dataset) SharePayload {
	rules := ds.SortRules
	if rules == nil {
		rules = []SortRule{}
	}
	return SharePayload{
		Columns:   ds.Columns,
		Rows:      ds.Rows,
		SortRules: rules,
		Label:     ds.Label,
	}
}

// NowMillis returns the current time as Unix milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
