package core

// parse.go turns pasted text into a column list and a row list.
//
// Supported inputs:
//   - TSV (the default when copying from a spreadsheet)
//   - CSV with double-quoted fields
//   - Pipe- and semicolon-separated text
//   - A single line of loose tokens, which becomes a one-column table

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrEmptyInput is returned when the pasted text has no usable content.
var ErrEmptyInput = errors.New("empty input: paste at least one value")

// SingleColumnName is the column used when a single line is split into tokens.
const SingleColumnName = "Value"

// delimiterPriority is the detection order. When two delimiters occur equally
// often on the first line, the earlier entry wins.
var delimiterPriority = []rune{'\t', ',', '|', ';'}

// ParseResult holds the structure inferred from pasted text.
type ParseResult struct {
	Columns   []string `json:"columns"`
	Rows      []Row    `json:"rows"`
	Delimiter string   `json:"delimiter"` // "" for the single-line fallback
}

// Parse converts raw pasted text into columns and rows.
// Returns ErrEmptyInput when there is nothing to parse.
func Parse(raw string) (*ParseResult, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	lines := splitLines(trimmed)
	if len(lines) < 2 {
		return parseSingleLine(trimmed)
	}

	delim := DetectDelimiter(lines[0])

	fields := splitQuoted(lines[0], delim)
	headers := make([]string, len(fields))
	for i, h := range fields {
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		headers[i] = h
	}
	headers = uniqueHeaders(headers)

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := splitQuoted(line, delim)
		row := make(Row, len(headers))
		for idx, h := range headers {
			cell := ""
			if idx < len(cells) {
				cell = cells[idx]
			}
			row[h] = strings.TrimSpace(cell)
		}
		rows = append(rows, row)
	}

	return &ParseResult{
		Columns:   headers,
		Rows:      rows,
		Delimiter: string(delim),
	}, nil
}

// parseSingleLine splits one line on runs of whitespace and delimiter
// characters, producing one row per token.
func parseSingleLine(text string) (*ParseResult, error) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '|' || r == ';'
	})
	if len(tokens) == 0 {
		return nil, ErrEmptyInput
	}

	rows := make([]Row, len(tokens))
	for i, t := range tokens {
		rows[i] = Row{SingleColumnName: t}
	}
	return &ParseResult{
		Columns: []string{SingleColumnName},
		Rows:    rows,
	}, nil
}

// splitLines splits on \r\n, \n or \r and drops blank lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// DetectDelimiter picks the most frequent of tab, comma, pipe and semicolon
// in line. Ties (including no delimiter at all) go to the earlier entry of
// the priority list, so a line without any delimiter yields a tab.
func DetectDelimiter(line string) rune {
	best := delimiterPriority[0]
	bestCount := -1
	for _, d := range delimiterPriority {
		n := strings.Count(line, string(d))
		if n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// splitQuoted splits line on delim, honoring double-quote grouping.
// A quote toggles the quoted state, a delimiter inside quotes is literal and
// a doubled quote inside a quoted field is an escaped quote. Fields are trimmed.
func splitQuoted(line string, delim rune) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == delim && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}

// uniqueHeaders suffixes repeated header names with " (2)", " (3)", ...
// so every column name maps to exactly one cell per row.
func uniqueHeaders(headers []string) []string {
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		seen[h] = true
	}

	counts := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		counts[h]++
		if counts[h] == 1 {
			out[i] = h
			continue
		}
		n := counts[h]
		name := fmt.Sprintf("%s (%d)", h, n)
		for seen[name] {
			n++
			name = fmt.Sprintf("%s (%d)", h, n)
		}
		seen[name] = true
		counts[h] = n
		out[i] = name
	}
	return out
}
