package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/JonMunkholm/sortly/internal/core"
)

// maxCellWidth bounds a single column when printing to a terminal.
const maxCellWidth = 40

// table is a plain text grid. Widths are measured in terminal cells, so CJK
// text and emoji line up.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// datasetTable lays out rows under columns with a leading row number.
func datasetTable(columns []string, rows []core.Row) *table {
	t := newTable(append([]string{"#"}, columns...)...)
	for i, r := range rows {
		cells := make([]string, 0, len(columns)+1)
		cells = append(cells, fmt.Sprint(i+1))
		for _, c := range columns {
			cells = append(cells, r.Get(c))
		}
		t.addRow(cells...)
	}
	return t
}

// print writes the table. A limit > 0 truncates each cell to that many cells
// of display width.
func (t *table) print(w io.Writer, limit int) error {
	widths := make([]int, len(t.headers))
	measure := func(cells []string) {
		for i, c := range cells {
			if i >= len(widths) {
				break
			}
			n := runewidth.StringWidth(c)
			if limit > 0 && n > limit {
				n = limit
			}
			if n > widths[i] {
				widths[i] = n
			}
		}
	}
	measure(t.headers)
	for _, r := range t.rows {
		measure(r)
	}

	line := func(cells []string) string {
		var b strings.Builder
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if limit > 0 {
				cell = runewidth.Truncate(cell, limit, "…")
			}
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(widths)-1 {
				b.WriteString(cell)
			} else {
				b.WriteString(runewidth.FillRight(cell, widths[i]))
			}
		}
		return strings.TrimRight(b.String(), " ") + "\n"
	}

	rule := make([]string, len(widths))
	for i, wd := range widths {
		rule[i] = strings.Repeat("-", wd)
	}

	if _, err := io.WriteString(w, line(t.headers)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, line(rule)); err != nil {
		return err
	}
	for _, r := range t.rows {
		if _, err := io.WriteString(w, line(r)); err != nil {
			return err
		}
	}
	return nil
}

// cellLimit returns maxCellWidth when w is a terminal and 0 (no truncation)
// when output is piped.
func cellLimit(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return maxCellWidth
	}
	return 0
}

// writeTSV writes columns and rows as tab-separated text that Parse reads back.
// Line breaks inside cells become spaces since Parse splits lines first.
func writeTSV(w io.Writer, columns []string, rows []core.Row) error {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = tsvField(c)
	}
	if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
		return err
	}
	for _, r := range rows {
		for i, c := range columns {
			cells[i] = tsvField(r.Get(c))
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// tsvField quotes s when it holds a tab or a double quote, doubling any
// quotes inside.
func tsvField(s string) string {
	s = lineBreaks.Replace(s)
	if !strings.ContainsAny(s, "\t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
