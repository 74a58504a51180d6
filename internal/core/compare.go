package core

// compare.go implements the per-type comparators used by SortRows and the
// value checks used by DetectType.
//
// These functions deal with the messy reality of pasted data:
//   - Currency symbols, units and thousands separators around numbers
//   - Many date layouts (ISO, US, EU, month names, RFC timestamps)
//   - Mixed case and accented text
//
// Values that cannot be read as the requested type are not errors; they
// sort after every readable value.

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// comparator returns <0, 0 or >0 for a before, equal to, or after b.
type comparator func(a, b string) int

// dateLayouts are tried in order by parseDate. Four-digit years come first
// because they are unambiguous.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2006-01",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1-2-2006",
	"1.2.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	"Mon Jan 2 2006",
	"1/2/06",
	"1-2-06",
}

// parseDate reads s as a calendar date or timestamp.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// stripNumeric keeps only the characters that can appear in a number:
// digits, '.', '-', '+', 'e' and 'E'. "$1,234.50" becomes "1234.50".
func stripNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// parseLooseFloat strips non-numeric characters from s and reads the longest
// leading number, the way a lenient float parser does: "12-3" reads as 12,
// "1.2.3" as 1.2 and "e5" not at all.
func parseLooseFloat(s string) (float64, bool) {
	num := numericPrefix(stripNumeric(s))
	if num == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil && !math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// numericPrefix returns the longest prefix of s of the form
// [+-]?(digits[.digits]|.digits)([eE][+-]?digits)?, or "" if there is none.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return s[:i]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// newAlphaComparator compares case- and accent-insensitively using root
// collation. A collate.Collator is not safe for concurrent use, so each
// sort builds its own.
func newAlphaComparator() comparator {
	c := collate.New(language.Und, collate.Loose)
	return func(a, b string) int {
		return c.CompareString(a, b)
	}
}

// compareNumeric orders readable numbers before unreadable values.
func compareNumeric(a, b string) int {
	na, okA := parseLooseFloat(a)
	nb, okB := parseLooseFloat(b)
	return compareParsed(okA, okB, func() int {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	})
}

// compareDate orders readable dates chronologically, unreadable ones last.
func compareDate(a, b string) int {
	da, okA := parseDate(a)
	db, okB := parseDate(b)
	return compareParsed(okA, okB, func() int {
		return da.Compare(db)
	})
}

// compareLength orders by character count, shorter first.
func compareLength(a, b string) int {
	return utf8.RuneCountInString(a) - utf8.RuneCountInString(b)
}

// compareParsed applies the "unreadable sinks" policy shared by the numeric
// and date comparators.
func compareParsed(okA, okB bool, both func() int) int {
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	return both()
}

// comparatorSet resolves a comparator for each sort type. It owns a collator
// and must not be shared between goroutines.
type comparatorSet struct {
	alpha comparator
}

func newComparatorSet() *comparatorSet {
	return &comparatorSet{alpha: newAlphaComparator()}
}

func (cs *comparatorSet) get(t SortType) comparator {
	switch t {
	case SortNumeric:
		return compareNumeric
	case SortDate:
		return compareDate
	case SortLength:
		return compareLength
	default:
		return cs.alpha
	}
}

// Compare compares two trimmed cell values with the comparator for t.
// Unknown types compare as alpha.
func Compare(t SortType, a, b string) int {
	return newComparatorSet().get(t)(strings.TrimSpace(a), strings.TrimSpace(b))
}
