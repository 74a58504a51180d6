package core

import (
	"math"
	"strings"
)

// Inference constants. A column is classified from at most SampleSize
// leading rows; blank cells are ignored.
const (
	SampleSize       = 20
	DateThreshold    = 0.6 // share of date-like samples needed for SortDate
	NumericThreshold = 0.7 // share of numeric samples needed for SortNumeric
)

// DetectType guesses the best SortType for column by sampling its values.
// Dates are checked before numbers so that "2024-01-01" is not read as 2024.
func DetectType(rows []Row, column string) SortType {
	n := len(rows)
	if n > SampleSize {
		n = SampleSize
	}

	samples := make([]string, 0, n)
	for _, r := range rows[:n] {
		if v := strings.TrimSpace(r.Get(column)); v != "" {
			samples = append(samples, v)
		}
	}
	if len(samples) == 0 {
		return SortAlpha
	}

	total := float64(len(samples))

	dateLike := 0
	for _, v := range samples {
		if looksLikeDate(v) {
			dateLike++
		}
	}
	if float64(dateLike)/total > DateThreshold {
		return SortDate
	}

	numLike := 0
	for _, v := range samples {
		if looksNumeric(v) {
			numLike++
		}
	}
	if float64(numLike)/total > NumericThreshold {
		return SortNumeric
	}

	return SortAlpha
}

// DetectTypes runs DetectType for every column.
func DetectTypes(rows []Row, columns []string) map[string]SortType {
	types := make(map[string]SortType, len(columns))
	for _, c := range columns {
		types[c] = DetectType(rows, c)
	}
	return types
}

// looksLikeDate requires a separator so bare numbers such as "2024" or "7"
// are not taken for dates.
func looksLikeDate(v string) bool {
	if !strings.ContainsAny(v, "-/.") {
		return false
	}
	_, ok := parseDate(v)
	return ok
}

func looksNumeric(v string) bool {
	f, ok := parseLooseFloat(v)
	return ok && !math.IsInf(f, 0) && !math.IsNaN(f)
}
