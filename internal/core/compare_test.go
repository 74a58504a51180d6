package core

import "testing"

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		typ  SortType
		a, b string
		want int
	}{
		{"numeric magnitude", SortNumeric, "10", "2", 1},
		{"numeric negative", SortNumeric, "-5", "3", -1},
		{"numeric equal after trim", SortNumeric, " 7 ", "7", 0},
		{"numeric currency", SortNumeric, "$1,234", "999", 1},
		{"numeric decimals", SortNumeric, "0.5", ".25", 1},
		{"numeric unreadable sinks", SortNumeric, "abc", "10", 1},
		{"numeric readable first", SortNumeric, "10", "abc", -1},
		{"numeric both unreadable", SortNumeric, "abc", "xyz", 0},
		{"numeric empty sinks", SortNumeric, "", "0", 1},
		{"numeric infinity", SortNumeric, "1e999", "5", 1},

		{"date order", SortDate, "2024-01-02", "2023-12-31", 1},
		{"date mixed layouts", SortDate, "1/2/2024", "2024-01-02", 0},
		{"date timestamp", SortDate, "2024-01-02T10:00:00Z", "2024-01-02", 1},
		{"date unreadable sinks", SortDate, "never", "2024-01-01", 1},
		{"date both unreadable", SortDate, "never", "later", 0},

		{"length", SortLength, "abc", "ab", 1},
		{"length counts runes", SortLength, "日本", "ab", 0},
		{"length empty", SortLength, "", "a", -1},

		{"alpha", SortAlpha, "b", "a", 1},
		{"alpha ignores case", SortAlpha, "apple", "Banana", -1},
		{"alpha case equal", SortAlpha, "a", "A", 0},
		{"alpha ignores accents", SortAlpha, "é", "e", 0},
		{"alpha empty first", SortAlpha, "", "a", -1},
		{"unknown type is alpha", SortType("bogus"), "b", "a", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sign(Compare(tt.typ, tt.a, tt.b)); got != tt.want {
				t.Errorf("Compare(%s, %q, %q) = %d, want %d", tt.typ, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseLooseFloat(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"42", 42, true},
		{"1,234", 1234, true},
		{"$1,234.50", 1234.5, true},
		{"12%", 12, true},
		{"-3.5e2", -350, true},
		{"12-3", 12, true},
		{"1.2.3", 1.2, true},
		{"e5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseLooseFloat(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("parseLooseFloat(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseLooseFloat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
