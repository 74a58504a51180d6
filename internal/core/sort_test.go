package core

import (
	"reflect"
	"testing"
)

func values(rows []Row, col string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Get(col)
	}
	return out
}

func TestSortRows(t *testing.T) {
	tests := []struct {
		name  string
		in    []string
		rules []SortRule
		want  []string
	}{
		{
			name:  "alpha ascending",
			in:    []string{"b", "a", "c"},
			rules: []SortRule{{Column: "c", Direction: Asc, Type: SortAlpha}},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "numeric ascending with unreadable last",
			in:    []string{"abc", "10", "2"},
			rules: []SortRule{{Column: "c", Direction: Asc, Type: SortNumeric}},
			want:  []string{"2", "10", "abc"},
		},
		{
			name:  "numeric descending puts unreadable first",
			in:    []string{"2", "abc", "10"},
			rules: []SortRule{{Column: "c", Direction: Desc, Type: SortNumeric}},
			want:  []string{"abc", "10", "2"},
		},
		{
			name:  "alpha sorts numbers as text",
			in:    []string{"10", "9", "100"},
			rules: []SortRule{{Column: "c", Direction: Asc, Type: SortAlpha}},
			want:  []string{"10", "100", "9"},
		},
		{
			name:  "dates",
			in:    []string{"2024-03-01", "1/15/2024", "2023-12-31"},
			rules: []SortRule{{Column: "c", Direction: Asc, Type: SortDate}},
			want:  []string{"2023-12-31", "1/15/2024", "2024-03-01"},
		},
		{
			name:  "length descending",
			in:    []string{"a", "ccc", "bb"},
			rules: []SortRule{{Column: "c", Direction: Desc, Type: SortLength}},
			want:  []string{"ccc", "bb", "a"},
		},
		{
			name:  "no rules keeps order",
			in:    []string{"b", "a", "c"},
			rules: nil,
			want:  []string{"b", "a", "c"},
		},
		{
			name:  "rule on missing column keeps order",
			in:    []string{"b", "a", "c"},
			rules: []SortRule{{Column: "other", Direction: Asc, Type: SortAlpha}},
			want:  []string{"b", "a", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := values(SortRows(column(tt.in...), tt.rules), "c")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SortRows() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSortRows_MultiKey(t *testing.T) {
	rows := []Row{
		{"Dept": "Sales", "Name": "Ann", "Salary": "50,000"},
		{"Dept": "Eng", "Name": "Bob", "Salary": "90,000"},
		{"Dept": "Sales", "Name": "Cid", "Salary": "65,000"},
		{"Dept": "Eng", "Name": "Dee", "Salary": "120,000"},
		{"Dept": "Eng", "Name": "Eve", "Salary": "90,000"},
	}
	rules := []SortRule{
		{Column: "Dept", Direction: Asc, Type: SortAlpha},
		{Column: "Salary", Direction: Desc, Type: SortNumeric},
	}

	got := values(SortRows(rows, rules), "Name")
	want := []string{"Dee", "Bob", "Eve", "Cid", "Ann"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortRows() names = %q, want %q", got, want)
	}
}

func TestSortRows_Stable(t *testing.T) {
	rows := []Row{
		{"k": "1", "id": "a"},
		{"k": "0", "id": "b"},
		{"k": "1", "id": "c"},
		{"k": "0", "id": "d"},
		{"k": "1", "id": "e"},
	}

	for _, dir := range []Direction{Asc, Desc} {
		t.Run(string(dir), func(t *testing.T) {
			got := values(SortRows(rows, []SortRule{{Column: "k", Direction: dir, Type: SortNumeric}}), "id")
			want := []string{"b", "d", "a", "c", "e"}
			if dir == Desc {
				want = []string{"a", "c", "e", "b", "d"}
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("SortRows(%s) ids = %q, want %q", dir, got, want)
			}
		})
	}
}

func TestSortRows_DescReversesDistinctKeys(t *testing.T) {
	inputs := map[SortType][]string{
		SortAlpha:   {"pear", "Apple", "fig", "banana", "kiwi"},
		SortNumeric: {"3", "-1", "10", "2.5", "0"},
		SortDate:    {"2024-01-01", "2023-05-06", "2025-02-03"},
		SortLength:  {"a", "abcd", "ab", "abc"},
	}

	for typ, in := range inputs {
		t.Run(string(typ), func(t *testing.T) {
			rows := column(in...)
			asc := values(SortRows(rows, []SortRule{{Column: "c", Direction: Asc, Type: typ}}), "c")
			desc := values(SortRows(rows, []SortRule{{Column: "c", Direction: Desc, Type: typ}}), "c")
			for i := range asc {
				if asc[i] != desc[len(desc)-1-i] {
					t.Fatalf("desc %q is not the reverse of asc %q", desc, asc)
				}
			}
		})
	}
}

func TestSortRows_DoesNotModifyInput(t *testing.T) {
	in := column("b", "a", "c")
	before := values(in, "c")

	out := SortRows(in, []SortRule{{Column: "c", Direction: Asc, Type: SortAlpha}})

	if !reflect.DeepEqual(values(in, "c"), before) {
		t.Errorf("input reordered to %q", values(in, "c"))
	}
	if len(out) != len(in) {
		t.Errorf("len(out) = %d, want %d", len(out), len(in))
	}
}

func TestSortRows_TrimsKeys(t *testing.T) {
	got := values(SortRows(column(" 10", "9 ", "  1"), []SortRule{{Column: "c", Direction: Asc, Type: SortNumeric}}), "c")
	want := []string{"  1", "9 ", " 10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortRows() = %q, want %q", got, want)
	}
}
