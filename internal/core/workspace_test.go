package core

import (
	"errors"
	"testing"
	"time"
)

func fixedWorkspace(t time.Time) *Workspace {
	w := NewWorkspace()
	w.now = func() time.Time { return t }
	return w
}

func TestWorkspace_Paste(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	w := fixedWorkspace(now)

	if w.State() != StateEmpty || w.ID() != "" {
		t.Fatalf("new workspace state = %q id = %q", w.State(), w.ID())
	}

	if _, err := w.Paste("Name,Age\nAlice,30\nBob,25"); err != nil {
		t.Fatal(err)
	}
	if w.State() != StateEditing {
		t.Errorf("state = %q, want editing", w.State())
	}
	first := w.ID()
	if first == "" {
		t.Fatal("paste did not assign an id")
	}

	ds := w.Dataset()
	if ds.CreatedAt != now.UnixMilli() {
		t.Errorf("CreatedAt = %d, want %d", ds.CreatedAt, now.UnixMilli())
	}
	if len(ds.SortRules) != 1 || ds.SortRules[0].Column != "Name" || ds.SortRules[0].Type != SortAlpha {
		t.Errorf("default rules = %+v", ds.SortRules)
	}

	if _, err := w.Paste("x\n1"); err != nil {
		t.Fatal(err)
	}
	if w.ID() == first {
		t.Error("second paste kept the previous id")
	}
}

func TestWorkspace_PasteEmptyKeepsState(t *testing.T) {
	w := NewWorkspace()
	if _, err := w.Paste("a,b\n1,2"); err != nil {
		t.Fatal(err)
	}
	id := w.ID()

	if _, err := w.Paste("   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Paste(blank) error = %v, want ErrEmptyInput", err)
	}
	if w.ID() != id || w.State() != StateEditing {
		t.Errorf("failed paste changed the workspace: id %q state %q", w.ID(), w.State())
	}
}

func TestWorkspace_RequiresDataset(t *testing.T) {
	w := NewWorkspace()
	_, snapErr := w.Snapshot()
	_, shareErr := w.SharePayload()

	checks := map[string]error{
		"SetLabel":     w.SetLabel("x"),
		"SetRules":     w.SetRules(nil),
		"ToggleColumn": w.ToggleColumn("a"),
		"Snapshot":     snapErr,
		"SharePayload": shareErr,
	}

	for op, err := range checks {
		if !errors.Is(err, ErrNoDataset) {
			t.Errorf("%s on empty workspace error = %v, want ErrNoDataset", op, err)
		}
	}
}

func TestWorkspace_EditAndSort(t *testing.T) {
	w := NewWorkspace()
	if _, err := w.Paste("Name,Age\nAlice,30\nBob,25\nCara,41"); err != nil {
		t.Fatal(err)
	}

	if err := w.SetRules([]SortRule{{Column: "Height", Direction: Asc, Type: SortAlpha}}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("SetRules(unknown) error = %v, want ErrUnknownColumn", err)
	}
	if err := w.ToggleColumn("Height"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("ToggleColumn(unknown) error = %v, want ErrUnknownColumn", err)
	}

	if err := w.SetRules([]SortRule{{Column: "Age", Direction: Desc, Type: SortNumeric}}); err != nil {
		t.Fatal(err)
	}
	sorted := w.Sorted()
	if got := values(sorted.Rows, "Name"); got[0] != "Cara" || got[2] != "Bob" {
		t.Errorf("Sorted() names = %q", got)
	}
	if got := values(w.Dataset().Rows, "Name"); got[0] != "Alice" {
		t.Errorf("Dataset() rows reordered: %q", got)
	}

	if err := w.ToggleColumn("Age"); err != nil {
		t.Fatal(err)
	}
	if len(w.Dataset().SortRules) != 0 {
		t.Errorf("toggle desc rule should remove it, got %+v", w.Dataset().SortRules)
	}
}

func TestWorkspace_Snapshot(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	w := fixedWorkspace(now)
	if _, err := w.Paste("a,b\n1,2"); err != nil {
		t.Fatal(err)
	}

	e, err := w.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != w.ID() {
		t.Errorf("snapshot id = %q, want %q", e.ID, w.ID())
	}
	if e.Label != "Sort — Mar 5, 2024" {
		t.Errorf("default label = %q", e.Label)
	}

	if err := w.SetLabel("Budget"); err != nil {
		t.Fatal(err)
	}
	later := now.Add(time.Hour)
	w.now = func() time.Time { return later }
	e, err = w.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if e.Label != "Budget" || e.CreatedAt != later.UnixMilli() {
		t.Errorf("snapshot = label %q createdAt %d", e.Label, e.CreatedAt)
	}
}

func TestWorkspace_RestoreAndImport(t *testing.T) {
	entry := HistoryEntry{
		ID:        "fixed-id",
		Label:     "Saved",
		Columns:   []string{"n"},
		Rows:      []Row{{"n": "2"}, {"n": "1"}},
		SortRules: []SortRule{{Column: "n", Direction: Asc, Type: SortNumeric}},
		CreatedAt: 1,
	}

	w := NewWorkspace()
	w.Restore(entry)
	if w.ID() != "fixed-id" || w.State() != StateEditing {
		t.Errorf("Restore: id %q state %q", w.ID(), w.State())
	}

	p, err := w.SharePayload()
	if err != nil {
		t.Fatal(err)
	}
	if got := values(p.Rows, "n"); got[0] != "1" {
		t.Errorf("share payload rows not sorted: %q", got)
	}
	if p.Label != "Saved" {
		t.Errorf("share payload label = %q", p.Label)
	}

	w2 := NewWorkspace()
	w2.Import(p)
	if w2.ID() == "" || w2.ID() == "fixed-id" {
		t.Errorf("Import id = %q, want a fresh id", w2.ID())
	}
	if w2.Dataset().Label != "Saved" || len(w2.Dataset().SortRules) != 1 {
		t.Errorf("Import dataset = %+v", w2.Dataset())
	}

	w2.Clear()
	if w2.State() != StateEmpty || w2.ID() != "" {
		t.Errorf("Clear: id %q state %q", w2.ID(), w2.State())
	}
}

func TestNewSharePayload_NilRules(t *testing.T) {
	p := NewSharePayload(Dataset{Columns: []string{}, Rows: []Row{}})
	if p.SortRules == nil {
		t.Error("SortRules should be an empty slice, not nil")
	}
}
