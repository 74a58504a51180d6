package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sortly/internal/core"
)

func entry(id, label string) core.HistoryEntry {
	return core.HistoryEntry{
		ID:        id,
		Label:     label,
		Columns:   []string{"Name"},
		Rows:      []core.Row{{"Name": label}},
		SortRules: []core.SortRule{{Column: "Name", Direction: core.Asc, Type: core.SortAlpha}},
		CreatedAt: 1700000000000,
	}
}

func ids(list []core.HistoryEntry) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func equalIDs(got []core.HistoryEntry, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

// backends returns every KeyValueStore that can run without external services.
// Postgres joins when SORTLY_TEST_DATABASE_URL is set.
func backends(t *testing.T) map[string]KeyValueStore {
	t.Helper()
	ctx := context.Background()

	fs, err := NewFileStore(filepath.Join(t.TempDir(), "history"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	sq, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	out := map[string]KeyValueStore{
		"memory": NewMemoryStore(),
		"file":   fs,
		"sqlite": sq,
	}

	if url := os.Getenv("SORTLY_TEST_DATABASE_URL"); url != "" {
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			t.Fatalf("pgxpool.New: %v", err)
		}
		t.Cleanup(pool.Close)
		pg, err := NewPostgresStore(ctx, pool)
		if err != nil {
			t.Fatalf("NewPostgresStore: %v", err)
		}
		out["postgres"] = pg
	}
	return out
}

func TestKeyValueStores(t *testing.T) {
	ctx := context.Background()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := "test:" + t.Name()
			t.Cleanup(func() { kv.Delete(ctx, key) })

			if _, ok, err := kv.Get(ctx, key); err != nil || ok {
				t.Fatalf("Get(missing) = ok %v, err %v; want false, nil", ok, err)
			}

			if err := kv.Set(ctx, key, []byte("one")); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := kv.Set(ctx, key, []byte("two")); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, ok, err := kv.Get(ctx, key)
			if err != nil || !ok || string(got) != "two" {
				t.Fatalf("Get = %q, %v, %v; want \"two\", true, nil", got, ok, err)
			}

			if err := kv.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := kv.Delete(ctx, key); err != nil {
				t.Fatalf("Delete twice: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, key); ok {
				t.Error("Get after Delete found a value")
			}
		})
	}
}

func TestStore_AcrossBackends(t *testing.T) {
	ctx := context.Background()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewStore(kv).Namespace(t.Name())
			t.Cleanup(func() { kv.Delete(ctx, s.Key()) })

			for _, id := range []string{"a", "b", "c"} {
				if err := s.Save(ctx, entry(id, "label "+id)); err != nil {
					t.Fatalf("Save(%s): %v", id, err)
				}
			}
			list, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !equalIDs(list, "c", "b", "a") {
				t.Fatalf("Load ids = %v, want [c b a]", ids(list))
			}
			if list[0].Rows[0]["Name"] != "label c" {
				t.Errorf("rows not preserved: %v", list[0].Rows)
			}
		})
	}
}

func TestStore_Save(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		saves []core.HistoryEntry
		want  []string
	}{
		{
			name:  "newest first",
			saves: []core.HistoryEntry{entry("a", "A"), entry("b", "B")},
			want:  []string{"b", "a"},
		},
		{
			name:  "upsert moves to front",
			saves: []core.HistoryEntry{entry("a", "A"), entry("b", "B"), entry("a", "A2")},
			want:  []string{"a", "b"},
		},
		{
			name:  "single entry",
			saves: []core.HistoryEntry{entry("x", "X")},
			want:  []string{"x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(NewMemoryStore())
			for _, e := range tt.saves {
				if err := s.Save(ctx, e); err != nil {
					t.Fatalf("Save: %v", err)
				}
			}
			list, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !equalIDs(list, tt.want...) {
				t.Errorf("ids = %v, want %v", ids(list), tt.want)
			}
		})
	}
}

func TestStore_SaveReplacesContent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStore())

	s.Save(ctx, entry("a", "first"))
	s.Save(ctx, entry("a", "second"))

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Label != "second" {
		t.Errorf("Label = %q, want %q", got.Label, "second")
	}
}

func TestStore_CapsEntries(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStore())

	for i := 0; i < MaxEntries+5; i++ {
		if err := s.Save(ctx, entry(fmt.Sprintf("id-%02d", i), "x")); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	list, _ := s.Load(ctx)
	if len(list) != MaxEntries {
		t.Fatalf("len = %d, want %d", len(list), MaxEntries)
	}
	if list[0].ID != fmt.Sprintf("id-%02d", MaxEntries+4) {
		t.Errorf("first = %s, want newest", list[0].ID)
	}
	if list[MaxEntries-1].ID != "id-05" {
		t.Errorf("last = %s, want id-05 (oldest five evicted)", list[MaxEntries-1].ID)
	}
}

func TestStore_WithMaxEntries(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStore(), WithMaxEntries(2))

	s.Save(ctx, entry("a", "A"))
	s.Save(ctx, entry("b", "B"))
	s.Save(ctx, entry("c", "C"))

	list, _ := s.Load(ctx)
	if !equalIDs(list, "c", "b") {
		t.Errorf("ids = %v, want [c b]", ids(list))
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	s := NewStore(NewMemoryStore())
	if err := s.Save(context.Background(), entry("", "x")); err == nil {
		t.Fatal("Save with empty id should fail")
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStore())
	s.Save(ctx, entry("a", "A"))
	s.Save(ctx, entry("b", "B"))

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete unknown id: %v", err)
	}

	list, _ := s.Load(ctx)
	if !equalIDs(list, "b") {
		t.Errorf("ids = %v, want [b]", ids(list))
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStore())
	s.Save(ctx, entry("a", "A"))

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	list, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("Load after Clear = %v, want empty non-nil slice", list)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	s := NewStore(NewMemoryStore())
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestStore_LoadEmptyAndCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	s := NewStore(kv)

	list, err := s.Load(ctx)
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("Load on empty store = %v, %v; want [], nil", list, err)
	}

	kv.Set(ctx, DefaultKey, []byte("{not json"))
	list, err = s.Load(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("Load on corrupt value = %v, %v; want [], nil", list, err)
	}

	// A save over a corrupt value starts a fresh list.
	if err := s.Save(ctx, entry("a", "A")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	list, _ = s.Load(ctx)
	if !equalIDs(list, "a") {
		t.Errorf("ids = %v, want [a]", ids(list))
	}
}

func TestStore_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	base := NewStore(kv)
	alice := base.Namespace("alice")
	bob := base.Namespace("bob")

	alice.Save(ctx, entry("a", "A"))
	bob.Save(ctx, entry("b", "B"))

	if alice.Key() != DefaultKey+":alice" {
		t.Errorf("Key() = %q", alice.Key())
	}
	la, _ := alice.Load(ctx)
	lb, _ := bob.Load(ctx)
	if !equalIDs(la, "a") || !equalIDs(lb, "b") {
		t.Errorf("alice=%v bob=%v, want isolated lists", ids(la), ids(lb))
	}
	if kv.Len() != 2 {
		t.Errorf("backend keys = %d, want 2", kv.Len())
	}
}

// setOnly hides MemoryStore's Updater so Store falls back to its own lock.
type setOnly struct{ kv *MemoryStore }

func (s setOnly) Get(ctx context.Context, k string) ([]byte, bool, error) { return s.kv.Get(ctx, k) }
func (s setOnly) Set(ctx context.Context, k string, v []byte) error      { return s.kv.Set(ctx, k, v) }
func (s setOnly) Delete(ctx context.Context, k string) error             { return s.kv.Delete(ctx, k) }

func TestStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		kv   KeyValueStore
	}{
		{"updater", NewMemoryStore()},
		{"fallback lock", setOnly{kv: NewMemoryStore()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.kv)

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if err := s.Save(ctx, entry(fmt.Sprintf("id-%d", i), "x")); err != nil {
						t.Errorf("Save: %v", err)
					}
				}(i)
			}
			wg.Wait()

			list, _ := s.Load(ctx)
			if len(list) != 20 {
				t.Errorf("len = %d, want 20 (no lost updates)", len(list))
			}
		})
	}
}
