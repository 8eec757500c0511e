package storage

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"budgetai/internal/core"
	"budgetai/internal/store"
	"budgetai/internal/store/storetest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository { return newTestRepo(t) })
}

func TestCartVersionIncrements(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, v, err := repo.GetCartVersion(ctx, "u"); err != nil || v != 0 {
		t.Fatalf("expected version 0 before any save, got %d (%v)", v, err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.SaveCart(ctx, "u", []core.CartItem{{ID: "a", Quantity: i + 1}}); err != nil {
			t.Fatal(err)
		}
	}
	items, v, err := repo.GetCartVersion(ctx, "u")
	if err != nil || v != 3 || items[0].Quantity != 3 {
		t.Fatalf("expected version 3 with quantity 3, got v=%d items=%+v err=%v", v, items, err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	for run := 1; run <= 2; run++ {
		v, err := RunMigrations(path)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if v != 1 {
			t.Fatalf("run %d: expected schema version 1, got %d", run, v)
		}
	}
}

func TestMigrationsFromCustomSource(t *testing.T) {
	src := fstest.MapFS{
		"0001_notes.up.sql":   {Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY);")},
		"0001_notes.down.sql": {Data: []byte("DROP TABLE notes;")},
		"0002_tags.up.sql":    {Data: []byte("CREATE TABLE tags (id TEXT PRIMARY KEY);")},
		"0002_tags.down.sql":  {Data: []byte("DROP TABLE tags;")},
	}
	v, err := migrateSchema(filepath.Join(t.TempDir(), "notes.db"), src)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 {
		t.Fatalf("expected schema version 2, got %d", v)
	}

	broken := fstest.MapFS{"0001_bad.up.sql": {Data: []byte("CREATE TABLE (;")}}
	if _, err := migrateSchema(filepath.Join(t.TempDir(), "bad.db"), broken); err == nil {
		t.Fatal("expected an error for invalid SQL")
	}
}
