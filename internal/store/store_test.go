package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "preferences.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	if _, err := s.Get(ctx, "theme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, "theme", "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "theme", "light"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := s.Set(ctx, "temperatureUnit", "fahrenheit"); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, err := s.Get(ctx, "theme")
	if err != nil || v != "light" {
		t.Fatalf("expected light, got %q (%v)", v, err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 || all["theme"] != "light" || all["temperatureUnit"] != "fahrenheit" {
		t.Fatalf("unexpected values %v", all)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	testStore(t, newSQLite(t))
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, "theme", "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = s.Close()

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, err := reopened.Get(ctx, "theme")
	if err != nil || v != "dark" {
		t.Fatalf("expected persisted dark theme, got %q (%v)", v, err)
	}
}
