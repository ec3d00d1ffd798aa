package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// exerciseStore runs the behaviour every backend must share
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on missing key: err = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "unit", "celsius"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.Get(ctx, "unit")
	if err != nil || got != "celsius" {
		t.Fatalf("Get = %q, %v; want celsius", got, err)
	}

	if err := s.Set(ctx, "unit", "fahrenheit"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if got, _ := s.Get(ctx, "unit"); got != "fahrenheit" {
		t.Fatalf("after overwrite Get = %q, want fahrenheit", got)
	}

	if err := s.Set(ctx, "recent", `[{"id":"1","city":"Paris","timestamp":1}]`); err != nil {
		t.Fatalf("Set JSON value failed: %v", err)
	}
	if got, _ := s.Get(ctx, "recent"); got != `[{"id":"1","city":"Paris","timestamp":1}]` {
		t.Fatalf("JSON value changed in storage: %q", got)
	}

	if err := s.Remove(ctx, "unit"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := s.Get(ctx, "unit"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Remove: err = %v, want ErrNotFound", err)
	}
	if err := s.Remove(ctx, "unit"); err != nil {
		t.Fatalf("Remove of absent key failed: %v", err)
	}
	if got, _ := s.Get(ctx, "recent"); got == "" {
		t.Fatal("Remove deleted an unrelated key")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	exerciseStore(t, s)

	// A second store on the same file sees the persisted values
	reopened, _ := NewFileStore(path)
	if got, err := reopened.Get(context.Background(), "recent"); err != nil || got == "" {
		t.Fatalf("value not persisted to disk: %q, %v", got, err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFileStore(path)
	if _, err := s.Get(context.Background(), "unit"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a read error for a corrupt file, got %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prefs.db")
	s, err := NewSQLStore(DialectSQLite, dbPath)
	if err != nil {
		t.Fatalf("NewSQLStore failed: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLStoreUnknownDialect(t *testing.T) {
	if _, err := NewSQLStore("oracle", "whatever"); err == nil {
		t.Fatal("expected an error for an unsupported dialect")
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(mr.Addr(), "", 0, "test:")
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)

	if !mr.Exists("test:recent") {
		t.Fatal("expected keys to be written under the configured prefix")
	}
}

func TestOpen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(Options{}, logger)
	if err != nil {
		t.Fatalf("Open with defaults failed: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("default driver gave %T, want *MemoryStore", s)
	}

	s, err = Open(Options{Driver: "file", DSN: filepath.Join(t.TempDir(), "p.json")}, logger)
	if err != nil {
		t.Fatalf("Open file failed: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("file driver gave %T", s)
	}

	if _, err := Open(Options{Driver: "etcd"}, logger); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}
