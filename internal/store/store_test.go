package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/mcao2/truthlens/internal/config"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ss, err := NewSQLiteStore(filepath.Join(dir, "kv.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	return map[string]Store{
		"file":   fs,
		"sqlite": ss,
		"memory": NewMemoryStore(),
	}
}

func TestStoreConformance(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get("truthlens_current_result"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound for missing key, got %v", err)
			}

			if err := s.Set("truthlens_current_result", []byte(`{"claim":"a"}`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, err := s.Get("truthlens_current_result")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(got) != `{"claim":"a"}` {
				t.Errorf("unexpected value %q", got)
			}

			if err := s.Set("truthlens_current_result", []byte(`{"claim":"b"}`)); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			got, _ = s.Get("truthlens_current_result")
			if string(got) != `{"claim":"b"}` {
				t.Errorf("expected overwritten value, got %q", got)
			}

			if err := s.Delete("truthlens_current_result"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := s.Get("truthlens_current_result"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
			if err := s.Delete("truthlens_current_result"); err != nil {
				t.Errorf("second Delete should be a no-op, got %v", err)
			}
		})
	}
}

func TestStoreKeysAreIndependent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Set("token", []byte("abc"))
			_ = s.Set("weird/key with spaces", []byte("xyz"))

			got, err := s.Get("token")
			if err != nil || string(got) != "abc" {
				t.Errorf("token = %q, %v", got, err)
			}
			got, err = s.Get("weird/key with spaces")
			if err != nil || string(got) != "xyz" {
				t.Errorf("escaped key = %q, %v", got, err)
			}
		})
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	value := []byte("original")
	_ = s.Set("k", value)
	value[0] = 'X'

	got, _ := s.Get("k")
	if string(got) != "original" {
		t.Errorf("stored value aliased caller slice: %q", got)
	}
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set("token", []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Get("token")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("expected persisted, got %q", got)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{config.BackendFile, "*store.FileStore"},
		{config.BackendSQLite, "*store.SQLiteStore"},
		{config.BackendMemory, "*store.MemoryStore"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			t.Setenv("TRUTHLENS_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
			cfg := config.Default()
			cfg.Storage.Backend = tt.backend

			s, err := Open(cfg)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer s.Close()

			var got string
			switch s.(type) {
			case *FileStore:
				got = "*store.FileStore"
			case *SQLiteStore:
				got = "*store.SQLiteStore"
			case *MemoryStore:
				got = "*store.MemoryStore"
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	cfg := config.Default()
	cfg.Storage.Backend = "redis"
	if _, err := Open(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}
