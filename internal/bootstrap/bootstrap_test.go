package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirectoriesCreatesNestedPaths(t *testing.T) {
	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads", "images")
	data := filepath.Join(dir, "data")

	if err := EnsureDirectories(uploads, data, ""); err != nil {
		t.Fatalf("EnsureDirectories error: %v", err)
	}

	for _, path := range []string{uploads, data} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", path, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", path)
		}
	}
}

func TestEnsureDirectoriesIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uploads")
	if err := EnsureDirectories(path); err != nil {
		t.Fatalf("first EnsureDirectories error: %v", err)
	}
	if err := EnsureDirectories(path); err != nil {
		t.Fatalf("second EnsureDirectories error: %v", err)
	}
}

func TestEnsureDirectoriesReportsFailures(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	if err := EnsureDirectories(filepath.Join(file, "child")); err == nil {
		t.Fatal("expected error when a path component is a regular file")
	}
}
