package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory, got info=%v err=%v", info, err)
	}
	// repeat is a no-op
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("ensure existing dir: %v", err)
	}
	if err := EnsureDir(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestFindByPrefix(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "abc___My Song.mp3"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "other.mp3"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	path, found := FindByPrefix(dir, "abc___")
	if !found {
		t.Fatalf("expected to find prefixed file")
	}
	if !strings.HasSuffix(path, "abc___My Song.mp3") {
		t.Fatalf("unexpected path %q", path)
	}

	if _, found := FindByPrefix(dir, "zzz___"); found {
		t.Fatalf("expected no match for unknown prefix")
	}
	if _, found := FindByPrefix(filepath.Join(dir, "missing"), "abc"); found {
		t.Fatalf("expected no match for missing dir")
	}
}

func TestRemoveTreeIdempotent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "artifact.zip")
	if err := os.WriteFile(target, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := RemoveTree(target); err != nil {
		t.Fatalf("first remove: %v", err)
	}
	// second removal of the same path must not error
	if err := RemoveTree(target); err != nil {
		t.Fatalf("second remove: %v", err)
	}

	nested := filepath.Join(dir, "sub", "deep")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := RemoveTree(filepath.Join(dir, "sub")); err != nil {
		t.Fatalf("remove tree: %v", err)
	}
	if _, err := os.Stat(nested); !os.IsNotExist(err) {
		t.Fatalf("expected tree to be gone, got %v", err)
	}
}
