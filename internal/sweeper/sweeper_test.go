package sweeper

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touchOld(t *testing.T, path string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestSweepRemovesOldKeepsFresh(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "stale___track.mp3")
	if err := os.WriteFile(oldFile, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	touchOld(t, oldFile, 2*time.Hour)

	oldDir := filepath.Join(dir, "playlist_stale")
	if err := os.MkdirAll(oldDir, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(oldDir, "a.mp3"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	touchOld(t, oldDir, 2*time.Hour)

	freshFile := filepath.Join(dir, "fresh___track.mp3")
	if err := os.WriteFile(freshFile, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	New(dir, time.Hour).Sweep()

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Fatalf("expected stale file removed, got %v", err)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Fatalf("expected stale dir removed, got %v", err)
	}
	if _, err := os.Stat(freshFile); err != nil {
		t.Fatalf("expected fresh file kept, got %v", err)
	}
}

func TestSweepMissingDirIsNoop(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"), time.Hour)
	s.Sweep() // must not panic or create anything
}

func TestSweepTwiceIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "stale.mp3")
	if err := os.WriteFile(oldFile, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	touchOld(t, oldFile, 2*time.Hour)

	s := New(dir, time.Hour)
	s.Sweep()
	s.Sweep() // already-gone entries are not an error

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}
}
