package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildFromDir(t *testing.T) {
	srcDir := t.TempDir()
	files := map[string]string{
		"01 - First.mp3":  "first-bytes",
		"02 - Second.mp3": "second-bytes",
		"03 - Third.mp3":  "third-bytes",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	destZip := filepath.Join(t.TempDir(), "playlist.zip")
	if err := BuildFromDir(destZip, srcDir); err != nil {
		t.Fatalf("build: %v", err)
	}

	reader, err := zip.OpenReader(destZip)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer reader.Close()

	if len(reader.File) != len(files) {
		t.Fatalf("expected %d entries, got %d", len(files), len(reader.File))
	}
	for _, entry := range reader.File {
		wantContent, ok := files[entry.Name]
		if !ok {
			t.Fatalf("unexpected entry %q", entry.Name)
		}
		if entry.Method != zip.Store {
			t.Fatalf("entry %q should be stored uncompressed, got method %d", entry.Name, entry.Method)
		}
		rc, err := entry.Open()
		if err != nil {
			t.Fatalf("open entry %q: %v", entry.Name, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read entry %q: %v", entry.Name, err)
		}
		if string(content) != wantContent {
			t.Fatalf("entry %q: got %q, want %q", entry.Name, content, wantContent)
		}
	}
}

func TestBuildFromDirNested(t *testing.T) {
	srcDir := t.TempDir()
	nested := filepath.Join(srcDir, "sub")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "track.mp3"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	destZip := filepath.Join(t.TempDir(), "out.zip")
	if err := BuildFromDir(destZip, srcDir); err != nil {
		t.Fatalf("build: %v", err)
	}

	reader, err := zip.OpenReader(destZip)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer reader.Close()
	if len(reader.File) != 1 || reader.File[0].Name != "sub/track.mp3" {
		t.Fatalf("expected sub/track.mp3 entry, got %+v", reader.File)
	}
}

func TestBuildFromDirMissingSource(t *testing.T) {
	destZip := filepath.Join(t.TempDir(), "out.zip")
	if err := BuildFromDir(destZip, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing source dir")
	}
}
