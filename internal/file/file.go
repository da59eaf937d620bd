package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appDirPerm os.FileMode = 0o750

// EnsureDir creates the directory if it does not exist.
func EnsureDir(dirPath string) error {
	if dirPath == "" {
		return errors.New("empty dir path")
	}
	if err := os.MkdirAll(dirPath, appDirPerm); err != nil { //nolint:gosec // app-owned data dir
		return fmt.Errorf("ensure dir: %w", err)
	}
	return nil
}

// FindByPrefix returns the path of the first directory entry whose name
// starts with prefix. External tools expand their own naming templates, so
// the exact artifact name is only known to carry the prefix.
func FindByPrefix(dir, prefix string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// RemoveTree deletes a file or directory tree. A path that is already gone
// is not an error: the retention sweeper and the delivery path may race to
// delete the same artifact and both must succeed.
func RemoveTree(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
