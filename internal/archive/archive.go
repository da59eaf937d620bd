package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const archiveDirPerm os.FileMode = 0o750

// BuildFromDir writes every regular file under srcDir into a zip at
// destZipPath, keeping paths relative to srcDir. Entries are stored without
// compression: the inputs are already-compressed media, so deflating them
// burns CPU for no size win.
func BuildFromDir(destZipPath, srcDir string) error {
	if _, err := os.Stat(srcDir); err != nil {
		return fmt.Errorf("stat source dir: %w", err)
	}

	zipFile, zipWriter, err := prepareZip(destZipPath)
	if err != nil {
		return err
	}
	defer func() { _ = zipWriter.Close() }()
	defer func() { _ = zipFile.Close() }()

	walkErr := filepath.WalkDir(srcDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relativeName, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		return addStoredEntry(zipWriter, path, filepath.ToSlash(relativeName))
	})
	if walkErr != nil {
		return fmt.Errorf("walk source dir: %w", walkErr)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("close zip writer: %w", err)
	}
	if err := zipFile.Close(); err != nil {
		return fmt.Errorf("close zip file: %w", err)
	}
	return nil
}

// addStoredEntry copies one file into the zip using the Store method.
func addStoredEntry(zipWriter *zip.Writer, path, name string) error {
	sourceFile, err := os.Open(path) //nolint:gosec // path comes from walking an app-owned dir
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = sourceFile.Close() }()

	info, err := sourceFile.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	entryWriter, err := zipWriter.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: info.ModTime(),
	})
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	if _, err := io.Copy(entryWriter, sourceFile); err != nil {
		return fmt.Errorf("copy into zip entry %s: %w", name, err)
	}
	return nil
}

// prepareZip creates the destination file and a zip writer for it.
func prepareZip(destZipPath string) (io.WriteCloser, *zip.Writer, error) {
	zipFile, err := createFile(destZipPath)
	if err != nil {
		return nil, nil, err
	}
	return zipFile, zip.NewWriter(zipFile), nil
}

// createFile creates or truncates the destination file along with ensuring the parent dir exists.
func createFile(destinationPath string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(destinationPath), archiveDirPerm); err != nil { //nolint:gosec // directory created by application under controlled path
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	outputFile, err := os.Create(destinationPath) //nolint:gosec // path is constructed by the application
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	return outputFile, nil
}
