// Package storage keeps uploaded result files on local disk, one directory
// per command. Filenames are reduced to their base name before use so a
// crafted filename cannot escape the command directory.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

// SanitizeFilename strips any directory components from a client-supplied
// filename. Both separators are handled; Windows agents send backslashes.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == "" {
		return ""
	}
	return base
}

// Save writes the file under <root>/<commandID>/<base> via a temp file and
// atomic rename. Returns the stored base name and byte count.
func (fs *FileStore) Save(commandID, filename string, r io.Reader) (string, int64, error) {
	base := SanitizeFilename(filename)
	if base == "" {
		return "", 0, fmt.Errorf("invalid filename %q", filename)
	}

	dir := filepath.Join(fs.root, commandID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", 0, fmt.Errorf("create command dir: %w", err)
	}

	fullPath := filepath.Join(dir, base)
	tmpPath := fullPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("write file data: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("rename file: %w", err)
	}
	return base, size, nil
}

// Path returns the on-disk path for a stored file, or an error if the file
// does not exist under the command directory.
func (fs *FileStore) Path(commandID, filename string) (string, error) {
	base := SanitizeFilename(filename)
	if base == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	p := filepath.Join(fs.root, commandID, base)
	if _, err := os.Stat(p); err != nil {
		return "", err
	}
	return p, nil
}
