// Package epub reads EPUB containers: zip archives holding an XML package
// document, an optional NCX navigation document, and HTML content documents.
package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports an entry name absent from the archive.
var ErrNotFound = errors.New("entry not found in archive")

// Book is read-only access to an open EPUB archive. The archive is immutable
// for the session; all reads go through Read.
type Book struct {
	path   string
	zr     *zip.ReadCloser
	byName map[string]*zip.File
}

// IsEpub reports whether path names a regular file with an .epub extension
// (case-insensitive). Anything else is not worth opening.
func IsEpub(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), ".epub")
}

// Open opens the archive at path for reading.
func Open(path string) (*Book, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}

	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}

	return &Book{path: path, zr: zr, byName: byName}, nil
}

// Path returns the filesystem path the book was opened from.
func (b *Book) Path() string { return b.path }

// Read returns the bytes of the named archive entry. Missing entries return
// an error satisfying errors.Is(err, ErrNotFound).
func (b *Book) Read(name string) ([]byte, error) {
	f, ok := b.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Close releases the underlying archive handle.
func (b *Book) Close() error {
	return b.zr.Close()
}
