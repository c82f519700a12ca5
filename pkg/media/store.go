// Package media stores uploaded complaint photos on the local file system.
package media

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DirName is the content directory, relative to the media root, that holds uploaded images.
const DirName = "images"

// IOError reports a failed write to the content directory.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type Store struct {
	root string
}

// New returns a store rooted at root. The images directory is created lazily by Save,
// or eagerly by EnsureDir during start-up.
func New(root string) *Store {
	if root == "" {
		root = "."
	}
	return &Store{root: root}
}

// Dir is the on-disk content directory.
func (s *Store) Dir() string {
	return filepath.Join(s.root, DirName)
}

func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return &IOError{Op: "create directory", Path: s.Dir(), Err: err}
	}
	return nil
}

// Save writes data as "{timestamp}_{filename}" and returns its path relative to the root,
// e.g. "images/20240101120000_bin1.jpg". An existing file with the same name is overwritten.
func (s *Store) Save(timestamp, filename string, data []byte) (string, error) {
	if err := s.EnsureDir(); err != nil {
		return "", err
	}
	name := timestamp + "_" + CleanFilename(filename)
	full := filepath.Join(s.Dir(), name)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", &IOError{Op: "write image", Path: full, Err: err}
	}
	return path.Join(DirName, name), nil
}

// Resolve maps a path returned by Save to its location on disk.
func (s *Store) Resolve(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

// PublicURL is the URL the router serves a stored image under.
func PublicURL(relPath string) string {
	return "/" + strings.TrimPrefix(path.Clean("/"+relPath), "/")
}

// CleanFilename keeps only the base name of a client-supplied file name, NFC-normalised.
// Plain ASCII names come back unchanged.
func CleanFilename(filename string) string {
	name := strings.ReplaceAll(filename, "\\", "/")
	name = path.Base(name)
	name = norm.NFC.String(name)
	if name == "." || name == "/" || name == ".." || name == "" {
		return "upload"
	}
	return name
}
