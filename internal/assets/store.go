package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// ErrNotRegular is returned when a name resolves to something other than a regular file.
	ErrNotRegular = errors.New("not a regular file")
	// ErrTraversal marks request paths that try to climb above the asset root.
	ErrTraversal = errors.New("path escapes asset root")
)

// Store is read-only access to the asset tree. Names are slash-separated and
// relative to the root, without a leading slash.
type Store interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

// DirStore serves files from a directory opened as an os.Root, so no name
// (including symlink targets) can reach outside it.
type DirStore struct {
	root *os.Root
	dir  string
}

func OpenDir(dir string) (*DirStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open asset root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open asset root %s: not a directory", dir)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open asset root: %w", err)
	}

	return &DirStore{root: root, dir: dir}, nil
}

// Dir returns the directory the store was opened on.
func (s *DirStore) Dir() string {
	return s.dir
}

func (s *DirStore) Stat(name string) (fs.FileInfo, error) {
	return s.root.Stat(name)
}

func (s *DirStore) ReadFile(name string) ([]byte, error) {
	return s.root.ReadFile(name)
}

// FS exposes the store as an fs.FS for walking.
func (s *DirStore) FS() fs.FS {
	return s.root.FS()
}

func (s *DirStore) Close() error {
	return s.root.Close()
}

// StatRegular stats name and rejects anything that is not a regular file.
func StatRegular(store Store, name string) (fs.FileInfo, error) {
	info, err := store.Stat(name)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", name, ErrNotRegular)
	}
	return info, nil
}
