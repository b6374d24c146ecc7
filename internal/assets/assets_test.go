package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates files under a fresh temp dir and returns the dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, body := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
	return dir
}

func openStore(t *testing.T, dir string) *DirStore {
	t.Helper()

	store, err := OpenDir(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// failingStore reports files as present but fails every read.
type failingStore struct {
	Store
	readErr error
	reads   int
}

func (s *failingStore) ReadFile(name string) ([]byte, error) {
	s.reads++
	return nil, s.readErr
}

var errDisk = errors.New("disk on fire")
