package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/rotisserie/eris"
)

// DocumentExt is the suffix every corpus document carries.
const DocumentExt = ".json"

// DirStore is a corpus kept as .json files directly inside one directory.
type DirStore struct {
	dir string
}

// NewDirStore creates a DirStore rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Location returns the corpus directory.
func (s *DirStore) Location() string {
	return s.dir
}

// List returns the names of the .json files in the directory, sorted.
// Subdirectories are not descended into.
func (s *DirStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read dir %s", s.dir)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), DocumentExt) {
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// Read returns the content of the document named key.
func (s *DirStore) Read(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeNotFound, domain.ErrChapterNotFound.Message, err)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read %s", key)
	}
	return data, nil
}

// Write replaces the document named key. The new content is written to a
// temporary file in the same directory and renamed over the original, so a
// reader never sees a partial document. The original file mode is kept.
func (s *DirStore) Write(ctx context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(s.dir, ".chapterkit-*.tmp")
	if err != nil {
		return eris.Wrap(err, "storage: create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "storage: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "storage: close temp file")
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return eris.Wrap(err, "storage: chmod temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "storage: replace %s", key)
	}
	return nil
}

func (s *DirStore) path(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, key), nil
}

// checkKey accepts only a bare document name, so no store can be steered
// outside its directory or prefix.
func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return eris.Errorf("storage: invalid document key %q", key)
	}
	return nil
}
