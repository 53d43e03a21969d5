package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/crowngraphics/portal/internal/clock"
)

// LocalStore writes uploads under one directory.
type LocalStore struct {
	dir   string
	clock clock.Clock
}

func NewLocal(dir string, clk clock.Clock) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: filepath.Clean(dir), clock: clk}, nil
}

func (s *LocalStore) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	name, err := StoredName(s.clock.Now(), filename)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *LocalStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *LocalStore) Remove(ctx context.Context, path string) error {
	resolved, err := s.resolve(path)
	if err != nil {
		return err
	}
	err = os.Remove(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// resolve maps a stored path to its file. Uploads live flat in the
// directory, so only the base name is honoured.
func (s *LocalStore) resolve(path string) (string, error) {
	name := filepath.Base(filepath.Clean(strings.TrimSpace(path)))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, name), nil
}
