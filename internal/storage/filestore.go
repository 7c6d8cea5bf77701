package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const DefaultRoot = "./storage"

// FileStore keeps blobs as plain files under a single root directory.
// Every name is resolved through Path, so nothing outside root is ever touched.
type FileStore struct {
	root string
}

// NewFileStore resolves root to an absolute path and creates it if absent.
func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		root = DefaultRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root %q: %w", root, err)
	}
	abs = filepath.Clean(abs)
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("%w: create storage root: %w", ErrStorageFault, err)
	}
	return &FileStore{root: abs}, nil
}

func (s *FileStore) Root() string { return s.root }

// Path returns the absolute location of name. The store is flat: names that
// are empty, absolute, contain a separator, or resolve to root itself or
// anywhere outside it are rejected.
func (s *FileStore) Path(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.ContainsAny(name, "/\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	p := filepath.Clean(filepath.Join(s.root, name))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return p, nil
}

// Put writes data to name, replacing any existing blob. The bytes land in a
// temp file first and are renamed into place.
func (s *FileStore) Put(ctx context.Context, name string, data []byte) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".pending-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrStorageFault, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", ErrStorageFault, name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %w", ErrStorageFault, name, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: chmod %s: %w", ErrStorageFault, name, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %w", ErrStorageFault, name, err)
	}
	return nil
}

// Open returns a reader over the blob and its size. The caller closes it.
func (s *FileStore) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	p, err := s.Path(name)
	if err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, 0, fmt.Errorf("%w: open %s: %w", ErrStorageFault, name, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: stat %s: %w", ErrStorageFault, name, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, info.Size(), nil
}

func (s *FileStore) Exists(ctx context.Context, name string) (bool, error) {
	p, err := s.Path(name)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %w", ErrStorageFault, name, err)
	}
	return !info.IsDir(), nil
}

// Delete removes the blob. A missing file is not an error.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", ErrStorageFault, name, err)
	}
	return nil
}
