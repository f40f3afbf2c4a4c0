package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/guidebook/core/internal/ports"
)

// DiskStorage keeps uploads as plain files in one directory
type DiskStorage struct {
	dir string
}

// NewDiskStorage creates the uploads directory if needed
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &DiskStorage{dir: dir}, nil
}

var _ ports.UploadStorage = (*DiskStorage)(nil)

// Dir returns the directory the files live in
func (s *DiskStorage) Dir() string {
	return s.dir
}

func (s *DiskStorage) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create upload %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write upload %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close upload %s: %w", name, err)
	}
	return nil
}

func (s *DiskStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", name, err)
	}
	return f, nil
}

func (s *DiskStorage) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete upload %s: %w", name, err)
	}
	return nil
}

func (s *DiskStorage) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid upload name %q: %w", name, fs.ErrNotExist)
	}
	return filepath.Join(s.dir, name), nil
}
