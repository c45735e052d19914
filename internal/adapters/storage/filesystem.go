package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// FilesystemStorage implements Storage over an afero filesystem rooted at a
// base path.
type FilesystemStorage struct {
	fs       afero.Fs
	basePath string
}

// NewFilesystemStorage creates a storage adapter rooted at basePath on the
// OS filesystem.
func NewFilesystemStorage(basePath string) *FilesystemStorage {
	// BasePathFs rejects paths that do not share the base prefix, which a
	// relative base such as "." never does.
	if abs, err := filepath.Abs(basePath); err == nil {
		basePath = abs
	}
	return &FilesystemStorage{
		fs:       afero.NewBasePathFs(afero.NewOsFs(), basePath),
		basePath: basePath,
	}
}

// NewMemoryStorage creates an in-memory storage adapter.
func NewMemoryStorage() *FilesystemStorage {
	return &FilesystemStorage{fs: afero.NewMemMapFs()}
}

// Read reads contents from a path.
func (s *FilesystemStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Write writes contents to a path.
func (s *FilesystemStorage) Write(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Delete deletes a file at path.
func (s *FilesystemStorage) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List lists the regular files under dir. A missing dir lists nothing.
func (s *FilesystemStorage) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// LocalPath returns the OS path for path, or "" for in-memory storage.
func (s *FilesystemStorage) LocalPath(path string) string {
	if s.basePath == "" {
		return ""
	}
	return filepath.Join(s.basePath, path)
}

var _ Storage = (*FilesystemStorage)(nil)
