// Package storage provides storage adapter interfaces.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a path does not exist.
var ErrNotFound = errors.New("storage: file not found")

// Storage defines the storage adapter interface. Paths are relative to the
// storage root.
type Storage interface {
	// Read reads contents from a path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write writes contents to a path, creating parent directories.
	Write(ctx context.Context, path string, content []byte) error

	// Delete deletes a file at path.
	Delete(ctx context.Context, path string) error

	// List lists the files directly under dir, sorted by name.
	List(ctx context.Context, dir string) ([]string, error)

	// LocalPath returns the OS path backing path, or "" when the storage is
	// not on the local filesystem.
	LocalPath(path string) string
}

// Config holds storage configuration.
type Config struct {
	// Type is the storage type (filesystem, memory).
	Type string

	// BasePath is the base path for filesystem storage.
	BasePath string
}
