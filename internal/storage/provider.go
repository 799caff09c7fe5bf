// Package storage defines the posts directory file-system abstraction.
package storage

import "time"

// FileInfo describes one file under the storage root.
type FileInfo struct {
	// Path is relative to the root, slash separated.
	Path      string
	Size      int64
	UpdatedAt time.Time
}

// Provider is the interface for posts directory file operations.
type Provider interface {
	// List returns every regular file under dir (relative to root), in
	// lexical path order.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Abs resolves path (relative to root) to an absolute file-system path.
	Abs(path string) (string, error)
	// Root returns the absolute root directory.
	Root() string
}
