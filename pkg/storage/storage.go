package storage

import (
	"context"
	"io"
	"time"
)

// Adapter is the filesystem-like view of a storage used by the upload subsystem.
// Paths are relative to the prefix the adapter is bound to.
type Adapter interface {
	// Type returns the storage type (local, s3, b2, sftp)
	Type() string

	// Write stores everything read from r at path, replacing any existing object
	Write(ctx context.Context, path string, r io.Reader) error

	// Read opens the object at path. The caller closes the reader.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Deleting a missing object succeeds.
	Delete(ctx context.Context, path string) error

	// List returns objects matching a glob pattern (e.g. "2024/*.png"),
	// newest first
	List(ctx context.Context, pattern string) ([]FileInfo, error)

	// Stat returns metadata about the object at path.
	// Missing objects yield an error matching ErrNotFound.
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Exists reports whether an object is stored at path
	Exists(ctx context.Context, path string) (bool, error)

	// Close releases resources (connections, sessions)
	Close() error
}

// Storage is a configured upload storage. It maps relative upload paths to
// storage paths and URIs, and hands out adapters.
type Storage interface {
	Type() string

	// GetPath returns the storage path of relativePath: the configured
	// prefix, followed by "/" and relativePath when it is not empty
	GetPath(relativePath string) string

	// GetAbsoluteURI returns a locator such as s3://bucket/prefix/path
	GetAbsoluteURI(path string) string

	// Adapter builds a fresh adapter bound to this storage
	Adapter(ctx context.Context) (Adapter, error)
}

// FileInfo represents metadata about a stored object
type FileInfo struct {
	Path    string    // Path relative to the adapter prefix
	Size    int64     // Size in bytes
	ModTime time.Time // Last modification time
}

// JoinPath appends a non-empty relative path to prefix with a "/"
func JoinPath(prefix, relativePath string) string {
	if relativePath == "" {
		return prefix
	}
	return prefix + "/" + relativePath
}
