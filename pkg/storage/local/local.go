package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rikoimade/elabftw/pkg/settings"
	"github.com/rikoimade/elabftw/pkg/storage"
)

const (
	Type   = "local"
	Scheme = "file"

	// DefaultDir is used when uploads_dir is not set
	DefaultDir = "uploads"
)

// DirKeys are the setting keys naming the uploads directory
var DirKeys = []string{"uploads_dir", "local_uploads_dir"}

func init() {
	storage.RegisterStorage(Type, func(p settings.Provider, logger zerolog.Logger) (storage.Storage, error) {
		return New(settings.String(p, DefaultDir, DirKeys...), logger), nil
	})
	storage.RegisterStreamWrapper(Scheme, fileWrapper{})
}

// Storage keeps uploads in a directory on the local filesystem
type Storage struct {
	dir    string
	logger zerolog.Logger
}

// New creates a new local storage rooted at dir
func New(dir string, logger zerolog.Logger) *Storage {
	logger.Debug().Str("dir", dir).Msg("configured local storage")
	return &Storage{dir: dir, logger: logger}
}

func (s *Storage) Type() string { return Type }

// GetPath returns the file path of relativePath under the uploads directory
func (s *Storage) GetPath(relativePath string) string {
	return storage.JoinPath(s.dir, relativePath)
}

// GetAbsoluteURI returns a file:// URI for path
func (s *Storage) GetAbsoluteURI(path string) string {
	p := s.GetPath(path)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return (&url.URL{Scheme: Scheme, Path: filepath.ToSlash(p)}).String()
}

// Adapter returns an adapter rooted at the uploads directory, creating it if needed
func (s *Storage) Adapter(ctx context.Context) (storage.Adapter, error) {
	return NewAdapter(s.dir)
}

// Adapter stores objects as files below a base directory
type Adapter struct {
	basePath string
}

// NewAdapter creates a new local filesystem adapter
func NewAdapter(basePath string) (*Adapter, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Adapter{basePath: basePath}, nil
}

func (a *Adapter) Type() string { return Type }

// fullPath maps p below the base directory, rejecting paths that escape it
func (a *Adapter) fullPath(operation, p string) (string, error) {
	cleaned, err := storage.CleanPath(p)
	if err != nil {
		return "", storage.WrapError(Type, operation, err)
	}
	return filepath.Join(a.basePath, filepath.FromSlash(cleaned)), nil
}

// Write copies r into a file, replacing any existing one
func (a *Adapter) Write(ctx context.Context, p string, r io.Reader) error {
	full, err := a.fullPath("write", p)
	if err != nil {
		return err
	}
	if err := writeFile(full, r); err != nil {
		return storage.WrapError(Type, "write", err)
	}
	return nil
}

// Read opens a file for reading
func (a *Adapter) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	full, err := a.fullPath("read", p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.NotFound(Type, "read", err)
		}
		return nil, storage.WrapError(Type, "read", err)
	}
	return f, nil
}

// Delete removes a file. A missing file is not an error.
func (a *Adapter) Delete(ctx context.Context, p string) error {
	full, err := a.fullPath("delete", p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return storage.WrapError(Type, "delete", err)
	}
	return nil
}

// List walks the base directory and returns files matching the pattern
func (a *Adapter) List(ctx context.Context, pattern string) ([]storage.FileInfo, error) {
	var files []storage.FileInfo

	err := filepath.WalkDir(a.basePath, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(a.basePath, full)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if !storage.MatchGlob(pattern, relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil // Skip files we can't stat
		}

		files = append(files, storage.FileInfo{
			Path:    relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, storage.WrapError(Type, "list", err)
	}

	// Sort by modification time (newest first)
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// Stat returns metadata about a file
func (a *Adapter) Stat(ctx context.Context, p string) (*storage.FileInfo, error) {
	full, err := a.fullPath("stat", p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.NotFound(Type, "stat", err)
		}
		return nil, storage.WrapError(Type, "stat", err)
	}

	return &storage.FileInfo{
		Path:    p,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Exists checks if a file exists
func (a *Adapter) Exists(ctx context.Context, p string) (bool, error) {
	full, err := a.fullPath("exists", p)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, storage.WrapError(Type, "exists", err)
	}
	return true, nil
}

// Close is a no-op for local adapter
func (a *Adapter) Close() error {
	return nil
}

func writeFile(dest string, r io.Reader) error {
	// Ensure destination directory exists
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest) // Clean up partial file
		return err
	}

	return f.Close()
}

// fileWrapper serves file:// URIs
type fileWrapper struct{}

func (fileWrapper) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	f, err := os.Open(filepath.FromSlash(u.Path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.NotFound(Type, "open", err)
		}
		return nil, storage.WrapError(Type, "open", err)
	}
	return f, nil
}

func (fileWrapper) Create(ctx context.Context, u *url.URL, r io.Reader) error {
	if err := writeFile(filepath.FromSlash(u.Path), r); err != nil {
		return storage.WrapError(Type, "create", err)
	}
	return nil
}
