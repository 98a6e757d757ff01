package backblaze

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/kurin/blazer/b2"
	"github.com/rs/zerolog"

	"github.com/rikoimade/elabftw/pkg/settings"
	"github.com/rikoimade/elabftw/pkg/storage"
)

const (
	Type   = "b2"
	Scheme = "b2"
)

func init() {
	storage.RegisterStorage(Type, func(p settings.Provider, logger zerolog.Logger) (storage.Storage, error) {
		return New(ConfigFromSettings(p), logger), nil
	})
}

// Storage is an upload storage backed by a Backblaze B2 bucket
type Storage struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a new B2 storage. No connection is made until Adapter is called.
func New(cfg Config, logger zerolog.Logger) *Storage {
	logger.Debug().
		Str("bucket", cfg.BucketName).
		Str("prefix", cfg.PathPrefix).
		Msg("configured b2 storage")
	return &Storage{cfg: cfg, logger: logger}
}

func (s *Storage) Type() string { return Type }

func (s *Storage) GetPath(relativePath string) string {
	return storage.JoinPath(s.cfg.PathPrefix, relativePath)
}

func (s *Storage) GetAbsoluteURI(path string) string {
	return Scheme + "://" + s.cfg.BucketName + "/" + s.GetPath(path)
}

// Adapter authorizes against B2, registers the b2:// stream wrapper and
// returns an adapter bound to the bucket and prefix
func (s *Storage) Adapter(ctx context.Context) (storage.Adapter, error) {
	client, err := b2.NewClient(ctx, s.cfg.AccountID, s.cfg.ApplicationKey)
	if err != nil {
		return nil, storage.WrapError(Type, "init", errors.Join(storage.ErrAuthFailed, err))
	}

	bucket, err := client.Bucket(ctx, s.cfg.BucketName)
	if err != nil {
		return nil, storage.WrapError(Type, "get bucket", err)
	}

	storage.RegisterStreamWrapper(Scheme, &streamWrapper{client: client})

	return &Adapter{
		bucket: bucket,
		prefix: strings.Trim(s.cfg.PathPrefix, "/"),
	}, nil
}

// Adapter exposes one B2 bucket and prefix as a storage.Adapter
type Adapter struct {
	bucket *b2.Bucket
	prefix string
}

func (a *Adapter) Type() string { return Type }

func (a *Adapter) key(p string) string {
	return storage.PrefixKey(a.prefix, p)
}

// Write uploads r to B2
func (a *Adapter) Write(ctx context.Context, p string, r io.Reader) error {
	return storage.WriteWithRetry(ctx, storage.DefaultRetryConfig(), r, func(r io.Reader) error {
		return writeObject(ctx, a.bucket.Object(a.key(p)), r)
	})
}

// Read opens an object for reading
func (a *Adapter) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	obj := a.bucket.Object(a.key(p))

	// The reader only fails on first read, so check existence up front
	if _, err := obj.Attrs(ctx); err != nil {
		return nil, wrapErr("read", err)
	}

	return obj.NewReader(ctx), nil
}

// Delete removes a file from B2. A missing file is not an error.
func (a *Adapter) Delete(ctx context.Context, p string) error {
	if err := a.bucket.Object(a.key(p)).Delete(ctx); err != nil && !b2.IsNotExist(err) {
		return wrapErr("delete", err)
	}
	return nil
}

// List returns objects matching pattern
func (a *Adapter) List(ctx context.Context, pattern string) ([]storage.FileInfo, error) {
	var files []storage.FileInfo

	iter := a.bucket.List(ctx, b2.ListPrefix(a.key(storage.GlobPrefix(pattern))))
	for iter.Next() {
		obj := iter.Object()

		relPath := storage.StripPrefix(a.prefix, obj.Name())
		if !storage.MatchGlob(pattern, relPath) {
			continue
		}

		attrs, err := obj.Attrs(ctx)
		if err != nil {
			continue
		}

		files = append(files, storage.FileInfo{
			Path:    relPath,
			Size:    attrs.Size,
			ModTime: attrs.UploadTimestamp,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, storage.WrapError(Type, "list", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// Stat returns file metadata
func (a *Adapter) Stat(ctx context.Context, p string) (*storage.FileInfo, error) {
	attrs, err := a.bucket.Object(a.key(p)).Attrs(ctx)
	if err != nil {
		return nil, wrapErr("stat", err)
	}

	return &storage.FileInfo{
		Path:    p,
		Size:    attrs.Size,
		ModTime: attrs.UploadTimestamp,
	}, nil
}

// Exists checks if object exists
func (a *Adapter) Exists(ctx context.Context, p string) (bool, error) {
	_, err := a.Stat(ctx, p)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close releases resources
func (a *Adapter) Close() error {
	return nil
}

func writeObject(ctx context.Context, obj *b2.Object, r io.Reader) error {
	writer := obj.NewWriter(ctx)

	if _, err := io.Copy(writer, r); err != nil {
		writer.Close()
		return storage.WrapError(Type, "upload", err)
	}

	if err := writer.Close(); err != nil {
		return storage.WrapError(Type, "upload", err)
	}

	return nil
}

func wrapErr(operation string, err error) error {
	if b2.IsNotExist(err) {
		return storage.NotFound(Type, operation, err)
	}
	return storage.WrapError(Type, operation, err)
}

// streamWrapper serves b2://bucket/key URIs
type streamWrapper struct {
	client *b2.Client
}

func (w *streamWrapper) object(ctx context.Context, u *url.URL) (*b2.Object, error) {
	bucket, err := w.client.Bucket(ctx, u.Host)
	if err != nil {
		return nil, storage.WrapError(Type, "get bucket", err)
	}
	return bucket.Object(strings.TrimPrefix(u.Path, "/")), nil
}

func (w *streamWrapper) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	obj, err := w.object(ctx, u)
	if err != nil {
		return nil, err
	}
	if _, err := obj.Attrs(ctx); err != nil {
		return nil, wrapErr("open", err)
	}
	return obj.NewReader(ctx), nil
}

func (w *streamWrapper) Create(ctx context.Context, u *url.URL, r io.Reader) error {
	obj, err := w.object(ctx, u)
	if err != nil {
		return err
	}
	return writeObject(ctx, obj, r)
}
