package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/rikoimade/elabftw/pkg/settings"
	"github.com/rikoimade/elabftw/pkg/storage"
)

// Type is the storage type name
const Type = "s3"

// Scheme is the URI scheme of S3 locators
const Scheme = "s3"

func init() {
	storage.RegisterStorage(Type, func(p settings.Provider, logger zerolog.Logger) (storage.Storage, error) {
		return New(ConfigFromSettings(p), logger), nil
	})
}

// Storage is an upload storage backed by an S3-compatible bucket.
// It holds no connection; every Client and Adapter call builds a fresh one.
type Storage struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a new S3 storage
func New(cfg Config, logger zerolog.Logger) *Storage {
	logger.Debug().
		Str("bucket", cfg.BucketName).
		Str("prefix", cfg.PathPrefix).
		Str("region", cfg.Region).
		Str("endpoint", cfg.Endpoint).
		Bool("path_style", cfg.UsePathStyleEndpoint).
		Bool("verify_cert", cfg.VerifyCert).
		Msg("configured s3 storage")

	return &Storage{cfg: cfg, logger: logger}
}

func (s *Storage) Type() string   { return Type }
func (s *Storage) Config() Config { return s.cfg }

// GetPath returns the object path of relativePath under the configured prefix
func (s *Storage) GetPath(relativePath string) string {
	return storage.JoinPath(s.cfg.PathPrefix, relativePath)
}

// GetAbsoluteURI returns the s3://bucket/path locator of path
func (s *Storage) GetAbsoluteURI(path string) string {
	return Scheme + "://" + s.cfg.BucketName + "/" + s.GetPath(path)
}

// Client builds a new S3 client from the config
func (s *Storage) Client(ctx context.Context) (*s3.Client, error) {
	client, err := NewClient(ctx, s.cfg.ClientOptions())
	if err != nil {
		return nil, storage.WrapError(Type, "init", err)
	}
	return client, nil
}

// Adapter builds a client, registers it as the s3:// stream wrapper and
// returns an adapter bound to the bucket and prefix
func (s *Storage) Adapter(ctx context.Context) (storage.Adapter, error) {
	client, err := s.Client(ctx)
	if err != nil {
		return nil, err
	}

	RegisterStreamWrapper(client)
	s.logger.Debug().Msg("registered s3 stream wrapper")

	return NewAdapter(client, s.cfg.BucketName, s.cfg.PathPrefix), nil
}
