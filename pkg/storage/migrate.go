package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result represents outcome of copying one object
type Result struct {
	Path     string
	Size     int64
	Success  bool
	Error    error
	Duration time.Duration
}

// MigrateOptions controls a migration run
type MigrateOptions struct {
	Concurrency  int  // default: 4
	SkipExisting bool // leave objects already present in the destination alone
}

// Migrator copies objects between adapters in parallel
type Migrator struct {
	logger zerolog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(logger zerolog.Logger) *Migrator {
	return &Migrator{logger: logger}
}

// Migrate copies every object of src matching pattern to the same path in dst.
// A failed object does not stop the others; the returned error is only set
// when the source listing fails or ctx is done.
func (m *Migrator) Migrate(ctx context.Context, src, dst Adapter, pattern string, opts MigrateOptions) ([]Result, error) {
	files, err := src.List(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list source objects: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	m.logger.Info().
		Str("from", src.Type()).
		Str("to", dst.Type()).
		Int("objects", len(files)).
		Int("concurrency", concurrency).
		Msg("starting migration")

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]Result, len(files))
	for i, file := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				results[i] = Result{Path: file.Path, Size: file.Size, Error: err}
				return nil
			}
			results[i] = m.copyOne(gCtx, src, dst, file, opts)
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	return results, nil
}

func (m *Migrator) copyOne(ctx context.Context, src, dst Adapter, file FileInfo, opts MigrateOptions) Result {
	start := time.Now()
	result := Result{Path: file.Path, Size: file.Size}

	if opts.SkipExisting {
		exists, err := dst.Exists(ctx, file.Path)
		if err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result
		}
		if exists {
			m.logger.Debug().Str("file", file.Path).Msg("already present, skipping")
			result.Success = true
			result.Duration = time.Since(start)
			return result
		}
	}

	err := copyObject(ctx, src, dst, file.Path)
	result.Duration = time.Since(start)
	result.Success = err == nil
	result.Error = err

	if err != nil {
		m.logger.Error().
			Err(err).
			Str("file", file.Path).
			Dur("duration", result.Duration).
			Msg("copy failed")
	} else {
		m.logger.Debug().
			Str("file", file.Path).
			Int64("size", file.Size).
			Dur("duration", result.Duration).
			Msg("copy succeeded")
	}

	return result
}

func copyObject(ctx context.Context, src, dst Adapter, p string) error {
	r, err := src.Read(ctx, p)
	if err != nil {
		return err
	}
	defer r.Close()

	return dst.Write(ctx, p, r)
}
