// Package command implements the operator commands of the elabstore CLI
// on top of a storage adapter.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/rikoimade/elabftw/pkg/storage"
)

// Locate prints the storage path and absolute URI of a relative upload path
func Locate(st storage.Storage, relativePath string, w io.Writer) error {
	_, err := fmt.Fprintf(w, "path\t%s\nuri\t%s\n", st.GetPath(relativePath), st.GetAbsoluteURI(relativePath))
	return err
}

// Put uploads a local file to dest
func Put(ctx context.Context, a storage.Adapter, sourcePath, dest string, logger zerolog.Logger) error {
	f, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	start := time.Now()
	if err := a.Write(ctx, dest, f); err != nil {
		return err
	}

	logger.Info().
		Str("storage", a.Type()).
		Str("file", dest).
		Dur("duration", time.Since(start)).
		Msg("upload succeeded")
	return nil
}

// Get copies the object at p to w
func Get(ctx context.Context, a storage.Adapter, p string, w io.Writer) error {
	r, err := a.Read(ctx, p)
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("failed to read %s: %w", p, err)
	}
	return nil
}

// CatURI copies the object at an absolute URI to w using the registered stream wrappers
func CatURI(ctx context.Context, uri string, w io.Writer) error {
	r, err := storage.OpenURI(ctx, uri)
	if err != nil {
		return err
	}
	defer r.Close()

	_, err = io.Copy(w, r)
	return err
}

// List prints objects matching pattern, newest first
func List(ctx context.Context, a storage.Adapter, pattern string, w io.Writer) error {
	files, err := a.List(ctx, pattern)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", f.Size, f.ModTime.UTC().Format(time.RFC3339), f.Path)
	}
	return tw.Flush()
}

// Stat prints metadata about the object at p
func Stat(ctx context.Context, a storage.Adapter, p string, w io.Writer) error {
	info, err := a.Stat(ctx, p)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "path\t%s\nsize\t%d\nmodified\t%s\n", info.Path, info.Size, info.ModTime.UTC().Format(time.RFC3339))
	return err
}

// Remove deletes every path, continuing past failures. It returns the
// first error encountered.
func Remove(ctx context.Context, a storage.Adapter, paths []string, logger zerolog.Logger) error {
	var firstErr error
	for _, p := range paths {
		if err := a.Delete(ctx, p); err != nil {
			logger.Error().Err(err).Str("file", p).Msg("delete failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Info().Str("file", p).Msg("deleted")
	}
	return firstErr
}

// Migrate copies objects matching pattern from src to dst and reports failures
func Migrate(ctx context.Context, src, dst storage.Adapter, pattern string, opts storage.MigrateOptions, logger zerolog.Logger) error {
	results, err := storage.NewMigrator(logger).Migrate(ctx, src, dst, pattern, opts)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}

	logger.Info().
		Int("copied", len(results)-failed).
		Int("failed", failed).
		Msg("migration finished")

	if failed > 0 {
		return fmt.Errorf("%d of %d objects failed to migrate", failed, len(results))
	}
	return nil
}
