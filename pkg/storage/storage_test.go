package storage_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rikoimade/elabftw/pkg/settings"
	"github.com/rikoimade/elabftw/pkg/storage"
)

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "uploads", storage.JoinPath("uploads", ""))
	assert.Equal(t, "uploads/2024/img.png", storage.JoinPath("uploads", "2024/img.png"))
	assert.Equal(t, "", storage.JoinPath("", ""))
	assert.Equal(t, "/a", storage.JoinPath("", "a"))
}

func TestPrefixKey(t *testing.T) {
	tests := []struct {
		prefix, path, expected string
	}{
		{"uploads", "a.txt", "uploads/a.txt"},
		{"uploads/", "/a.txt", "uploads/a.txt"},
		{"", "a.txt", "a.txt"},
		{"", "/a.txt", "a.txt"},
		{"uploads", "", "uploads/"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q+%q", tt.prefix, tt.path), func(t *testing.T) {
			assert.Equal(t, tt.expected, storage.PrefixKey(tt.prefix, tt.path))
		})
	}
}

func TestStripPrefix(t *testing.T) {
	assert.Equal(t, "2024/a.png", storage.StripPrefix("uploads", "uploads/2024/a.png"))
	assert.Equal(t, "2024/a.png", storage.StripPrefix("/uploads/", "uploads/2024/a.png"))
	assert.Equal(t, "a.png", storage.StripPrefix("", "/a.png"))
	assert.Equal(t, "2024/a.png", storage.StripPrefix("/srv/uploads", "/srv/uploads/2024/a.png"))
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"2024/img.png", "2024/img.png"},
		{"/x.txt", "x.txt"},
		{"uploads//x.txt", "uploads/x.txt"},
		{"./a/./b", "a/b"},
		{"a/../b", "b"},
		{"", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		got, err := storage.CleanPath(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.expected, got, tt.in)
	}

	for _, bad := range []string{"..", "../escaped.txt", "a/../../b", "/../etc/passwd"} {
		_, err := storage.CleanPath(bad)
		assert.ErrorIs(t, err, storage.ErrInvalidPath, bad)
	}
}

func TestGlob(t *testing.T) {
	assert.Equal(t, "2024/", storage.GlobPrefix("2024/*.png"))
	assert.Equal(t, "img", storage.GlobPrefix("img?.png"))
	assert.Equal(t, "exact.txt", storage.GlobPrefix("exact.txt"))

	assert.True(t, storage.MatchGlob("", "deep/nested/file"))
	assert.True(t, storage.MatchGlob("*", "deep/nested/file"))
	assert.True(t, storage.MatchGlob("2024/*.png", "2024/a.png"))
	assert.False(t, storage.MatchGlob("2024/*.png", "2024/sub/a.png"))
	assert.False(t, storage.MatchGlob("*.png", "a.txt"))
	assert.True(t, storage.MatchGlob("exact.txt", "exact.txt"))
	assert.False(t, storage.MatchGlob("[", "x"), "bad pattern matches nothing")
}

func TestErrors(t *testing.T) {
	cause := errors.New("sdk said no")

	wrapped := storage.WrapError("s3", "upload", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "upload (s3): sdk said no", wrapped.Error())

	nf := storage.NotFound("s3", "stat", cause)
	assert.ErrorIs(t, nf, storage.ErrNotFound)
	assert.ErrorIs(t, nf, cause)

	assert.True(t, storage.IsRetryable(storage.WrapError("b2", "upload", storage.ErrTimeout)))
	assert.False(t, storage.IsRetryable(cause))
	assert.False(t, storage.IsRetryable(context.Canceled))
	assert.True(t, storage.IsCritical(storage.ErrAuthFailed))
	assert.False(t, storage.IsCritical(storage.ErrConnFailed))
}

func TestWithRetry(t *testing.T) {
	cfg := storage.RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}
	ctx := context.Background()

	t.Run("retries_retryable_errors", func(t *testing.T) {
		calls := 0
		err := storage.WithRetry(ctx, cfg, func() error {
			calls++
			if calls < 3 {
				return storage.ErrConnFailed
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives_up_after_max_attempts", func(t *testing.T) {
		calls := 0
		err := storage.WithRetry(ctx, cfg, func() error {
			calls++
			return storage.ErrTimeout
		})
		assert.ErrorIs(t, err, storage.ErrTimeout)
		assert.Equal(t, 3, calls)
	})

	t.Run("critical_errors_stop_immediately", func(t *testing.T) {
		calls := 0
		err := storage.WithRetry(ctx, cfg, func() error {
			calls++
			return storage.ErrAuthFailed
		})
		assert.ErrorIs(t, err, storage.ErrAuthFailed)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled_context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		slow := cfg
		slow.InitialDelay = time.Hour

		err := storage.WithRetry(cctx, slow, func() error { return storage.ErrConnFailed })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWriteWithRetry(t *testing.T) {
	cfg := storage.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
	ctx := context.Background()

	t.Run("rewinds_seekable_reader", func(t *testing.T) {
		var seen []string
		err := storage.WriteWithRetry(ctx, cfg, strings.NewReader("payload"), func(r io.Reader) error {
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			seen = append(seen, string(data))
			if len(seen) == 1 {
				return storage.ErrConnFailed
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"payload", "payload"}, seen)
	})

	t.Run("single_attempt_for_streams", func(t *testing.T) {
		calls := 0
		pr, pw := io.Pipe()
		go func() {
			pw.Write([]byte("stream"))
			pw.Close()
		}()

		err := storage.WriteWithRetry(ctx, cfg, pr, func(r io.Reader) error {
			calls++
			io.Copy(io.Discard, r)
			return storage.ErrConnFailed
		})
		assert.ErrorIs(t, err, storage.ErrConnFailed)
		assert.Equal(t, 1, calls)
	})
}

type memWrapper struct {
	objects map[string]string
}

func (m *memWrapper) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	v, ok := m.objects[u.Host+u.Path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

func (m *memWrapper) Create(ctx context.Context, u *url.URL, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[u.Host+u.Path] = string(data)
	return nil
}

func TestStreamWrappers(t *testing.T) {
	ctx := context.Background()

	first := &memWrapper{objects: map[string]string{}}
	storage.RegisterStreamWrapper("memtest", first)

	require.NoError(t, storage.WriteURI(ctx, "memtest://bucket/a/b.txt", strings.NewReader("hello")))
	assert.Equal(t, "hello", first.objects["bucket/a/b.txt"])

	r, err := storage.OpenURI(ctx, "memtest://bucket/a/b.txt")
	require.NoError(t, err)
	data, _ := io.ReadAll(r)
	assert.Equal(t, "hello", string(data))

	t.Run("later_registration_replaces", func(t *testing.T) {
		second := &memWrapper{objects: map[string]string{}}
		storage.RegisterStreamWrapper("memtest", second)

		_, err := storage.OpenURI(ctx, "memtest://bucket/a/b.txt")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		w, ok := storage.StreamWrapperFor("memtest")
		require.True(t, ok)
		assert.Same(t, second, w)
	})

	t.Run("unknown_scheme", func(t *testing.T) {
		_, err := storage.OpenURI(ctx, "nowhere://x/y")
		assert.ErrorContains(t, err, "no stream wrapper")

		err = storage.WriteURI(ctx, "nowhere://x/y", strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("invalid_uri", func(t *testing.T) {
		_, err := storage.OpenURI(ctx, "://bad")
		assert.Error(t, err)
	})
}

func TestFactory(t *testing.T) {
	var seen settings.Provider
	storage.RegisterStorage("factorytest", func(p settings.Provider, logger zerolog.Logger) (storage.Storage, error) {
		seen = p
		return nil, nil
	})

	f := storage.NewFactory(zerolog.Nop())

	t.Run("dispatches_on_uploads_storage", func(t *testing.T) {
		p := settings.Map{"uploads_storage": "FactoryTest"}
		_, err := f.Create(p)
		require.NoError(t, err)
		assert.Equal(t, p, seen)
	})

	t.Run("unknown_type", func(t *testing.T) {
		_, err := f.Create(settings.Map{"uploads_storage": "floppy"})
		assert.ErrorIs(t, err, storage.ErrInvalidConfig)
	})

	t.Run("resolve_type", func(t *testing.T) {
		assert.Equal(t, "local", storage.ResolveType(settings.Map{}))
		assert.Equal(t, "local", storage.ResolveType(settings.Map{"uploads_storage": "1"}))
		assert.Equal(t, "s3", storage.ResolveType(settings.Map{"uploads_storage": "2"}))
		assert.Equal(t, "sftp", storage.ResolveType(settings.Map{"uploads_storage": "SFTP"}))
	})
}
