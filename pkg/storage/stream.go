package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
)

// StreamWrapper opens objects addressed by URI for one scheme, so callers
// holding only an absolute URI (see Storage.GetAbsoluteURI) can read and
// write remote objects.
type StreamWrapper interface {
	Open(ctx context.Context, u *url.URL) (io.ReadCloser, error)
	Create(ctx context.Context, u *url.URL, r io.Reader) error
}

var (
	streamMu       sync.RWMutex
	streamWrappers = make(map[string]StreamWrapper)
)

// RegisterStreamWrapper makes w handle URIs with the given scheme for the
// life of the process. A later registration for the same scheme replaces
// the earlier one.
func RegisterStreamWrapper(scheme string, w StreamWrapper) {
	streamMu.Lock()
	defer streamMu.Unlock()
	streamWrappers[scheme] = w
}

// StreamWrapperFor returns the wrapper registered for scheme
func StreamWrapperFor(scheme string) (StreamWrapper, bool) {
	streamMu.RLock()
	defer streamMu.RUnlock()
	w, ok := streamWrappers[scheme]
	return w, ok
}

func resolveURI(uri string) (StreamWrapper, *url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid uri %q: %w", uri, err)
	}

	w, ok := StreamWrapperFor(u.Scheme)
	if !ok {
		return nil, nil, fmt.Errorf("no stream wrapper registered for scheme %q", u.Scheme)
	}

	return w, u, nil
}

// OpenURI opens the object at uri through its registered stream wrapper
func OpenURI(ctx context.Context, uri string) (io.ReadCloser, error) {
	w, u, err := resolveURI(uri)
	if err != nil {
		return nil, err
	}
	return w.Open(ctx, u)
}

// WriteURI stores the contents of r at uri through its registered stream wrapper
func WriteURI(ctx context.Context, uri string, r io.Reader) error {
	w, u, err := resolveURI(uri)
	if err != nil {
		return err
	}
	return w.Create(ctx, u, r)
}
