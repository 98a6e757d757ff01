package s3

import (
	"context"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rikoimade/elabftw/pkg/storage"
)

// streamWrapper serves s3://bucket/key URIs with one client
type streamWrapper struct {
	api      API
	uploader *manager.Uploader
}

// RegisterStreamWrapper makes api serve s3:// URIs for the rest of the process
func RegisterStreamWrapper(api API) {
	storage.RegisterStreamWrapper(Scheme, &streamWrapper{
		api:      api,
		uploader: newUploader(api),
	})
}

// splitURI returns the bucket and object key of u. The key is normalized
// the way the adapter builds keys, so s3://b//x.txt names object x.txt.
func splitURI(u *url.URL) (bucket, key string, err error) {
	key, err = storage.CleanPath(u.Path)
	if err != nil {
		return "", "", err
	}
	return u.Host, key, nil
}

func (w *streamWrapper) Open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket, key, err := splitURI(u)
	if err != nil {
		return nil, storage.WrapError(Type, "open", err)
	}
	out, err := w.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.NotFound(Type, "open", err)
		}
		return nil, storage.WrapError(Type, "open", err)
	}
	return out.Body, nil
}

func (w *streamWrapper) Create(ctx context.Context, u *url.URL, r io.Reader) error {
	bucket, key, err := splitURI(u)
	if err != nil {
		return storage.WrapError(Type, "create", err)
	}
	_, err = w.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return storage.WrapError(Type, "create", err)
	}
	return nil
}
