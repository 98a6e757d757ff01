package s3

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/rikoimade/elabftw/pkg/storage"
)

// Adapter exposes one bucket and prefix as a storage.Adapter
type Adapter struct {
	api      API
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

// NewAdapter creates an adapter over api bound to bucket and prefix
func NewAdapter(api API, bucket, prefix string) *Adapter {
	return &Adapter{
		api:      api,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		uploader: newUploader(api),
	}
}

func newUploader(api manager.UploadAPIClient) *manager.Uploader {
	return manager.NewUploader(api, func(u *manager.Uploader) {
		u.PartSize = PartSize
	})
}

func (a *Adapter) Type() string { return Type }

// PartSize returns the multipart part size used for uploads
func (a *Adapter) PartSize() int64 { return a.uploader.PartSize }

func (a *Adapter) key(p string) string {
	return storage.PrefixKey(a.prefix, p)
}

// Write uploads r to S3, in parts for large bodies
func (a *Adapter) Write(ctx context.Context, p string, r io.Reader) error {
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(p)),
		Body:   r,
	})
	if err != nil {
		return storage.WrapError(Type, "upload", err)
	}
	return nil
}

// Read opens an object for reading
func (a *Adapter) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := a.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.NotFound(Type, "read", err)
		}
		return nil, storage.WrapError(Type, "read", err)
	}
	return out.Body, nil
}

// Delete removes an object from S3
func (a *Adapter) Delete(ctx context.Context, p string) error {
	_, err := a.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(p)),
	})
	if err != nil {
		return storage.WrapError(Type, "delete", err)
	}
	return nil
}

// List returns objects matching the pattern
func (a *Adapter) List(ctx context.Context, pattern string) ([]storage.FileInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(a.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(a.key(storage.GlobPrefix(pattern))),
	})

	var files []storage.FileInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storage.WrapError(Type, "list", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)

			// Skip folder placeholders
			if strings.HasSuffix(key, "/") {
				continue
			}

			relPath := storage.StripPrefix(a.prefix, key)
			if !storage.MatchGlob(pattern, relPath) {
				continue
			}

			files = append(files, storage.FileInfo{
				Path:    relPath,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	// Sort by modification time (newest first)
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// Stat returns metadata about an object
func (a *Adapter) Stat(ctx context.Context, p string) (*storage.FileInfo, error) {
	out, err := a.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.NotFound(Type, "stat", err)
		}
		return nil, storage.WrapError(Type, "stat", err)
	}

	return &storage.FileInfo{
		Path:    p,
		Size:    aws.ToInt64(out.ContentLength),
		ModTime: aws.ToTime(out.LastModified),
	}, nil
}

// Exists checks if an object exists
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

// Close is a no-op for S3
func (a *Adapter) Close() error {
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404
}
