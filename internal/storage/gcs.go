package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
)

// GCSBackend stores objects in the Firebase project's bucket.
type GCSBackend struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewGCSBackend(ctx context.Context, app *firebase.App, bucketName string) (*GCSBackend, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("bucket %q: %w", bucketName, err)
	}

	return &GCSBackend{bucket: bucket, bucketName: bucketName}, nil
}

func (b *GCSBackend) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	w := b.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", path, err)
	}
	return b.durableURL(path), nil
}

func (b *GCSBackend) SignedURL(ctx context.Context, path string, ttl time.Duration, filename string) (string, error) {
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
		QueryParameters: url.Values{
			"response-content-disposition": {fmt.Sprintf("attachment; filename=%q", filename)},
		},
	}
	signed, err := b.bucket.SignedURL(path, opts)
	if err != nil {
		return "", fmt.Errorf("sign url for %s: %w", path, err)
	}
	return signed, nil
}

func (b *GCSBackend) Delete(ctx context.Context, path string) error {
	if err := b.bucket.Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %s: %w", path, err)
	}
	return nil
}

func (b *GCSBackend) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	it := b.bucket.Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		out = append(out, ObjectInfo{Path: attrs.Name, Created: attrs.Created})
	}
	return out, nil
}

func (b *GCSBackend) PathFromURL(u string) (string, bool) {
	prefix := fmt.Sprintf("https://storage.googleapis.com/%s/", b.bucketName)
	if !strings.HasPrefix(u, prefix) {
		return "", false
	}
	return strings.TrimPrefix(u, prefix), true
}

func (b *GCSBackend) durableURL(path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucketName, path)
}
