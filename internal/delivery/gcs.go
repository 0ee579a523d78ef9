package delivery

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
)

// GCSBucket implements Bucket on a Google Cloud Storage bucket.
type GCSBucket struct {
	bucket *storage.BucketHandle
}

// NewGCSBucket opens a client against the named bucket using ambient
// credentials (GOOGLE_APPLICATION_CREDENTIALS or workload identity).
func NewGCSBucket(ctx context.Context, name string) (*GCSBucket, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSBucket{bucket: client.Bucket(name)}, nil
}

// Write uploads content to object in one shot.
func (b *GCSBucket) Write(ctx context.Context, object string, content []byte, contentType string, metadata map[string]string) error {
	w := b.bucket.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata

	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing object %s: %w", object, err)
	}
	return nil
}

// SignedURL mints a V4 signed GET URL for object.
func (b *GCSBucket) SignedURL(object string, expires time.Time) (string, error) {
	url, err := b.bucket.SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: expires,
	})
	if err != nil {
		return "", fmt.Errorf("signing URL for %s: %w", object, err)
	}
	return url, nil
}

// UnavailableBucket is the fallback Bucket used when storage could not
// be initialized at startup. Every operation fails with the recorded
// cause, which the dispatcher converts into upload-failed markers:
// a storage outage degrades delivery, it never stops the server.
type UnavailableBucket struct {
	Err error
}

func (b UnavailableBucket) Write(context.Context, string, []byte, string, map[string]string) error {
	return fmt.Errorf("storage unavailable: %w", b.Err)
}

func (b UnavailableBucket) SignedURL(string, time.Time) (string, error) {
	return "", fmt.Errorf("storage unavailable: %w", b.Err)
}
