package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// signedURLValidity is how long a minted retrieval credential stays
// usable. Seven days is the V4 signing maximum.
const signedURLValidity = 7 * 24 * time.Hour

// Bucket is the storage backend the offloader writes through. The GCS
// implementation lives in gcs.go; tests substitute fakes.
type Bucket interface {
	// Write stores content under object with the given content type and
	// audit metadata.
	Write(ctx context.Context, object string, content []byte, contentType string, metadata map[string]string) error

	// SignedURL mints a time-bounded read credential for object.
	SignedURL(object string, expires time.Time) (string, error)
}

// Offloader pushes oversized report content to durable storage and
// mints signed retrieval URLs. Stored artifacts are never deleted by
// this system; retention belongs to the bucket's lifecycle policy.
type Offloader struct {
	bucket Bucket
	logger *slog.Logger
	now    func() time.Time
}

// NewOffloader creates an Offloader writing through bucket.
func NewOffloader(bucket Bucket, logger *slog.Logger) *Offloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Offloader{bucket: bucket, logger: logger, now: time.Now}
}

// Offload uploads content under a path derived from the originating
// query and returns a signed retrieval URL valid for seven days.
func (o *Offloader) Offload(ctx context.Context, content, query string) (string, error) {
	object := o.objectPath(query)

	metadata := map[string]string{
		"query":     query,
		"createdAt": o.now().UTC().Format(time.RFC3339),
	}
	if err := o.bucket.Write(ctx, object, []byte(content), "text/markdown", metadata); err != nil {
		o.logger.Error("report upload failed", "object", object, "error", err)
		return "", fmt.Errorf("uploading report: %w", err)
	}

	url, err := o.bucket.SignedURL(object, o.now().Add(signedURLValidity))
	if err != nil {
		o.logger.Error("signing report URL failed", "object", object, "error", err)
		return "", fmt.Errorf("signing report URL: %w", err)
	}

	o.logger.Info("report uploaded", "object", object, "bytes", len(content))
	return url, nil
}

// objectPath builds the storage path from a sanitized slug and a
// timestamp suffix so repeated queries never collide.
func (o *Offloader) objectPath(query string) string {
	return fmt.Sprintf("reports/%s-%d.md", Slug(query), o.now().Unix())
}
