package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/oklog/ulid/v2"
)

const (
	defaultMaxUploadSize = int64(5 << 20)
	imageCacheControl    = "public, max-age=86400"
)

var (
	errInvalidBucket      = errors.New("storage: bucket name is required")
	errContentTypeMissing = errors.New("storage: content type is required for uploads")
	errContentTypeDenied  = errors.New("storage: content type not allowed")

	// ErrUploadTooLarge is returned when the payload exceeds the configured limit.
	ErrUploadTooLarge = errors.New("storage: upload exceeds size limit")
)

// Uploader writes product images to a Cloud Storage bucket and hands back
// the public URL the catalog stores.
type Uploader struct {
	bucket       string
	publicPrefix string
	maxSize      int64
	allowedTypes []string
	newID        func() string

	newWriter func(ctx context.Context, object, contentType string) io.WriteCloser
}

// UploaderOption customises Uploader behaviour.
type UploaderOption func(*Uploader)

// WithMaxUploadSize overrides the per-object size limit in bytes.
func WithMaxUploadSize(limit int64) UploaderOption {
	return func(u *Uploader) {
		if limit > 0 {
			u.maxSize = limit
		}
	}
}

// WithAllowedContentTypes restricts accepted content types. Entries support
// the same wildcard forms as "image/*".
func WithAllowedContentTypes(types ...string) UploaderOption {
	return func(u *Uploader) {
		if len(types) > 0 {
			u.allowedTypes = types
		}
	}
}

// WithIDGenerator overrides the upload id generator.
func WithIDGenerator(gen func() string) UploaderOption {
	return func(u *Uploader) {
		if gen != nil {
			u.newID = gen
		}
	}
}

// NewUploader constructs an Uploader backed by the provided Cloud Storage client.
func NewUploader(client *gcs.Client, bucket, publicPrefix string, opts ...UploaderOption) (*Uploader, error) {
	if client == nil {
		return nil, errors.New("storage uploader: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}

	uploader := &Uploader{
		bucket:       bucket,
		publicPrefix: strings.TrimRight(strings.TrimSpace(publicPrefix), "/"),
		maxSize:      defaultMaxUploadSize,
		allowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
		newID: func() string {
			return strings.ToLower(ulid.Make().String())
		},
		newWriter: func(ctx context.Context, object, contentType string) io.WriteCloser {
			w := client.Bucket(bucket).Object(object).NewWriter(ctx)
			w.ContentType = contentType
			w.CacheControl = imageCacheControl
			return w
		},
	}
	if uploader.publicPrefix == "" {
		uploader.publicPrefix = "https://storage.googleapis.com"
	}
	for _, opt := range opts {
		if opt != nil {
			opt(uploader)
		}
	}
	return uploader, nil
}

// Upload streams the payload into the bucket and returns the public URL.
func (u *Uploader) Upload(ctx context.Context, fileName, contentType string, body io.Reader) (string, error) {
	if u == nil {
		return "", errors.New("storage uploader: not initialised")
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return "", errContentTypeMissing
	}
	if !contentTypeAllowed(contentType, u.allowedTypes) {
		return "", errContentTypeDenied
	}

	object, err := BuildProductImagePath(u.newID(), fileName)
	if err != nil {
		return "", err
	}

	writer := u.newWriter(ctx, object, contentType)
	// Read one byte past the limit so oversized payloads are detected
	// without buffering the whole body.
	written, err := io.Copy(writer, io.LimitReader(body, u.maxSize+1))
	if err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage: write object: %w", err)
	}
	if written > u.maxSize {
		_ = writer.Close()
		return "", ErrUploadTooLarge
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage: finalise object: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", u.publicPrefix, u.bucket, object), nil
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			return true
		}
		if strings.HasSuffix(candidate, "/*") {
			prefix := strings.TrimSuffix(candidate, "*")
			if strings.HasPrefix(normalized, strings.TrimSuffix(prefix, "/")) {
				return true
			}
			continue
		}
		if normalized == candidate {
			return true
		}
	}
	return false
}
