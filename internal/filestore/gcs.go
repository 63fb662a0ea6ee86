package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// GCSStore keeps uploads in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	now    func() time.Time
}

// NewGCSStore uses an existing client; the caller owns and closes it.
func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket, now: time.Now}
}

// Put uploads data and returns its gs:// URI.
func (s *GCSStore) Put(ctx context.Context, userID, filename, contentType string, data []byte) (Handle, error) {
	name, err := objectName(userID, filename, s.now(), uuid.New())
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"user_id":           userID,
		"original_filename": filename,
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write GCS object: %w", err)
	}
	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return Handle(fmt.Sprintf("gs://%s/%s", s.bucket, name)), nil
}

// Get downloads an object previously stored by Put.
func (s *GCSStore) Get(ctx context.Context, userID string, h Handle) ([]byte, error) {
	bucket, name, err := ParseGCSURI(string(h))
	if err != nil {
		return nil, err
	}
	if bucket != s.bucket {
		return nil, fmt.Errorf("%w: unexpected bucket %q", ErrInvalidHandle, bucket)
	}
	if err := checkOwner(userID, name); err != nil {
		return nil, err
	}

	rc, err := s.client.Bucket(bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

// ParseGCSURI splits gs://bucket/object into its parts.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidHandle, uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w (no object path): %s", ErrInvalidHandle, uri)
	}
	return parts[0], parts[1], nil
}
