package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Store accepts binary uploads addressed by an object path and returns a
// durable retrieval URL. Failures are independent per object.
type Store interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
}

// GCSStore implements Store on a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a store for the given bucket. Credentials come from
// ADC, or from GCS_CREDENTIALS_JSON when set explicitly.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	var client *storage.Client
	var err error
	if credJSON := strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_JSON")); credJSON != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket}, nil
}

// Upload writes the object and returns its public URL.
func (s *GCSStore) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	wc := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer for %q: %w", objectName, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName), nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
