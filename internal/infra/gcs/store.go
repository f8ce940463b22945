// Package gcs stores raw EDI documents in Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/edi-processor/internal/blob"
)

const (
	scheme        = "gs"
	uploadTimeout = 2 * time.Minute
)

// Store is a blob.Store backed by one GCS bucket.
// It assumes Application Default Credentials are configured.
type Store struct {
	client *storage.Client
	bucket string
	now    func() time.Time
}

// NewStore creates a storage client for bucket.
func NewStore(ctx context.Context, bucket string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs.NewStore: create storage client: %w", err)
	}
	return NewStoreWithClient(client, bucket), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *storage.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket, now: time.Now}
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Put implements blob.Store. Objects are named yyyy/MM/dd/<uuid>/<name>.
func (s *Store) Put(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	loc := blob.Location{Scheme: scheme, Bucket: s.bucket, Key: blob.ObjectName(suggestedName, s.now())}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(loc.Key).NewWriter(ctx)
	w.ContentType = "text/plain"
	w.Metadata = map[string]string{"original_name": suggestedName}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Put: copy content to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Put: finalize upload %s: %w", loc, err)
	}
	return loc.String(), nil
}

// Get implements blob.Store.
func (s *Store) Get(ctx context.Context, location string) ([]byte, error) {
	loc, err := blob.ParseLocation(location, scheme)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	rc, err := s.client.Bucket(loc.Bucket).Object(loc.Key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Get: reading object %s/%s: %w", loc.Bucket, loc.Key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Get: reading bytes: %w", err)
	}
	return data, nil
}

// Delete implements blob.Store.
func (s *Store) Delete(ctx context.Context, location string) (bool, error) {
	loc, err := blob.ParseLocation(location, scheme)
	if err != nil {
		return false, fmt.Errorf("Delete: %w", err)
	}

	err = s.client.Bucket(loc.Bucket).Object(loc.Key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Delete: %s: %w", location, err)
	}
	return true, nil
}

// SignedURL implements blob.Store with a V4 signed GET URL.
func (s *Store) SignedURL(ctx context.Context, location string, ttl time.Duration) (string, error) {
	loc, err := blob.ParseLocation(location, scheme)
	if err != nil {
		return "", fmt.Errorf("SignedURL: %w", err)
	}
	if ttl <= 0 {
		ttl = blob.DefaultSignedURLTTL
	}

	url, err := s.client.Bucket(loc.Bucket).SignedURL(loc.Key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: s.now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("SignedURL: signing %s: %w", location, err)
	}
	return url, nil
}

var _ blob.Store = (*Store)(nil)
