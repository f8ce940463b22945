// Package inmemory provides process-local blob and record stores. Data is lost on
// restart; use it for tests and single-process local runs.
package inmemory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dvloznov/edi-processor/internal/blob"
)

const scheme = "mem"

// BlobStore keeps objects in a map keyed by object name.
type BlobStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
	now     func() time.Time
}

// NewBlobStore creates an empty store. Locations look like mem://<bucket>/<key>.
func NewBlobStore(bucket string) *BlobStore {
	if bucket == "" {
		bucket = "local"
	}
	return &BlobStore{
		bucket:  bucket,
		objects: make(map[string][]byte),
		now:     time.Now,
	}
}

// Put implements blob.Store.
func (s *BlobStore) Put(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("Put: reading content: %w", err)
	}
	loc := blob.Location{Scheme: scheme, Bucket: s.bucket, Key: blob.ObjectName(suggestedName, s.now())}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[loc.Key] = data
	return loc.String(), nil
}

// Get implements blob.Store.
func (s *BlobStore) Get(ctx context.Context, location string) ([]byte, error) {
	loc, err := s.parse(location)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[loc.Key]
	if !ok {
		return nil, fmt.Errorf("Get: object %s not found", location)
	}
	return bytes.Clone(data), nil
}

// Delete implements blob.Store.
func (s *BlobStore) Delete(ctx context.Context, location string) (bool, error) {
	loc, err := s.parse(location)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[loc.Key]; !ok {
		return false, nil
	}
	delete(s.objects, loc.Key)
	return true, nil
}

// SignedURL implements blob.Store. The URL is not fetchable; it carries the expiry
// so callers can exercise the download flow locally.
func (s *BlobStore) SignedURL(ctx context.Context, location string, ttl time.Duration) (string, error) {
	loc, err := s.parse(location)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = blob.DefaultSignedURLTTL
	}

	s.mu.RLock()
	_, ok := s.objects[loc.Key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("SignedURL: object %s not found", location)
	}
	return fmt.Sprintf("%s?expires=%d", loc.String(), s.now().Add(ttl).Unix()), nil
}

// Len returns the number of stored objects.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *BlobStore) parse(location string) (blob.Location, error) {
	loc, err := blob.ParseLocation(location, scheme)
	if err != nil {
		return blob.Location{}, err
	}
	if loc.Bucket != s.bucket {
		return blob.Location{}, fmt.Errorf("location %s belongs to bucket %q, not %q", location, loc.Bucket, s.bucket)
	}
	return loc, nil
}

var _ blob.Store = (*BlobStore)(nil)
