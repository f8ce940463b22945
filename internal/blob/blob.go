// Package blob defines the raw-bytes store used for ingested documents.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSignedURLTTL is the lifetime of download URLs when none is configured.
const DefaultSignedURLTTL = time.Hour

// Store persists document bytes. Locations are opaque to callers.
type Store interface {
	// Put stores the bytes read from r and returns their location.
	Put(ctx context.Context, r io.Reader, suggestedName string) (string, error)

	// Get returns the bytes stored at location.
	Get(ctx context.Context, location string) ([]byte, error)

	// Delete removes the object and reports whether it existed.
	Delete(ctx context.Context, location string) (bool, error)

	// SignedURL returns a time-limited read URL for the object.
	SignedURL(ctx context.Context, location string, ttl time.Duration) (string, error)
}

// ObjectName builds the object key yyyy/MM/dd/<uuid>/<name> for a new upload.
func ObjectName(suggestedName string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(suggestedName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	return fmt.Sprintf("%s/%s/%s", now.UTC().Format("2006/01/02"), uuid.New().String(), name)
}

// Location is a parsed scheme://bucket/key handle.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

// String formats the location back into its handle form.
func (l Location) String() string {
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// ParseLocation splits a handle and checks its scheme.
func ParseLocation(location, scheme string) (Location, error) {
	prefix := scheme + "://"
	if !strings.HasPrefix(location, prefix) {
		return Location{}, fmt.Errorf("invalid %s location %q", scheme, location)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, prefix), "/")
	if !ok || bucket == "" || key == "" {
		return Location{}, fmt.Errorf("invalid %s location %q: missing bucket or object key", scheme, location)
	}
	return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
}
