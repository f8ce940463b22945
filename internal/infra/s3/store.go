// Package s3 stores raw EDI documents in Amazon S3 or an S3-compatible endpoint.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dvloznov/edi-processor/internal/blob"
)

const (
	scheme      = "s3"
	contentType = "text/plain"
)

// API is the subset of the S3 client used by Store.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner defines the interface for presigning S3 download requests.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store is a blob.Store backed by one S3 bucket.
type Store struct {
	api       API
	presigner Presigner
	bucket    string
	now       func() time.Time
}

// Options configures NewStore.
type Options struct {
	Bucket string
	Region string

	// Endpoint, when set, points the client at an S3-compatible service such as
	// localstack (http://localhost:4566) and switches to path-style addressing.
	Endpoint string
}

// NewStore loads the default AWS configuration and builds the client.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("s3.NewStore: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewStoreWithClient(client, s3.NewPresignClient(client), opts.Bucket), nil
}

// NewStoreWithClient wraps existing clients.
func NewStoreWithClient(api API, presigner Presigner, bucket string) *Store {
	return &Store{api: api, presigner: presigner, bucket: bucket, now: time.Now}
}

// Put implements blob.Store. The content is buffered so the request body is seekable.
func (s *Store) Put(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("Put: reading content: %w", err)
	}
	loc := blob.Location{Scheme: scheme, Bucket: s.bucket, Key: blob.ObjectName(suggestedName, s.now())}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(loc.Bucket),
		Key:           aws.String(loc.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		Metadata:      map[string]string{"original_name": suggestedName},
	})
	if err != nil {
		return "", fmt.Errorf("Put: uploading %s: %w", loc, err)
	}
	return loc.String(), nil
}

// Get implements blob.Store.
func (s *Store) Get(ctx context.Context, location string) ([]byte, error) {
	loc, err := blob.ParseLocation(location, scheme)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("Get: reading object %s: %w", location, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("Get: reading bytes: %w", err)
	}
	return data, nil
}

// Delete implements blob.Store. S3 deletes are idempotent, so existence is
// checked with HeadObject first.
func (s *Store) Delete(ctx context.Context, location string) (bool, error) {
	loc, err := blob.ParseLocation(location, scheme)
	if err != nil {
		return false, fmt.Errorf("Delete: %w", err)
	}

	_, err = s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("Delete: head %s: %w", location, err)
	}

	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	}); err != nil {
		return false, fmt.Errorf("Delete: %s: %w", location, err)
	}
	return true, nil
}

// SignedURL implements blob.Store with a presigned GET request.
func (s *Store) SignedURL(ctx context.Context, location string, ttl time.Duration) (string, error) {
	loc, err := blob.ParseLocation(location, scheme)
	if err != nil {
		return "", fmt.Errorf("SignedURL: %w", err)
	}
	if ttl <= 0 {
		ttl = blob.DefaultSignedURLTTL
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	}, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return "", fmt.Errorf("SignedURL: presigning %s: %w", location, err)
	}
	return req.URL, nil
}

var _ blob.Store = (*Store)(nil)
