package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	meta    map[string]map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.meta[key] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresigner struct {
	expires time.Duration
	err     error
}

func (p *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if p.err != nil {
		return nil, p.err
	}
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	p.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://" + aws.ToString(in.Bucket) + ".s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc"}, nil
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	presigner := &fakePresigner{}
	s := NewStoreWithClient(api, presigner, "edi-inbound")

	loc, err := s.Put(ctx, strings.NewReader("UNB+UNOC:3'"), "orders.edifact")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc, "s3://edi-inbound/"))
	assert.True(t, strings.HasSuffix(loc, "/orders.edifact"))

	data, err := s.Get(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "UNB+UNOC:3'", string(data))

	url, err := s.SignedURL(ctx, loc, 0)
	require.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Signature")
	assert.Equal(t, time.Hour, presigner.expires, "zero ttl falls back to the default")

	_, err = s.SignedURL(ctx, loc, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, presigner.expires)

	deleted, err := s.Delete(ctx, loc)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, loc)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.Get(ctx, loc)
	var noSuchKey *types.NoSuchKey
	assert.True(t, errors.As(err, &noSuchKey))
}

func TestStore_RejectsForeignLocations(t *testing.T) {
	s := NewStoreWithClient(newFakeS3(), &fakePresigner{}, "edi-inbound")

	_, err := s.Get(context.Background(), "gs://edi-inbound/a.edi")
	assert.Error(t, err)

	_, err = s.SignedURL(context.Background(), "mem://local/x", time.Minute)
	assert.Error(t, err)
}
