package guide

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	input   *s3.GetObjectInput
	expires time.Duration
	err     error
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.input = in
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://guides.s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc", Method: "GET"}, nil
}

func TestLinker_Link(t *testing.T) {
	fake := &fakePresigner{}
	l := NewLinker(fake, "guides", "guides/baja-build-guide.pdf", time.Hour)
	require.NotNil(t, l)

	url, expires, err := l.Link(context.Background())
	require.NoError(t, err)
	assert.Contains(t, url, "guides/baja-build-guide.pdf")
	assert.Equal(t, "guides", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(fake.input.ResponseContentType))
	assert.Equal(t, time.Hour, fake.expires)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)
}

func TestLinker_DefaultTTLAndErrors(t *testing.T) {
	fake := &fakePresigner{err: errors.New("no credentials")}
	l := NewLinker(fake, "guides", "k", 0)

	_, _, err := l.Link(context.Background())
	assert.ErrorContains(t, err, "guide: presign get")
	assert.Equal(t, DefaultTTL, fake.expires)
}

func TestNewLinker_DisabledWithoutBucket(t *testing.T) {
	l := NewLinker(nil, "", "k", time.Hour)
	assert.Nil(t, l)
	_, _, err := l.Link(context.Background())
	assert.Error(t, err)
}
