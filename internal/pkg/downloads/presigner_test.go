package downloads

import (
	"context"
	"errors"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresignClient struct {
	inputs  []*s3.GetObjectInput
	expires time.Duration
	err     error
}

func (f *fakePresignClient) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.inputs = append(f.inputs, in)
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://signed.example.com/" + *in.Bucket + "/" + *in.Key}, nil
}

func TestPresigner_SignURL(t *testing.T) {
	fake := &fakePresignClient{}
	p := newPresigner(fake, "bonus-bucket", 0)

	got, err := p.SignURL(context.Background(), "s3://downloads/guides/launch.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/downloads/guides/launch.pdf", got)
	assert.Equal(t, DefaultLinkTTL, fake.expires)

	got, err = p.SignURL(context.Background(), "s3:///prompts.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/bonus-bucket/prompts.pdf", got)

	got, err = p.SignURL(context.Background(), "https://cdn.example.com/file.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/file.pdf", got)
	assert.Len(t, fake.inputs, 2)
}

func TestPresigner_Errors(t *testing.T) {
	_, err := newPresigner(&fakePresignClient{err: errors.New("denied")}, "b", time.Hour).
		SignURL(context.Background(), "s3://b/key.pdf")
	assert.ErrorContains(t, err, "denied")

	_, err = newPresigner(&fakePresignClient{}, "", time.Hour).SignURL(context.Background(), "s3:///key.pdf")
	assert.Error(t, err)
}

func TestNewLinkSigner(t *testing.T) {
	s, err := NewLinkSigner(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, PassthroughSigner{}, s)

	got, err := s.SignURL(context.Background(), "s3://b/k")
	require.NoError(t, err)
	assert.Equal(t, "s3://b/k", got)

	_, err = NewPresigner(context.Background(), Config{})
	assert.Error(t, err)
}
