package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGetList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "run-1", "/devices/xc.device", []byte("abc")))
	require.NoError(t, s.Put(ctx, "run-1", "summary.json", []byte("{}")))
	require.NoError(t, s.Put(ctx, "run-2", "other.device", nil))

	got, err := s.Get(ctx, "run-1", "devices/xc.device")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	_, err = s.Get(ctx, "run-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	paths, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"devices/xc.device", "summary.json"}, paths)

	url, err := s.GetURL(ctx, "run-1", "summary.json")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestMemoryStoreCopiesContent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, "r", "p", buf))
	buf[0] = 'x'

	got, err := s.Get(ctx, "r", "p")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestKeysRequired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	assert.Error(t, s.Put(ctx, " ", "p", nil))
	assert.Error(t, s.Put(ctx, "r", "", nil))
	_, err := s.List(ctx, "")
	assert.Error(t, err)
}

func TestNewS3StoreValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
	}{
		{"no_endpoint", S3Config{AccessKey: "a", SecretKey: "b", Bucket: "c"}},
		{"no_credentials", S3Config{Endpoint: "localhost:9000", Bucket: "c"}},
		{"no_bucket", S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3Store(tt.cfg)
			assert.Error(t, err)
		})
	}

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "devices"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}
