package minio

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Endpoint: "localhost:9000"}.Validate())
	assert.NoError(t, Config{Endpoint: "localhost:9000", AccessKeyID: "a", SecretAccessKey: "b"}.Validate())
	assert.False(t, Config{}.Enabled())
	assert.Equal(t, "invoices", Config{}.withDefaults().Bucket)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", contentType("invoices/hoa-don-1.pdf"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}

func TestPutAndPresign(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}

	c, err := New(Config{
		Endpoint:        endpoint,
		AccessKeyID:     os.Getenv("MINIO_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:          "test-" + uuid.NewString()[:8],
		Prefix:          "invoices",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, c.EnsureBucket(ctx))
	object, err := c.Put(ctx, "hoa-don-1.pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, "invoices/hoa-don-1.pdf", object)

	ok, err := c.Exists(ctx, object)
	require.NoError(t, err)
	assert.True(t, ok)

	u, err := c.PresignedGet(ctx, object, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u.String(), object)
}
