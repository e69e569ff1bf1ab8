package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutObject struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutObject) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveUploadsPayload(t *testing.T) {
	api := &fakePutObject{}
	c := newClient(api, &Config{BucketName: "webhooks", Enabled: true}, nil)
	c.now = func() time.Time { return time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC) }

	payload := []byte(`{"id":"evt_1"}`)
	require.NoError(t, c.Archive(context.Background(), "stripe", "evt_1", payload))

	assert.Equal(t, "webhooks", aws.ToString(api.input.Bucket))
	assert.Equal(t, "webhooks/stripe/2026/03/07/evt_1.json", aws.ToString(api.input.Key))
	assert.Equal(t, "application/json", aws.ToString(api.input.ContentType))
	assert.Equal(t, payload, api.body)
	assert.Equal(t, "evt_1", api.input.Metadata["event-id"])
}

func TestArchiveWrapsErrors(t *testing.T) {
	api := &fakePutObject{err: errors.New("access denied")}
	c := newClient(api, &Config{BucketName: "webhooks", Enabled: true}, nil)

	err := c.Archive(context.Background(), "stripe", "evt_2", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestGetObjectKeySanitizes(t *testing.T) {
	cfg := &Config{}
	at := time.Date(2026, 10, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "webhooks/stripe/2026/10/01/hash:abc.json", cfg.GetObjectKey("stripe", "hash:abc", at))
	assert.Equal(t, "webhooks/stripe/2026/10/01/.._etc_passwd.json", cfg.GetObjectKey("stripe", "../etc/passwd", at))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("S3_ARCHIVE_ENABLED", "false")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.IsEnabled())

	t.Setenv("S3_ARCHIVE_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_BUCKET_NAME", "")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("S3_BUCKET_NAME", "bucket")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled())
}

func TestNewClientRequiresEnabled(t *testing.T) {
	_, err := NewClient(context.Background(), &Config{}, nil)
	assert.Error(t, err)
}
