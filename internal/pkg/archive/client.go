package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// putObjectAPI is the subset of the S3 client the archiver needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client writes raw webhook payloads to an S3 bucket
type Client struct {
	s3Client putObjectAPI
	config   *Config
	log      *zap.Logger
	now      func() time.Time
}

// NewClient creates a new S3 archive client
func NewClient(ctx context.Context, cfg *Config, log *zap.Logger) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("S3 archive is disabled")
	}

	// Create AWS config
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Create S3 client
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services (MinIO, Backblaze B2) need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	c := newClient(s3Client, cfg, log)
	c.log.Info("initialized S3 archive client", zap.String("bucket", cfg.BucketName))
	return c, nil
}

func newClient(api putObjectAPI, cfg *Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		s3Client: api,
		config:   cfg,
		log:      log.Named("archive"),
		now:      time.Now,
	}
}

// Archive uploads one webhook payload. Keys are derived from the provider,
// the archive date and the idempotency key, so a replayed event overwrites itself.
func (c *Client) Archive(ctx context.Context, provider, eventID string, payload []byte) error {
	objectKey := c.config.GetObjectKey(provider, eventID, c.now())

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String("application/json"),
		Metadata: map[string]string{
			"provider": provider,
			"event-id": eventID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to bucket %s: %w", objectKey, c.config.BucketName, err)
	}

	c.log.Debug("archived webhook payload",
		zap.String("bucket", c.config.BucketName),
		zap.String("key", objectKey),
		zap.Int("size", len(payload)),
	)
	return nil
}
