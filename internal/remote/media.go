package remote

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hoorayapp/hooray-sync/internal/config"
)

// MediaUploader pushes image bytes to the S3-compatible object store and
// returns the durable storage path a celebration record references.
type MediaUploader struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

func NewMediaUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*MediaUploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load object storage config: %w", err)
	}

	return &MediaUploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
		logger: logger,
	}, nil
}

// UploadFile stores the bytes under a date-scoped key and returns the
// storage path.
func (m *MediaUploader) UploadFile(ctx context.Context, name, contentType string, data []byte) (string, error) {
	key := fmt.Sprintf("celebrations/%s/%s", time.Now().UTC().Format("2006-01-02"), name)

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	m.logger.Debug("Media uploaded", "key", key, "bytes", len(data))
	return key, nil
}
