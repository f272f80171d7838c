package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	pkglogger "github.com/dmitrymomot/taskforge/pkg/logger"
)

// S3Exporter writes each Batch as one newline-delimited-JSON object, keyed
// by date partition, following the S3/Parquet exporter's partitioning idea
// (adapted here to plain NDJSON rather than Parquet, since this module has
// no Parquet encoder dependency to exercise).
type S3Exporter struct {
	cfg    S3Config
	client *s3.Client
	logger *slog.Logger
}

// NewS3Exporter builds an S3Exporter and verifies the bucket is reachable.
func NewS3Exporter(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Exporter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = pkglogger.NewNope()
	}

	awsCfg := aws.Config{Region: cfg.Region}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("archive: head bucket %s: %w", cfg.Bucket, err)
	}

	logger.Info("archive: s3 exporter initialized",
		slog.String("bucket", cfg.Bucket), slog.String("region", cfg.Region))

	return &S3Exporter{cfg: cfg, client: client, logger: logger}, nil
}

// Export serializes batch as NDJSON and uploads it, retrying MaxRetries
// times with a fixed delay on transient failure.
func (e *S3Exporter) Export(ctx context.Context, batch Batch) error {
	if len(batch.Records) == 0 {
		return fmt.Errorf("archive: empty batch")
	}

	data, err := serializeRecords(batch.Records)
	if err != nil {
		return fmt.Errorf("archive: serialize batch %s: %w", batch.ID, err)
	}

	key := e.objectKey(batch)

	var lastErr error
	for attempt := 0; attempt <= e.cfg.maxRetries(); attempt++ {
		if attempt > 0 {
			e.logger.WarnContext(ctx, "archive: retrying s3 export",
				slog.Int("attempt", attempt), slog.Any("error", lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.cfg.retryDelay()):
			}
		}

		_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(e.cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/x-ndjson"),
		})
		if err == nil {
			e.logger.InfoContext(ctx, "archive: exported batch",
				slog.String("batch_id", batch.ID), slog.Int("records", len(batch.Records)), slog.String("key", key))
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("archive: put object %s after %d attempts: %w", key, e.cfg.maxRetries()+1, lastErr)
}

func (e *S3Exporter) objectKey(batch Batch) string {
	t := batch.Records[0].ArchivedAt
	return fmt.Sprintf("%sjobs/year=%04d/month=%02d/day=%02d/%s.jsonl",
		e.cfg.KeyPrefix, t.Year(), t.Month(), t.Day(), batch.ID)
}

func serializeRecords(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
