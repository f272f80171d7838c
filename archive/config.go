package archive

import (
	"fmt"
	"time"
)

// S3Config configures the S3-compatible export destination. Endpoint lets
// this point at MinIO or LocalStack instead of real AWS, matching the
// pack's existing practice of exercising cloud SDKs against local
// substitutes in development.
type S3Config struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	KeyPrefix       string
	MaxRetries      int
	RetryDelay      time.Duration
}

func (c S3Config) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Bucket == "" {
		return fmt.Errorf("archive: s3 bucket is required when enabled")
	}
	if c.Region == "" {
		return fmt.Errorf("archive: s3 region is required when enabled")
	}
	return nil
}

func (c S3Config) maxRetries() int {
	if c.MaxRetries <= 0 {
		return 3
	}
	return c.MaxRetries
}

func (c S3Config) retryDelay() time.Duration {
	if c.RetryDelay <= 0 {
		return time.Second
	}
	return c.RetryDelay
}
