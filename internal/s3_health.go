package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lychee-technology/jsonerd"
)

// ValidateS3Config performs basic sanity checks on S3 snapshot store settings.
func ValidateS3Config(cfg jsonerd.S3Config) error {
	if cfg.Bucket == "" {
		return fmt.Errorf("s3: bucket is required")
	}
	if cfg.AccessKey != "" && cfg.SecretKey == "" {
		return fmt.Errorf("s3AccessKey provided without s3SecretKey")
	}
	if cfg.SecretKey != "" && cfg.AccessKey == "" {
		return fmt.Errorf("s3SecretKey provided without s3AccessKey")
	}
	return nil
}

type bucketHeader interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3HealthCheck issues HeadBucket against bucket, which checks both
// reachability and that the credentials can see the bucket.
// timeout may be 0 to use a sensible default (5s).
func S3HealthCheck(ctx context.Context, client bucketHeader, bucket string, timeout time.Duration) error {
	if bucket == "" {
		return fmt.Errorf("s3 bucket not configured")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := client.HeadBucket(reqCtx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("s3 head bucket failed: %w", err)
	}
	return nil
}
