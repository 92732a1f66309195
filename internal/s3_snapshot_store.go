package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/jsonerd"
	"go.uber.org/zap"
)

// s3SnapshotAPI is the part of *s3.Client the store calls directly. The
// uploader additionally needs the multipart operations.
type s3SnapshotAPI interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3SnapshotStore writes one object per snapshot under Prefix. The object
// body is the share token.
type S3SnapshotStore struct {
	client   s3SnapshotAPI
	uploader *manager.Uploader
	bucket   string
	prefix   string
	codec    jsonerd.ShareCodec
	nowFunc  func() time.Time
}

// NewS3Client builds an S3 client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg jsonerd.S3Config) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// NewS3SnapshotStore creates a store over client.
func NewS3SnapshotStore(client s3SnapshotAPI, cfg jsonerd.S3Config, codec jsonerd.ShareCodec) *S3SnapshotStore {
	return &S3SnapshotStore{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		codec:    codec,
		nowFunc:  time.Now,
	}
}

var _ jsonerd.SnapshotStore = (*S3SnapshotStore)(nil)

func (s *S3SnapshotStore) objectKey(id string) string {
	return path.Join(s.prefix, id+".token")
}

func (s *S3SnapshotStore) Save(ctx context.Context, state jsonerd.ShareState) (string, error) {
	snap, err := newSnapshot(s.codec, state, s.nowFunc())
	if err != nil {
		return "", err
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(snap.ID)),
		Body:        strings.NewReader(snap.Token),
		ContentType: aws.String("text/plain"),
		Metadata: map[string]string{
			"collection": snap.Collection,
			"created-at": strconv.FormatInt(snap.CreatedAt, 10),
		},
	})
	if err != nil {
		zap.S().Errorw("failed to upload snapshot", "id", snap.ID, "bucket", s.bucket, "error", err)
		return "", jsonerd.NewStorageError("failed to save snapshot", err)
	}

	zap.S().Debugw("saved snapshot", "id", snap.ID, "backend", jsonerd.StorageBackendS3)
	return snap.ID, nil
}

func (s *S3SnapshotStore) Load(ctx context.Context, id string) (jsonerd.ShareState, error) {
	if err := checkSnapshotID(id); err != nil {
		return jsonerd.ShareState{}, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return jsonerd.ShareState{}, jsonerd.NewSnapshotNotFoundError(id)
		}
		return jsonerd.ShareState{}, jsonerd.NewStorageError("failed to load snapshot", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return jsonerd.ShareState{}, jsonerd.NewStorageError("failed to read snapshot", err)
	}
	return restore(s.codec, id, string(body))
}

// Delete removes the object. S3 deletes are idempotent, so existence is
// checked first to report unknown ids.
func (s *S3SnapshotStore) Delete(ctx context.Context, id string) error {
	if err := checkSnapshotID(id); err != nil {
		return err
	}

	key := aws.String(s.objectKey(id))
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		if isS3NotFound(err) {
			return jsonerd.NewSnapshotNotFoundError(id)
		}
		return jsonerd.NewStorageError("failed to stat snapshot", err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		return jsonerd.NewStorageError("failed to delete snapshot", err)
	}
	return nil
}

func (s *S3SnapshotStore) Ping(ctx context.Context) error {
	if err := S3HealthCheck(ctx, s.client, s.bucket, 0); err != nil {
		return jsonerd.NewStorageError("s3 health check failed", err)
	}
	return nil
}

func (s *S3SnapshotStore) Close() error {
	return nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
