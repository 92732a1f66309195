package e2e_harness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/jsonerd"
	"github.com/lychee-technology/jsonerd/internal"
)

// SampleDocuments are the share states stored by the E2E run, keyed by the
// root collection name.
var SampleDocuments = map[string]string{
	"users":    `{"_id":"u1","name":"Ada","orders":[{"order_id":"o1","users_id":"u1","total":12.5}]}`,
	"company":  `{"name":"Acme","locations":[{"city":"Oslo"}],"details":{"size":3}}`,
	"personal": `{"status":"ok","statuses":[{"code":1}],"skills":["go"]}`,
}

// SampleStates parses SampleDocuments into share states.
func SampleStates() ([]jsonerd.ShareState, error) {
	states := make([]jsonerd.ShareState, 0, len(SampleDocuments))
	for collection, text := range SampleDocuments {
		doc, err := internal.ParseDocument([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", collection, err)
		}
		states = append(states, jsonerd.ShareState{JSON: doc, Collection: collection})
	}
	return states, nil
}

// CountSnapshots returns the number of rows in the snapshot table.
func CountSnapshots(ctx context.Context, db *sql.DB, table string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

// EnsureBucket creates cfg.Bucket when HeadBucket cannot see it.
func EnsureBucket(ctx context.Context, cfg jsonerd.S3Config) error {
	client, err := internal.NewS3Client(ctx, cfg)
	if err != nil {
		return err
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err == nil {
		return nil
	}

	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}
