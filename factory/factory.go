package factory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/jsonerd"
	"github.com/lychee-technology/jsonerd/internal"
	"go.uber.org/zap"
)

// NewAnalyzer creates the inference engine configured by config.Heuristics.
// This is the primary way for external projects to analyze documents.
//
// Usage:
//
//	import (
//	    "github.com/lychee-technology/jsonerd"
//	    "github.com/lychee-technology/jsonerd/factory"
//	)
//
//	config := jsonerd.DefaultConfig()
//	analyzer := factory.NewAnalyzer(config)
//	model, err := analyzer.AnalyzeJSON(raw, "")
func NewAnalyzer(config *jsonerd.Config) jsonerd.Analyzer {
	return internal.NewEngine(config.Heuristics)
}

// NewShareCodec creates a share codec using config.Share.QueryParam.
func NewShareCodec(config *jsonerd.Config) jsonerd.ShareCodec {
	return internal.NewShareCodec(config.Share.QueryParam)
}

// NewSnapshotStore opens the backend selected by config.Storage.Backend.
// Remote backends are wrapped in a circuit breaker unless
// config.Storage.Breaker.Threshold is 0. The caller owns the returned store
// and must Close it.
func NewSnapshotStore(ctx context.Context, config *jsonerd.Config, codec jsonerd.ShareCodec) (jsonerd.SnapshotStore, error) {
	store, err := openSnapshotStore(ctx, config.Storage, codec)
	if err != nil {
		return nil, err
	}
	br := config.Storage.Breaker
	if br.Threshold <= 0 {
		return store, nil
	}
	if _, ok := store.(*internal.MemorySnapshotStore); ok {
		return store, nil
	}
	breaker := internal.NewCircuitBreaker(br.Threshold, br.Window, br.OpenDuration)
	return internal.NewGuardedSnapshotStore(store, breaker, config.Storage.Backend), nil
}

func openSnapshotStore(ctx context.Context, storage jsonerd.StorageConfig, codec jsonerd.ShareCodec) (jsonerd.SnapshotStore, error) {
	switch storage.Backend {
	case jsonerd.StorageBackendMemory, "":
		return internal.NewMemorySnapshotStore(codec), nil

	case jsonerd.StorageBackendPostgres:
		pool, err := internal.OpenPostgresPool(ctx, storage.Postgres)
		if err != nil {
			return nil, jsonerd.NewStorageError("failed to open postgres", err)
		}
		store, err := NewPostgresSnapshotStoreWithPool(ctx, pool, storage.Postgres.Table, codec)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil

	case jsonerd.StorageBackendRedis:
		return internal.NewRedisSnapshotStore(ctx, storage.Redis, codec)

	case jsonerd.StorageBackendS3:
		if err := internal.ValidateS3Config(storage.S3); err != nil {
			return nil, &jsonerd.ConfigError{Field: "storage.s3", Message: err.Error()}
		}
		client, err := internal.NewS3Client(ctx, storage.S3)
		if err != nil {
			return nil, jsonerd.NewStorageError("failed to create s3 client", err)
		}
		store := internal.NewS3SnapshotStore(client, storage.S3, codec)
		if err := store.Ping(ctx); err != nil {
			zap.S().Warnw("s3 bucket is not reachable yet", "bucket", storage.S3.Bucket, "error", err)
		}
		return store, nil

	default:
		return nil, jsonerd.NewErdError(jsonerd.ErrorTypeConfig, jsonerd.ErrCodeUnsupportedBackend,
			fmt.Sprintf("unsupported storage backend %q", storage.Backend))
	}
}

// NewPostgresSnapshotStoreWithPool creates a Postgres snapshot store over an
// existing pool and makes sure the table exists.
func NewPostgresSnapshotStoreWithPool(ctx context.Context, pool *pgxpool.Pool, table string, codec jsonerd.ShareCodec) (jsonerd.SnapshotStore, error) {
	store, err := internal.NewPostgresSnapshotStore(pool, table, codec)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureTable(ctx); err != nil {
		return nil, err
	}
	zap.S().Infow("postgres snapshot store ready", "table", table)
	return store, nil
}
