package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/lychee-technology/jsonerd"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	s3AccessKey = "minio"
	s3SecretKey = "minio"
	s3Bucket    = "erd-snapshots"
)

// TestHarness holds lightweight runners for the snapshot store backends.
type TestHarness struct {
	PGContainer    testcontainers.Container
	PGDSN          string
	PGDB           *sql.DB
	PGHost         string
	PGPort         int
	RedisContainer testcontainers.Container
	RedisAddr      string
	S3Container    testcontainers.Container
	S3Endpoint     string
}

// StartPostgres starts a postgres container and returns a DSN.
// It waits until Postgres is reachable. Caller is responsible for calling StopPostgres.
func (h *TestHarness) StartPostgres(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "jsonerd",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}
	h.PGContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", err
	}
	h.PGHost = host
	h.PGPort = mapped.Int()
	dsn := fmt.Sprintf("postgres://postgres:password@%s:%s/jsonerd?sslmode=disable", host, mapped.Port())
	h.PGDSN = dsn

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return "", err
	}
	// Wait until reachable
	deadline := time.Now().Add(20 * time.Second)
	for {
		if err := db.PingContext(ctx); err == nil {
			h.PGDB = db
			return dsn, nil
		}
		if time.Now().After(deadline) {
			db.Close()
			return "", fmt.Errorf("postgres did not become ready: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// PostgresConfig points a snapshot store at the harness database.
func (h *TestHarness) PostgresConfig(table string) jsonerd.PostgresConfig {
	cfg := jsonerd.DefaultConfig().Storage.Postgres
	cfg.Host = h.PGHost
	cfg.Port = h.PGPort
	cfg.Password = "password"
	cfg.Table = table
	return cfg
}

// StopPostgres stops the Postgres container and closes DB handle.
func (h *TestHarness) StopPostgres(ctx context.Context) error {
	if h.PGDB != nil {
		h.PGDB.Close()
		h.PGDB = nil
	}
	if h.PGContainer != nil {
		if err := h.PGContainer.Terminate(ctx); err != nil {
			return err
		}
		h.PGContainer = nil
	}
	return nil
}

// StartRedis starts a redis container and returns its address.
func (h *TestHarness) StartRedis(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}
	h.RedisContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return "", err
	}
	h.RedisAddr = host + ":" + mapped.Port()
	return h.RedisAddr, nil
}

// RedisConfig points a snapshot store at the harness redis.
func (h *TestHarness) RedisConfig(ttl time.Duration) jsonerd.RedisConfig {
	cfg := jsonerd.DefaultConfig().Storage.Redis
	cfg.Addr = h.RedisAddr
	cfg.TTL = ttl
	return cfg
}

// StopRedis stops the redis container.
func (h *TestHarness) StopRedis(ctx context.Context) error {
	if h.RedisContainer != nil {
		if err := h.RedisContainer.Terminate(ctx); err != nil {
			return err
		}
		h.RedisContainer = nil
	}
	return nil
}

// StartS3 starts a RustFS container and returns its endpoint.
func (h *TestHarness) StartS3(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "rustfs/rustfs:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"RUSTFS_ACCESS_KEY": s3AccessKey,
			"RUSTFS_SECRET_KEY": s3SecretKey,
		},
		WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}
	h.S3Container = container
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, "9000")
	if err != nil {
		return "", err
	}
	h.S3Endpoint = fmt.Sprintf("http://%s:%s", host, mapped.Port())
	return h.S3Endpoint, nil
}

// S3Config points a snapshot store at the harness bucket.
func (h *TestHarness) S3Config() jsonerd.S3Config {
	return jsonerd.S3Config{
		Bucket:       s3Bucket,
		Prefix:       "snapshots/",
		Region:       "us-east-1",
		Endpoint:     h.S3Endpoint,
		AccessKey:    s3AccessKey,
		SecretKey:    s3SecretKey,
		UsePathStyle: true,
	}
}

// StopS3 stops the RustFS container.
func (h *TestHarness) StopS3(ctx context.Context) error {
	if h.S3Container != nil {
		if err := h.S3Container.Terminate(ctx); err != nil {
			return err
		}
		h.S3Container = nil
	}
	return nil
}
