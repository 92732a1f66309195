package internal

import (
	"context"
	"errors"
	"time"

	"github.com/lychee-technology/jsonerd"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSnapshotStore keeps each snapshot in a hash under KeyPrefix+id.
// Snapshots expire after TTL; zero means they are kept.
type RedisSnapshotStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	codec   jsonerd.ShareCodec
	nowFunc func() time.Time
}

// NewRedisSnapshotStore connects to cfg.Addr and verifies the connection.
func NewRedisSnapshotStore(ctx context.Context, cfg jsonerd.RedisConfig, codec jsonerd.ShareCodec) (*RedisSnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, jsonerd.NewStorageError("failed to connect to redis", err).WithDetail("addr", cfg.Addr)
	}

	return NewRedisSnapshotStoreWithClient(client, cfg, codec), nil
}

// NewRedisSnapshotStoreWithClient creates a store over an existing client.
func NewRedisSnapshotStoreWithClient(client *redis.Client, cfg jsonerd.RedisConfig, codec jsonerd.ShareCodec) *RedisSnapshotStore {
	return &RedisSnapshotStore{
		client:  client,
		prefix:  cfg.KeyPrefix,
		ttl:     cfg.TTL,
		codec:   codec,
		nowFunc: time.Now,
	}
}

var _ jsonerd.SnapshotStore = (*RedisSnapshotStore)(nil)

func (s *RedisSnapshotStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisSnapshotStore) Save(ctx context.Context, state jsonerd.ShareState) (string, error) {
	snap, err := newSnapshot(s.codec, state, s.nowFunc())
	if err != nil {
		return "", err
	}

	key := s.key(snap.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"token", snap.Token,
			"collection", snap.Collection,
			"created_at", snap.CreatedAt)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		zap.S().Errorw("failed to write snapshot", "id", snap.ID, "error", err)
		return "", jsonerd.NewStorageError("failed to save snapshot", err)
	}

	zap.S().Debugw("saved snapshot", "id", snap.ID, "backend", jsonerd.StorageBackendRedis, "ttl", s.ttl)
	return snap.ID, nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context, id string) (jsonerd.ShareState, error) {
	if err := checkSnapshotID(id); err != nil {
		return jsonerd.ShareState{}, err
	}

	token, err := s.client.HGet(ctx, s.key(id), "token").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jsonerd.ShareState{}, jsonerd.NewSnapshotNotFoundError(id)
		}
		return jsonerd.ShareState{}, jsonerd.NewStorageError("failed to load snapshot", err)
	}
	return restore(s.codec, id, token)
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, id string) error {
	if err := checkSnapshotID(id); err != nil {
		return err
	}

	removed, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return jsonerd.NewStorageError("failed to delete snapshot", err)
	}
	if removed == 0 {
		return jsonerd.NewSnapshotNotFoundError(id)
	}
	return nil
}

func (s *RedisSnapshotStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return jsonerd.NewStorageError("redis ping failed", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}
