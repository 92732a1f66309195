package internal

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/jsonerd"
	"go.uber.org/zap"
)

// snapshotPool is the subset of *pgxpool.Pool the Postgres store needs.
type snapshotPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresSnapshotStore keeps snapshots in a single table:
//
//	<table>(id text primary key, token text, collection text, created_at bigint)
type PostgresSnapshotStore struct {
	pool    snapshotPool
	table   string
	quoted  string
	codec   jsonerd.ShareCodec
	nowFunc func() time.Time
}

// NewPostgresSnapshotStore wraps an open pool. The table name is validated
// because it is interpolated into SQL.
func NewPostgresSnapshotStore(pool snapshotPool, table string, codec jsonerd.ShareCodec) (*PostgresSnapshotStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, &jsonerd.ConfigError{Field: "storage.postgres.table", Message: fmt.Sprintf("invalid table name %q", table)}
	}
	return &PostgresSnapshotStore{
		pool:    pool,
		table:   table,
		quoted:  sanitizeIdentifier(table),
		codec:   codec,
		nowFunc: time.Now,
	}, nil
}

var _ jsonerd.SnapshotStore = (*PostgresSnapshotStore)(nil)

// EnsureTable creates the snapshot table when it does not exist.
func (s *PostgresSnapshotStore) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  token TEXT NOT NULL,
  collection TEXT NOT NULL,
  created_at BIGINT NOT NULL
)`, s.quoted)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return jsonerd.NewStorageError("failed to create snapshot table", err).WithDetail("table", s.table)
	}
	return nil
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, state jsonerd.ShareState) (string, error) {
	snap, err := newSnapshot(s.codec, state, s.nowFunc())
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf("INSERT INTO %s (id, token, collection, created_at) VALUES ($1, $2, $3, $4)", s.quoted)
	if _, err := s.pool.Exec(ctx, query, snap.ID, snap.Token, snap.Collection, snap.CreatedAt); err != nil {
		zap.S().Errorw("failed to insert snapshot", "id", snap.ID, "table", s.table, "error", err)
		return "", jsonerd.NewStorageError("failed to save snapshot", err)
	}

	zap.S().Debugw("saved snapshot", "id", snap.ID, "backend", jsonerd.StorageBackendPostgres)
	return snap.ID, nil
}

func (s *PostgresSnapshotStore) Load(ctx context.Context, id string) (jsonerd.ShareState, error) {
	if err := checkSnapshotID(id); err != nil {
		return jsonerd.ShareState{}, err
	}

	query := fmt.Sprintf("SELECT token FROM %s WHERE id = $1", s.quoted)
	var token string
	if err := s.pool.QueryRow(ctx, query, id).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return jsonerd.ShareState{}, jsonerd.NewSnapshotNotFoundError(id)
		}
		return jsonerd.ShareState{}, jsonerd.NewStorageError("failed to load snapshot", err)
	}
	return restore(s.codec, id, token)
}

func (s *PostgresSnapshotStore) Delete(ctx context.Context, id string) error {
	if err := checkSnapshotID(id); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.quoted)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return jsonerd.NewStorageError("failed to delete snapshot", err)
	}
	if tag.RowsAffected() == 0 {
		return jsonerd.NewSnapshotNotFoundError(id)
	}
	return nil
}

func (s *PostgresSnapshotStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return jsonerd.NewStorageError("postgres ping failed", err)
	}
	return nil
}

func (s *PostgresSnapshotStore) Close() error {
	s.pool.Close()
	return nil
}
