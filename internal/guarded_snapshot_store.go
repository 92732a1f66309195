package internal

import (
	"context"

	"github.com/lychee-technology/jsonerd"
	"go.uber.org/zap"
)

// GuardedSnapshotStore fails fast while its breaker is open.
// Storage errors count as failures; success and not_found reset the breaker.
type GuardedSnapshotStore struct {
	store   jsonerd.SnapshotStore
	breaker *CircuitBreaker
	backend jsonerd.StorageBackend
}

// NewGuardedSnapshotStore wraps store with breaker.
func NewGuardedSnapshotStore(store jsonerd.SnapshotStore, breaker *CircuitBreaker, backend jsonerd.StorageBackend) *GuardedSnapshotStore {
	return &GuardedSnapshotStore{store: store, breaker: breaker, backend: backend}
}

var _ jsonerd.SnapshotStore = (*GuardedSnapshotStore)(nil)

func (g *GuardedSnapshotStore) unavailable() error {
	return jsonerd.NewErdError(jsonerd.ErrorTypeStorage, jsonerd.ErrCodeBackendUnavailable,
		"snapshot backend is unavailable").WithDetail("backend", string(g.backend))
}

func (g *GuardedSnapshotStore) record(err error) error {
	erdErr, ok := jsonerd.AsErdError(err)
	switch {
	case err == nil, ok && erdErr.Type == jsonerd.ErrorTypeNotFound:
		g.breaker.RecordSuccess()
	case ok && erdErr.Type == jsonerd.ErrorTypeStorage:
		g.breaker.RecordFailure()
		if g.breaker.IsOpen() {
			zap.S().Warnw("snapshot backend circuit opened", "backend", g.backend, "error", err)
		}
	}
	return err
}

func (g *GuardedSnapshotStore) Save(ctx context.Context, state jsonerd.ShareState) (string, error) {
	if g.breaker.IsOpen() {
		return "", g.unavailable()
	}
	id, err := g.store.Save(ctx, state)
	return id, g.record(err)
}

func (g *GuardedSnapshotStore) Load(ctx context.Context, id string) (jsonerd.ShareState, error) {
	if g.breaker.IsOpen() {
		return jsonerd.ShareState{}, g.unavailable()
	}
	state, err := g.store.Load(ctx, id)
	return state, g.record(err)
}

func (g *GuardedSnapshotStore) Delete(ctx context.Context, id string) error {
	if g.breaker.IsOpen() {
		return g.unavailable()
	}
	return g.record(g.store.Delete(ctx, id))
}

// Ping always reaches the backend so health checks see recovery.
func (g *GuardedSnapshotStore) Ping(ctx context.Context) error {
	return g.record(g.store.Ping(ctx))
}

func (g *GuardedSnapshotStore) Close() error {
	return g.store.Close()
}
