package internal

import (
	"context"
	"sync"
	"time"

	"github.com/lychee-technology/jsonerd"
	"go.uber.org/zap"
)

// snapshot is the persisted form of a share state. Stores keep the share
// token rather than the document so that a snapshot can always be turned
// back into a share link.
type snapshot struct {
	ID         string
	Token      string
	Collection string
	CreatedAt  int64
}

// newSnapshot assigns an id and encodes state with codec.
func newSnapshot(codec jsonerd.ShareCodec, state jsonerd.ShareState, now time.Time) (snapshot, error) {
	id, err := NewSnapshotID()
	if err != nil {
		return snapshot{}, jsonerd.NewStorageError("failed to allocate snapshot id", err)
	}
	token, err := codec.Encode(state)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{
		ID:         id,
		Token:      token,
		Collection: state.Collection,
		CreatedAt:  now.UnixMilli(),
	}, nil
}

// restore decodes a stored token back into a share state.
func restore(codec jsonerd.ShareCodec, id, token string) (jsonerd.ShareState, error) {
	state, err := codec.Decode(token)
	if err != nil {
		zap.S().Errorw("stored snapshot token is unreadable", "id", id, "error", err)
		return jsonerd.ShareState{}, jsonerd.NewStorageError("stored snapshot is corrupt", err).WithDetail("id", id)
	}
	return state, nil
}

// checkSnapshotID rejects ids that could not have been issued by a store.
func checkSnapshotID(id string) error {
	_, err := ParseSnapshotID(id)
	return err
}

// MemorySnapshotStore keeps snapshots in process memory. It is the default
// backend and is safe for concurrent use.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	codec     jsonerd.ShareCodec
	snapshots map[string]snapshot
	nowFunc   func() time.Time
}

// NewMemorySnapshotStore creates an empty in-memory store.
func NewMemorySnapshotStore(codec jsonerd.ShareCodec) *MemorySnapshotStore {
	return &MemorySnapshotStore{
		codec:     codec,
		snapshots: make(map[string]snapshot),
		nowFunc:   time.Now,
	}
}

var _ jsonerd.SnapshotStore = (*MemorySnapshotStore)(nil)

func (s *MemorySnapshotStore) Save(ctx context.Context, state jsonerd.ShareState) (string, error) {
	snap, err := newSnapshot(s.codec, state, s.nowFunc())
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.snapshots[snap.ID] = snap
	s.mu.Unlock()

	zap.S().Debugw("saved snapshot", "id", snap.ID, "backend", jsonerd.StorageBackendMemory)
	return snap.ID, nil
}

func (s *MemorySnapshotStore) Load(ctx context.Context, id string) (jsonerd.ShareState, error) {
	if err := checkSnapshotID(id); err != nil {
		return jsonerd.ShareState{}, err
	}

	s.mu.RLock()
	snap, ok := s.snapshots[id]
	s.mu.RUnlock()
	if !ok {
		return jsonerd.ShareState{}, jsonerd.NewSnapshotNotFoundError(id)
	}
	return restore(s.codec, id, snap.Token)
}

func (s *MemorySnapshotStore) Delete(ctx context.Context, id string) error {
	if err := checkSnapshotID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[id]; !ok {
		return jsonerd.NewSnapshotNotFoundError(id)
	}
	delete(s.snapshots, id)
	return nil
}

func (s *MemorySnapshotStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemorySnapshotStore) Close() error {
	s.mu.Lock()
	clear(s.snapshots)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored snapshots.
func (s *MemorySnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
