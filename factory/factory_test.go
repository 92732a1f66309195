package factory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/lychee-technology/jsonerd"
	"github.com/lychee-technology/jsonerd/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalyzer_UsesConfiguredHeuristics(t *testing.T) {
	config := jsonerd.DefaultConfig()
	config.Heuristics.DefaultCollectionName = "root"

	model, err := NewAnalyzer(config).AnalyzeJSON([]byte(`{"orders":[{"id":1}]}`), "")
	require.NoError(t, err)

	assert.Equal(t, "root", model.Root)
	assert.Equal(t, []string{"root", "orders"}, model.Collections.Names())
}

func TestNewShareCodec_UsesQueryParam(t *testing.T) {
	config := jsonerd.DefaultConfig()
	config.Share.QueryParam = "state"
	codec := NewShareCodec(config)

	state := jsonerd.ShareState{JSON: jsonerd.Int(1), Collection: "c"}
	link, err := codec.ShareURL("http://example.com/", state)
	require.NoError(t, err)
	assert.Contains(t, link, "state=")

	decoded, err := codec.StateFromURL(link)
	require.NoError(t, err)
	assert.True(t, state.Equal(decoded))
}

func TestNewSnapshotStore_Memory(t *testing.T) {
	config := jsonerd.DefaultConfig()
	store, err := NewSnapshotStore(context.Background(), config, NewShareCodec(config))
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &internal.MemorySnapshotStore{}, store)
}

func TestNewSnapshotStore_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	config := jsonerd.DefaultConfig()
	config.Storage.Backend = jsonerd.StorageBackendRedis
	config.Storage.Redis.Addr = mr.Addr()

	ctx := context.Background()
	store, err := NewSnapshotStore(ctx, config, NewShareCodec(config))
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &internal.GuardedSnapshotStore{}, store)

	id, err := store.Save(ctx, jsonerd.ShareState{JSON: jsonerd.String("x"), Collection: "c"})
	require.NoError(t, err)
	assert.True(t, mr.Exists(config.Storage.Redis.KeyPrefix+id))
}

func TestNewSnapshotStore_RedisWithoutBreaker(t *testing.T) {
	mr := miniredis.RunT(t)

	config := jsonerd.DefaultConfig()
	config.Storage.Backend = jsonerd.StorageBackendRedis
	config.Storage.Redis.Addr = mr.Addr()
	config.Storage.Breaker.Threshold = 0

	store, err := NewSnapshotStore(context.Background(), config, NewShareCodec(config))
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &internal.RedisSnapshotStore{}, store)
}

func TestNewSnapshotStore_S3RequiresBucket(t *testing.T) {
	config := jsonerd.DefaultConfig()
	config.Storage.Backend = jsonerd.StorageBackendS3

	_, err := NewSnapshotStore(context.Background(), config, NewShareCodec(config))
	require.Error(t, err)

	var cfgErr *jsonerd.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewSnapshotStore_UnsupportedBackend(t *testing.T) {
	config := jsonerd.DefaultConfig()
	config.Storage.Backend = "etcd"

	_, err := NewSnapshotStore(context.Background(), config, NewShareCodec(config))
	require.Error(t, err)

	erdErr, ok := jsonerd.AsErdError(err)
	require.True(t, ok)
	assert.Equal(t, jsonerd.ErrCodeUnsupportedBackend, erdErr.Code)
}
