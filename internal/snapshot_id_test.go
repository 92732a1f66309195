package internal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lychee-technology/jsonerd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSnapshotID(t *testing.T) {
	id, _ := uuid.Parse("f81d4fae-7dec-11d0-a765-00a0c91e6bf6")
	expected := "9aou9lt77qi7bj5facqmshtl8y"
	assert.Equal(t, expected, EncodeSnapshotID(id))
}

func TestParseSnapshotID(t *testing.T) {
	expected, _ := uuid.Parse("f81d4fae-7dec-11d0-a765-00a0c91e6bf6")
	decoded, err := ParseSnapshotID("9aou9lt77qi7bj5facqmshtl8y")
	assert.NoError(t, err)
	assert.Equal(t, expected, decoded)
}

func TestNewSnapshotIDRoundTrip(t *testing.T) {
	id, err := NewSnapshotID()
	require.NoError(t, err)
	assert.Len(t, id, snapshotIDLen)

	parsed, err := ParseSnapshotID(id)
	require.NoError(t, err)
	assert.Equal(t, id, EncodeSnapshotID(parsed))
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestParseSnapshotID_Error(t *testing.T) {
	for _, s := range []string{"", "short", "invalid-base32-string-0000", "9AOU9LT77QI7BJ5FACQMSHTL8Y"} {
		_, err := ParseSnapshotID(s)
		assert.Error(t, err, s)
		assert.True(t, jsonerd.IsValidation(err), s)
	}
}
