package jsonerd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErdError_Error(t *testing.T) {
	err := NewValidationError(ErrCodeInvalidCollectionName, "collection", "too long")
	assert.Equal(t, "[validation:INVALID_COLLECTION_NAME] field 'collection': too long", err.Error())

	err = NewSnapshotNotFoundError("abc")
	assert.Equal(t, "[not_found:SNAPSHOT_NOT_FOUND] snapshot not found", err.Error())
	assert.Equal(t, "abc", err.Details["id"])
}

func TestErdError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("save: %w", NewStorageError("failed to save snapshot", cause))

	assert.ErrorIs(t, err, cause)

	erdErr, ok := AsErdError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeStorage, erdErr.Type)
	assert.Equal(t, ErrCodeStorageFailed, erdErr.Code)
}

func TestErdError_Builders(t *testing.T) {
	err := NewErdError(ErrorTypeInternal, ErrCodeInternalError, "boom").
		WithField("root").
		WithDetail("a", 1).
		WithDetails(map[string]any{"b": 2})

	assert.Equal(t, "root", err.Field)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, err.Details)

	bare := &ErdError{}
	bare.WithDetail("k", "v")
	assert.Equal(t, "v", bare.Details["k"])
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		codec      bool
		notFound   bool
	}{
		{name: "invalid json", err: NewInvalidJSONError("bad", 3), validation: true},
		{name: "codec", err: NewCodecError(ErrCodeTokenDecodeFailed, "bad token", nil), codec: true},
		{name: "not found", err: NewSnapshotNotFoundError("x"), notFound: true},
		{name: "internal", err: NewInternalError("oops", nil)},
		{name: "plain", err: errors.New("plain")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.codec, IsCodec(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
		})
	}
}

func TestNewInvalidJSONError(t *testing.T) {
	err := NewInvalidJSONError("unexpected end of JSON input", 12)
	assert.Equal(t, ErrCodeInvalidJSON, err.Code)
	assert.Equal(t, int64(12), err.Details["offset"])
}
