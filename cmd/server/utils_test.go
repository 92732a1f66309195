package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lychee-technology/jsonerd"
	"github.com/stretchr/testify/assert"
)

func TestValidateCollectionName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "blank selects default", input: ""},
		{name: "plain name", input: "customers"},
		{name: "unicode name", input: "クライアント"},
		{name: "control character", input: "a\nb", wantErr: true},
		{name: "too long", input: strings.Repeat("x", maxCollectionNameLen+1), wantErr: true},
		{name: "invalid utf-8", input: "\xff", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCollectionName(tt.input)
			if tt.wantErr {
				assert.True(t, jsonerd.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWriteErdErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: jsonerd.NewValidationError(jsonerd.ErrCodeEmptyInput, "", "empty"), want: http.StatusBadRequest},
		{name: "codec", err: jsonerd.NewCodecError(jsonerd.ErrCodeTokenDecodeFailed, "bad", nil), want: http.StatusBadRequest},
		{name: "not found", err: jsonerd.NewSnapshotNotFoundError("x"), want: http.StatusNotFound},
		{name: "storage", err: jsonerd.NewStorageError("down", nil), want: http.StatusBadGateway},
		{name: "backend unavailable", err: jsonerd.NewErdError(jsonerd.ErrorTypeStorage, jsonerd.ErrCodeBackendUnavailable, "open"), want: http.StatusServiceUnavailable},
		{name: "internal", err: jsonerd.NewInternalError("boom", nil), want: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeErdError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
