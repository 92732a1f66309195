package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lychee-technology/jsonerd"
	"go.uber.org/zap"
)

const maxCollectionNameLen = 128

// APIResponse is the standard error response format
type APIResponse struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeErdError maps err onto a status code and writes it. Errors that are
// not ErdErrors are reported as internal without their text.
func writeErdError(w http.ResponseWriter, err error) error {
	erdErr, ok := jsonerd.AsErdError(err)
	if !ok {
		zap.S().Errorw("unhandled error", "error", err)
		return writeError(w, http.StatusInternalServerError, "internal error")
	}

	status := http.StatusInternalServerError
	switch erdErr.Type {
	case jsonerd.ErrorTypeValidation, jsonerd.ErrorTypeCodec:
		status = http.StatusBadRequest
	case jsonerd.ErrorTypeNotFound:
		status = http.StatusNotFound
	case jsonerd.ErrorTypeStorage:
		status = http.StatusBadGateway
		if erdErr.Code == jsonerd.ErrCodeBackendUnavailable {
			status = http.StatusServiceUnavailable
		}
	}
	if status >= http.StatusInternalServerError {
		zap.S().Errorw("request failed", "code", erdErr.Code, "error", err)
	}

	return writeJSON(w, status, APIResponse{
		Success: false,
		Error:   erdErr.Message,
		Code:    erdErr.Code,
		Field:   erdErr.Field,
		Details: erdErr.Details,
	})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data any) error {
	return writeJSON(w, statusCode, data)
}

// readBody reads at most limit bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, jsonerd.NewValidationError(jsonerd.ErrCodeInvalidJSON, "", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return nil, jsonerd.NewValidationError(jsonerd.ErrCodeInvalidJSON, "", "failed to read request body").WithCause(err)
	}
	return body, nil
}

// validateCollectionName accepts blank names, which select the default.
func validateCollectionName(name string) error {
	if len(name) > maxCollectionNameLen {
		return jsonerd.NewValidationError(jsonerd.ErrCodeInvalidCollectionName, "collection",
			fmt.Sprintf("collection name must be at most %d bytes", maxCollectionNameLen))
	}
	if !utf8.ValidString(name) {
		return jsonerd.NewValidationError(jsonerd.ErrCodeInvalidCollectionName, "collection", "collection name must be valid UTF-8")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return jsonerd.NewValidationError(jsonerd.ErrCodeInvalidCollectionName, "collection", "collection name must not contain control characters")
		}
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.S().Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestID", middleware.GetReqID(r.Context()))
	})
}
