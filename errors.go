package jsonerd

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeCodec      ErrorType = "codec"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// ErdError is the error value returned across package boundaries.
type ErdError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *ErdError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *ErdError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to an ErdError
func (e *ErdError) WithDetails(details map[string]any) *ErdError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail adds a single detail to an ErdError
func (e *ErdError) WithDetail(key string, value any) *ErdError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to an ErdError
func (e *ErdError) WithCause(cause error) *ErdError {
	e.Cause = cause
	return e
}

// WithField adds field context to an ErdError
func (e *ErdError) WithField(field string) *ErdError {
	e.Field = field
	return e
}

const (
	// Input errors
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeEmptyInput            = "EMPTY_INPUT"
	ErrCodeInvalidCollectionName = "INVALID_COLLECTION_NAME"

	// Share codec errors
	ErrCodeTokenEncodeFailed   = "TOKEN_ENCODE_FAILED"
	ErrCodeTokenDecodeFailed   = "TOKEN_DECODE_FAILED"
	ErrCodeInvalidSharePayload = "INVALID_SHARE_PAYLOAD"
	ErrCodeInvalidShareURL     = "INVALID_SHARE_URL"

	// Snapshot storage errors
	ErrCodeSnapshotNotFound   = "SNAPSHOT_NOT_FOUND"
	ErrCodeInvalidSnapshotID  = "INVALID_SNAPSHOT_ID"
	ErrCodeStorageFailed      = "STORAGE_FAILED"
	ErrCodeUnsupportedBackend = "UNSUPPORTED_BACKEND"
	ErrCodeBackendUnavailable = "BACKEND_UNAVAILABLE"

	// Schema export errors
	ErrCodeSchemaExportFailed = "SCHEMA_EXPORT_FAILED"
	ErrCodeDocumentInvalid    = "DOCUMENT_INVALID"

	ErrCodeInternalError = "INTERNAL_ERROR"
)

// NewErdError creates a new ErdError
func NewErdError(errorType ErrorType, code, message string) *ErdError {
	return &ErdError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewInvalidJSONError reports input that is not valid JSON. offset is the byte
// position the parser had reached.
func NewInvalidJSONError(message string, offset int64) *ErdError {
	return &ErdError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeInvalidJSON,
		Message: message,
		Details: map[string]any{"offset": offset},
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, field, message string) *ErdError {
	return &ErdError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Field:   field,
		Details: make(map[string]any),
	}
}

// NewCodecError creates a share codec error
func NewCodecError(code, message string, cause error) *ErdError {
	return &ErdError{
		Type:    ErrorTypeCodec,
		Code:    code,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// NewSnapshotNotFoundError creates a not found error for a snapshot id
func NewSnapshotNotFoundError(id string) *ErdError {
	return &ErdError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeSnapshotNotFound,
		Message: "snapshot not found",
		Details: map[string]any{"id": id},
	}
}

// NewStorageError creates a snapshot storage error
func NewStorageError(message string, cause error) *ErdError {
	return &ErdError{
		Type:    ErrorTypeStorage,
		Code:    ErrCodeStorageFailed,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *ErdError {
	return &ErdError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// AsErdError extracts an *ErdError from an error chain.
func AsErdError(err error) (*ErdError, bool) {
	var erdErr *ErdError
	if errors.As(err, &erdErr) {
		return erdErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not_found ErdError.
func IsNotFound(err error) bool {
	erdErr, ok := AsErdError(err)
	return ok && erdErr.Type == ErrorTypeNotFound
}

// IsValidation reports whether err is a validation ErdError.
func IsValidation(err error) bool {
	erdErr, ok := AsErdError(err)
	return ok && erdErr.Type == ErrorTypeValidation
}

// IsCodec reports whether err is a share codec ErdError.
func IsCodec(err error) bool {
	erdErr, ok := AsErdError(err)
	return ok && erdErr.Type == ErrorTypeCodec
}
