package internal

import (
	"encoding/base32"
	"fmt"

	"github.com/google/uuid"
	"github.com/lychee-technology/jsonerd"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz156789"

var snapshotIDEncoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// snapshotIDLen is the encoded length of a 16 byte UUID.
const snapshotIDLen = 26

// NewSnapshotID returns a time-ordered short id for a stored snapshot.
func NewSnapshotID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate snapshot id: %w", err)
	}
	return EncodeSnapshotID(id), nil
}

// EncodeSnapshotID renders a UUID in the lower-case snapshot alphabet.
func EncodeSnapshotID(id uuid.UUID) string {
	return snapshotIDEncoding.EncodeToString(id[:])
}

// ParseSnapshotID validates a snapshot id and returns the UUID it encodes.
func ParseSnapshotID(s string) (uuid.UUID, error) {
	if len(s) != snapshotIDLen {
		return uuid.Nil, jsonerd.NewValidationError(jsonerd.ErrCodeInvalidSnapshotID, "id", "snapshot id has the wrong length")
	}
	data, err := snapshotIDEncoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, jsonerd.NewValidationError(jsonerd.ErrCodeInvalidSnapshotID, "id", "snapshot id is malformed").WithCause(err)
	}
	id, err := uuid.FromBytes(data)
	if err != nil {
		return uuid.Nil, jsonerd.NewValidationError(jsonerd.ErrCodeInvalidSnapshotID, "id", "snapshot id is malformed").WithCause(err)
	}
	return id, nil
}
