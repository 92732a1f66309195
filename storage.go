package jsonerd

import (
	"context"
)

// Analyzer infers an entity-relationship model from JSON documents.
type Analyzer interface {
	// Analyze runs the full inference pipeline. rootName may be blank to use
	// the configured default collection name.
	Analyze(doc Value, rootName string) *Model
	// AnalyzeJSON parses raw first; malformed input returns a validation error.
	AnalyzeJSON(raw []byte, rootName string) (*Model, error)
}

// ShareCodec converts working state to and from a URL-safe token.
type ShareCodec interface {
	Encode(state ShareState) (string, error)
	Decode(token string) (ShareState, error)
	ShareURL(baseURL string, state ShareState) (string, error)
	StateFromURL(rawURL string) (ShareState, error)
}

// SnapshotStore persists share states under short ids.
type SnapshotStore interface {
	Save(ctx context.Context, state ShareState) (string, error)
	Load(ctx context.Context, id string) (ShareState, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}
