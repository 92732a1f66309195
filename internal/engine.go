package internal

import (
	"fmt"

	"github.com/lychee-technology/jsonerd"
	"go.uber.org/zap"
)

// Engine runs the inference pipeline: field analysis of the root document,
// embedded collection detection, then reference resolution.
type Engine struct {
	heuristics jsonerd.HeuristicsConfig
	detector   *CollectionDetector
	resolver   *ReferenceResolver
}

// NewEngine creates an Engine using the given naming tables.
func NewEngine(heuristics jsonerd.HeuristicsConfig) *Engine {
	return &Engine{
		heuristics: heuristics,
		detector:   NewCollectionDetector(heuristics),
		resolver:   NewReferenceResolver(heuristics),
	}
}

var _ jsonerd.Analyzer = (*Engine)(nil)

// Analyze implements jsonerd.Analyzer.
func (e *Engine) Analyze(doc jsonerd.Value, rootName string) *jsonerd.Model {
	root := e.heuristics.RootName(rootName)

	collections := jsonerd.NewCollectionSet()
	collections.Merge(jsonerd.NewCollection(root, AnalyzeFields(doc)))
	e.detector.Extract(doc, collections, root)

	relations := e.resolver.Resolve(collections)

	zap.S().Debugw("analyzed document",
		"root", root,
		"collections", collections.Len(),
		"relations", len(relations))

	return &jsonerd.Model{
		Root:        root,
		Collections: collections,
		Relations:   relations,
	}
}

// AnalyzeJSON implements jsonerd.Analyzer.
func (e *Engine) AnalyzeJSON(raw []byte, rootName string) (*jsonerd.Model, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	return e.Analyze(doc, rootName), nil
}

// ParseDocument parses user input, rejecting blank text and malformed JSON
// with validation errors.
func ParseDocument(raw []byte) (jsonerd.Value, error) {
	if len(trimSpace(raw)) == 0 {
		return jsonerd.Value{}, jsonerd.NewValidationError(jsonerd.ErrCodeEmptyInput, "", "input is empty")
	}
	doc, err := jsonerd.ParseValue(raw)
	if err != nil {
		return jsonerd.Value{}, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}
