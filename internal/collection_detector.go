package internal

import (
	"strconv"

	"github.com/lychee-technology/jsonerd"
	"go.uber.org/zap"
)

// CollectionDetector promotes nested objects and arrays of objects with
// collection-like keys into their own collections.
type CollectionDetector struct {
	heuristics jsonerd.HeuristicsConfig
}

// NewCollectionDetector creates a detector using the given naming tables.
func NewCollectionDetector(heuristics jsonerd.HeuristicsConfig) *CollectionDetector {
	return &CollectionDetector{heuristics: heuristics}
}

// Extract walks the children of data and merges every embedded collection it
// finds into acc. parentName is the collection data belongs to, or "" when
// extracted collections should carry no lineage.
//
// Arrays contribute the schema of their first element and are not searched
// further. Objects are extracted and then searched recursively with
// themselves as parent.
func (d *CollectionDetector) Extract(data jsonerd.Value, acc *jsonerd.CollectionSet, parentName string) {
	for _, m := range children(data) {
		key, value := m.Key, m.Value
		if !value.Kind().Structured() {
			continue
		}
		if !d.heuristics.IsCollectionLike(key) {
			continue
		}

		switch value.Kind() {
		case jsonerd.KindArray:
			items := value.Items()
			if len(items) == 0 || !items[0].Kind().Structured() {
				continue
			}
			d.promote(acc, key, AnalyzeFields(items[0]), parentName, true)
		case jsonerd.KindObject:
			if value.Len() == 0 {
				continue
			}
			d.promote(acc, key, AnalyzeFields(value), parentName, false)
			d.Extract(value, acc, key)
		}
	}
}

func (d *CollectionDetector) promote(acc *jsonerd.CollectionSet, key string, fields *jsonerd.Fields, parentName string, fromArray bool) {
	if parentName != "" {
		if parent, ok := acc.Get(parentName); ok {
			parent.Fields.Replace(key, &jsonerd.FieldDescriptor{
				Name:     key + d.heuristics.RefFlagSuffix,
				Type:     jsonerd.TypeBoolean,
				Ref:      key,
				RefArray: fromArray,
			})
		}
	}

	collection := jsonerd.NewCollection(key, fields)
	collection.RelationField = key
	if parentName != "" {
		collection.ParentCollection = parentName
		collection.RelationType = jsonerd.RelationTypeChild
	} else {
		collection.RelationType = jsonerd.RelationTypeEmbedded
	}

	if acc.Merge(collection) {
		zap.S().Debugw("collection name collision, keeping latest", "collection", key, "parent", parentName)
	}
}

// children lists the key/value pairs of a structured value. Array elements
// are keyed by index.
func children(v jsonerd.Value) []jsonerd.Member {
	switch v.Kind() {
	case jsonerd.KindObject:
		return v.Object().Members()
	case jsonerd.KindArray:
		items := v.Items()
		out := make([]jsonerd.Member, len(items))
		for i, item := range items {
			out[i] = jsonerd.Member{Key: strconv.Itoa(i), Value: item}
		}
		return out
	default:
		return nil
	}
}
