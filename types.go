package jsonerd

import (
	"bytes"
	"encoding/json"
)

// Field type names produced by the type analyzer. Arrays of primitives use
// ArrayOf, e.g. "array<string>".
const (
	TypeNull        = "null"
	TypeBoolean     = "boolean"
	TypeNumber      = "number"
	TypeString      = "string"
	TypeObject      = "object"
	TypeArray       = "array"
	TypeArrayObject = "array<object>"
)

// ArrayOf returns the type name of a non-empty array whose first element has
// the given primitive type.
func ArrayOf(elementType string) string {
	return "array<" + elementType + ">"
}

// FieldDescriptor describes one field of a collection.
type FieldDescriptor struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	IsExpandable bool    `json:"isExpandable"`
	Content      *Fields `json:"content,omitempty"`

	// Ref is set on the boolean flag left in a parent collection after a
	// child collection was extracted from it.
	Ref      string `json:"ref,omitempty"`
	RefArray bool   `json:"refArray,omitempty"`
}

// Fields is an insertion-ordered mapping from field name to descriptor.
type Fields struct {
	names  []string
	byName map[string]*FieldDescriptor
}

// NewFields returns an empty field mapping.
func NewFields() *Fields {
	return &Fields{byName: make(map[string]*FieldDescriptor)}
}

// Set stores fd under fd.Name. An existing name keeps its position.
func (f *Fields) Set(fd *FieldDescriptor) {
	if _, ok := f.byName[fd.Name]; !ok {
		f.names = append(f.names, fd.Name)
	}
	f.byName[fd.Name] = fd
}

// Replace puts fd in the slot currently held by oldName. When oldName is
// absent fd is stored as by Set. A different entry already named fd.Name is
// dropped so names stay unique.
func (f *Fields) Replace(oldName string, fd *FieldDescriptor) {
	pos := f.indexOf(oldName)
	if pos < 0 {
		f.Set(fd)
		return
	}
	if fd.Name != oldName {
		if _, exists := f.byName[fd.Name]; exists {
			f.Delete(fd.Name)
			pos = f.indexOf(oldName)
		}
		delete(f.byName, oldName)
	}
	f.names[pos] = fd.Name
	f.byName[fd.Name] = fd
}

// Delete removes name from the mapping.
func (f *Fields) Delete(name string) {
	pos := f.indexOf(name)
	if pos < 0 {
		return
	}
	f.names = append(f.names[:pos], f.names[pos+1:]...)
	delete(f.byName, name)
}

func (f *Fields) indexOf(name string) int {
	if _, ok := f.byName[name]; !ok {
		return -1
	}
	for i, n := range f.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Get returns the descriptor stored under name.
func (f *Fields) Get(name string) (*FieldDescriptor, bool) {
	if f == nil {
		return nil, false
	}
	fd, ok := f.byName[name]
	return fd, ok
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Names returns field names in insertion order.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Each calls fn for every field in insertion order.
func (f *Fields) Each(fn func(fd *FieldDescriptor)) {
	if f == nil {
		return
	}
	for _, name := range f.names {
		fn(f.byName[name])
	}
}

// MarshalJSON encodes the mapping as an ordered JSON object.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if f != nil {
		for i, name := range f.names {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(name)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, err := json.Marshal(f.byName[name])
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RelationType records how a collection came to exist.
type RelationType string

const (
	RelationTypeChild     RelationType = "child"
	RelationTypeEmbedded  RelationType = "embedded"
	RelationTypeReference RelationType = "reference"
)

// Collection is an inferred record type.
type Collection struct {
	Name   string  `json:"name"`
	Fields *Fields `json:"fields"`

	// Lineage, set when the collection was extracted from another one.
	ParentCollection string       `json:"parentCollection,omitempty"`
	RelationType     RelationType `json:"relationType,omitempty"`
	RelationField    string       `json:"relationField,omitempty"`
}

// NewCollection returns an empty collection named name.
func NewCollection(name string, fields *Fields) *Collection {
	if fields == nil {
		fields = NewFields()
	}
	return &Collection{Name: name, Fields: fields}
}

// HasParent reports whether the collection was extracted under a parent.
func (c *Collection) HasParent() bool {
	return c.ParentCollection != ""
}

// CollectionSet is an insertion-ordered set of collections keyed by name.
type CollectionSet struct {
	names  []string
	byName map[string]*Collection
}

// NewCollectionSet returns an empty set.
func NewCollectionSet() *CollectionSet {
	return &CollectionSet{byName: make(map[string]*Collection)}
}

// Merge stores c, replacing any collection with the same name. A replaced
// collection keeps its position; nothing of its content survives.
func (s *CollectionSet) Merge(c *Collection) (replaced bool) {
	if _, ok := s.byName[c.Name]; ok {
		replaced = true
	} else {
		s.names = append(s.names, c.Name)
	}
	s.byName[c.Name] = c
	return replaced
}

// Get returns the collection named name.
func (s *CollectionSet) Get(name string) (*Collection, bool) {
	if s == nil {
		return nil, false
	}
	c, ok := s.byName[name]
	return c, ok
}

// Has reports whether a collection named name exists.
func (s *CollectionSet) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Len returns the number of collections.
func (s *CollectionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns collection names in insertion order.
func (s *CollectionSet) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Each calls fn for every collection in insertion order.
func (s *CollectionSet) Each(fn func(c *Collection)) {
	if s == nil {
		return
	}
	for _, name := range s.names {
		fn(s.byName[name])
	}
}

// MarshalJSON encodes the set as an ordered JSON object keyed by name.
func (s *CollectionSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if s != nil {
		for i, name := range s.names {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(name)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, err := json.Marshal(s.byName[name])
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RelationKind distinguishes structural from inferred edges.
type RelationKind string

const (
	RelationKindParentChild RelationKind = "parent-child"
	RelationKindReference   RelationKind = "reference"
)

// Anchor is a symbolic attachment point for rendering.
type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
	AnchorLeft   Anchor = "left"
	AnchorRight  Anchor = "right"
)

// Relation is a directed edge between two collections.
type Relation struct {
	Source       string       `json:"source"`
	Target       string       `json:"target"`
	Kind         RelationKind `json:"kind"`
	Label        string       `json:"label"`
	SourceAnchor Anchor       `json:"sourceAnchor"`
	TargetAnchor Anchor       `json:"targetAnchor"`
	RelationType RelationType `json:"relationType"`
}

// IsParentChild reports whether the relation is a lineage edge.
func (r Relation) IsParentChild() bool {
	return r.Kind == RelationKindParentChild
}

// Model is the inferred entity-relationship model of one document.
type Model struct {
	Root        string         `json:"root"`
	Collections *CollectionSet `json:"collections"`
	Relations   []Relation     `json:"relations"`
}

// Node is the rendering-facing view of a collection.
type Node struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Fields      *Fields `json:"fields"`
	IsChildNode bool    `json:"isChildNode"`
}

// Edge is the rendering-facing view of a relation.
type Edge struct {
	ID            string       `json:"id"`
	Source        string       `json:"source"`
	Target        string       `json:"target"`
	SourceHandle  Anchor       `json:"sourceHandle"`
	TargetHandle  Anchor       `json:"targetHandle"`
	Label         string       `json:"label"`
	IsParentChild bool         `json:"isParentChild"`
	RelationType  RelationType `json:"relationType"`
}

// Graph is the node/edge form of a Model handed to a renderer.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// ShareState is the full working state carried by a share token.
type ShareState struct {
	JSON       Value  `json:"json"`
	Collection string `json:"collection"`
}

// Equal reports whether two states carry the same document and collection.
func (s ShareState) Equal(other ShareState) bool {
	return s.Collection == other.Collection && s.JSON.Equal(other.JSON)
}
