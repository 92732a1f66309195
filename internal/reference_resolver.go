package internal

import (
	"github.com/lychee-technology/jsonerd"
)

// ReferenceResolver derives relations between the collections of a set.
type ReferenceResolver struct {
	heuristics jsonerd.HeuristicsConfig
}

// NewReferenceResolver creates a resolver using the given naming tables.
func NewReferenceResolver(heuristics jsonerd.HeuristicsConfig) *ReferenceResolver {
	return &ReferenceResolver{heuristics: heuristics}
}

// collectionPair is an unordered pair of collection names.
type collectionPair struct {
	a, b string
}

func pairOf(x, y string) collectionPair {
	if x > y {
		x, y = y, x
	}
	return collectionPair{a: x, b: y}
}

// Resolve returns lineage edges, then suffix-convention references, then
// name-equality references. A reference between two collections already
// joined by a lineage edge, in either direction, is dropped.
func (r *ReferenceResolver) Resolve(set *jsonerd.CollectionSet) []jsonerd.Relation {
	relations := make([]jsonerd.Relation, 0)
	lineage := NewSet[collectionPair]()

	set.Each(func(c *jsonerd.Collection) {
		if !c.HasParent() {
			return
		}
		relationType := c.RelationType
		if relationType == "" {
			relationType = jsonerd.RelationTypeEmbedded
		}
		relationField := c.RelationField
		if relationField == "" {
			relationField = c.Name
		}
		relations = append(relations, jsonerd.Relation{
			Source:       c.ParentCollection,
			Target:       c.Name,
			Kind:         jsonerd.RelationKindParentChild,
			Label:        "has " + relationField,
			SourceAnchor: jsonerd.AnchorBottom,
			TargetAnchor: jsonerd.AnchorTop,
			RelationType: relationType,
		})
		lineage.Add(pairOf(c.ParentCollection, c.Name))
	})

	set.Each(func(c *jsonerd.Collection) {
		c.Fields.Each(func(fd *jsonerd.FieldDescriptor) {
			target, ok := r.heuristics.ReferenceTarget(fd.Name)
			if !ok || !set.Has(target) || lineage.Contains(pairOf(c.Name, target)) {
				return
			}
			relations = append(relations, reference(c.Name, target, fd.Name+" → _id"))
		})
	})

	names := set.Names()
	set.Each(func(c *jsonerd.Collection) {
		c.Fields.Each(func(fd *jsonerd.FieldDescriptor) {
			for _, target := range names {
				if target == c.Name || !r.heuristics.NamesMatch(fd.Name, target) {
					continue
				}
				if lineage.Contains(pairOf(c.Name, target)) {
					continue
				}
				relations = append(relations, reference(c.Name, target, fd.Name))
			}
		})
	})

	return relations
}

func reference(source, target, label string) jsonerd.Relation {
	return jsonerd.Relation{
		Source:       source,
		Target:       target,
		Kind:         jsonerd.RelationKindReference,
		Label:        label,
		SourceAnchor: jsonerd.AnchorRight,
		TargetAnchor: jsonerd.AnchorLeft,
		RelationType: jsonerd.RelationTypeReference,
	}
}
