package internal

import (
	"fmt"

	"github.com/lychee-technology/jsonerd"
)

// BuildGraph maps collections to nodes and relations to edges, in model
// order. No positions are assigned.
func BuildGraph(model *jsonerd.Model) jsonerd.Graph {
	graph := jsonerd.Graph{
		Nodes: make([]jsonerd.Node, 0, model.Collections.Len()),
		Edges: make([]jsonerd.Edge, 0, len(model.Relations)),
	}

	model.Collections.Each(func(c *jsonerd.Collection) {
		graph.Nodes = append(graph.Nodes, jsonerd.Node{
			ID:          c.Name,
			Label:       c.Name,
			Fields:      c.Fields,
			IsChildNode: c.HasParent(),
		})
	})

	for i, rel := range model.Relations {
		graph.Edges = append(graph.Edges, jsonerd.Edge{
			ID:            fmt.Sprintf("e%d-%s-%s", i, rel.Source, rel.Target),
			Source:        rel.Source,
			Target:        rel.Target,
			SourceHandle:  rel.SourceAnchor,
			TargetHandle:  rel.TargetAnchor,
			Label:         rel.Label,
			IsParentChild: rel.IsParentChild(),
			RelationType:  rel.RelationType,
		})
	}

	return graph
}
