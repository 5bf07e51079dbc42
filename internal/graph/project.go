package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Thagi/paper-scope/internal/domain"
)

// GetPaperGraph expands one paper to its directly connected nodes and edges.
// An unknown external id yields an empty graph, not an error; translating
// absence into a 404 belongs to the API layer.
func (r *Repository) GetPaperGraph(ctx context.Context, externalID string) (domain.PaperGraph, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (p:Paper {external_id: $external_id})
OPTIONAL MATCH (p)-[r]->(n)
RETURN p, collect(DISTINCT r) AS rels, collect(DISTINCT n) AS nodes
`, map[string]any{"external_id": externalID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return domain.EmptyPaperGraph(), nil
		}

		rawPaper, _ := records[0].Get("p")
		paper, ok := rawPaper.(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected value for paper node: %T", rawPaper)
		}
		neighbors := collectNodes(records[0], "nodes")
		rels := collectRelationships(records[0], "rels")
		return projectNeighborhood(paper, neighbors, rels), nil
	})
	if err != nil {
		return domain.EmptyPaperGraph(), fmt.Errorf("graph: paper graph %s: %w", externalID, err)
	}
	return out.(domain.PaperGraph), nil
}

func collectNodes(record *neo4j.Record, key string) []neo4j.Node {
	raw, _ := record.Get(key)
	list, _ := raw.([]any)
	out := make([]neo4j.Node, 0, len(list))
	for _, item := range list {
		if node, ok := item.(neo4j.Node); ok {
			out = append(out, node)
		}
	}
	return out
}

func collectRelationships(record *neo4j.Record, key string) []neo4j.Relationship {
	raw, _ := record.Get(key)
	list, _ := raw.([]any)
	out := make([]neo4j.Relationship, 0, len(list))
	for _, item := range list {
		if rel, ok := item.(neo4j.Relationship); ok {
			out = append(out, rel)
		}
	}
	return out
}

// projectNeighborhood serializes a paper and its direct neighbors into the
// external graph shape. The element-id to graph-id mapping is built once and
// reused for every edge endpoint so a node never appears under two ids.
func projectNeighborhood(paper neo4j.Node, neighbors []neo4j.Node, rels []neo4j.Relationship) domain.PaperGraph {
	out := domain.EmptyPaperGraph()
	elementToGraphID := make(map[string]string, len(neighbors)+1)
	seen := make(map[string]bool, len(neighbors)+1)

	register := func(node neo4j.Node) {
		graphNode := graphNodeFromNode(node)
		elementToGraphID[node.ElementId] = graphNode.ID
		if !seen[graphNode.ID] {
			seen[graphNode.ID] = true
			out.Nodes = append(out.Nodes, graphNode)
		}
	}

	register(paper)
	for _, node := range neighbors {
		register(node)
	}

	for _, rel := range rels {
		sourceID := elementToGraphID[rel.StartElementId]
		targetID := elementToGraphID[rel.EndElementId]
		if sourceID == "" || targetID == "" {
			continue
		}
		out.Edges = append(out.Edges, domain.GraphEdge{
			ID:       rel.ElementId,
			Source:   sourceID,
			Target:   targetID,
			Type:     rel.Type,
			Metadata: cleanMetadata(rel.Props),
		})
	}
	return out
}

// graphNodeFromNode applies the per-label projection rules. Unlabeled or
// foreign nodes degrade to a generic Entity shape.
func graphNodeFromNode(node neo4j.Node) domain.GraphNode {
	labels := make(map[string]bool, len(node.Labels))
	for _, label := range node.Labels {
		labels[label] = true
	}

	switch {
	case labels["Paper"]:
		id := stringProp(node.Props, "external_id")
		if id == "" {
			id = node.ElementId
		}
		label := stringProp(node.Props, "title")
		if label == "" {
			label = id
		}
		metadata := map[string]any{
			"tags":        stringSliceProp(node.Props, "tags"),
			"summary":     stringProp(node.Props, "summary"),
			"authors":     stringSliceProp(node.Props, "authors"),
			"landing_url": stringProp(node.Props, "landing_url"),
		}
		if published := timeProp(node.Props, "published_at"); published != nil {
			metadata["published_at"] = published.Format(time.RFC3339)
		}
		return domain.GraphNode{ID: id, Label: label, Type: "Paper", Metadata: cleanMetadata(metadata)}

	case labels["Author"]:
		id := stringProp(node.Props, "name")
		if id == "" {
			id = node.ElementId
		}
		return domain.GraphNode{ID: id, Label: id, Type: "Author", Metadata: map[string]any{}}

	case labels["Concept"]:
		id := stringProp(node.Props, "normalized_name")
		if id == "" {
			id = stringProp(node.Props, "name")
		}
		if id == "" {
			id = node.ElementId
		}
		label := stringProp(node.Props, "name")
		if label == "" {
			label = id
		}
		metadata := map[string]any{
			"tags":        stringSliceProp(node.Props, "tags"),
			"description": stringProp(node.Props, "description"),
		}
		return domain.GraphNode{ID: id, Label: label, Type: "Concept", Metadata: cleanMetadata(metadata)}

	default:
		id := stringProp(node.Props, "external_id")
		if id == "" {
			id = stringProp(node.Props, "name")
		}
		if id == "" {
			id = node.ElementId
		}
		label := stringProp(node.Props, "title")
		if label == "" {
			label = stringProp(node.Props, "name")
		}
		if label == "" {
			label = id
		}
		metadata := map[string]any{"tags": stringSliceProp(node.Props, "tags")}
		return domain.GraphNode{ID: id, Label: label, Type: "Entity", Metadata: cleanMetadata(metadata)}
	}
}
