package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Thagi/paper-scope/internal/domain"
)

// networkRow is one matched (paper, concept, other paper) triple together
// with the two RELATES_TO relationships that produced it.
type networkRow struct {
	Paper    neo4j.Node
	Other    neo4j.Node
	Concept  neo4j.Node
	Rel      neo4j.Relationship
	OtherRel *neo4j.Relationship
}

// conceptRow is one Paper->Concept edge from the expansion pass that fills
// in the complete concept edge set of every matched paper.
type conceptRow struct {
	Paper   neo4j.Node
	Concept neo4j.Node
	Rel     neo4j.Relationship
}

// GetPaperNetwork projects the cross-paper concept network. Pair discovery
// matches every (paper, concept, other paper) triple where both papers
// relate to the same concept, bounded to limit matched triples; the cap
// bounds triples, not distinct papers or pairs, so highly connected papers
// can be under-represented in large stores (inherited behavior). A second
// read inside the same transaction then expands each matched paper to its
// full RELATES_TO edge set, so the response shows everything those papers
// relate to, not just the shared concepts.
func (r *Repository) GetPaperNetwork(ctx context.Context, limit int) (domain.PaperGraph, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (p:Paper)-[r:RELATES_TO]->(c:Concept)<-[r2:RELATES_TO]-(other:Paper)
WHERE p.external_id <> other.external_id
RETURN p, r, r2, c, other
LIMIT $limit
`, map[string]any{"limit": int64(limit)})
		if err != nil {
			return nil, err
		}

		rows := make([]networkRow, 0, limit)
		paperIDs := make([]any, 0)
		seenPapers := make(map[string]bool)
		for res.Next(ctx) {
			record := res.Record()
			paper, ok1 := value[neo4j.Node](record, "p")
			other, ok2 := value[neo4j.Node](record, "other")
			concept, ok3 := value[neo4j.Node](record, "c")
			rel, ok4 := value[neo4j.Relationship](record, "r")
			if !ok1 || !ok2 || !ok3 || !ok4 {
				continue
			}
			row := networkRow{Paper: paper, Other: other, Concept: concept, Rel: rel}
			if otherRel, ok := value[neo4j.Relationship](record, "r2"); ok {
				row.OtherRel = &otherRel
			}
			rows = append(rows, row)

			for _, node := range []neo4j.Node{paper, other} {
				if id := stringProp(node.Props, "external_id"); id != "" && !seenPapers[id] {
					seenPapers[id] = true
					paperIDs = append(paperIDs, id)
				}
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		expansion := make([]conceptRow, 0)
		if len(paperIDs) > 0 {
			res, err := tx.Run(ctx, `
MATCH (p:Paper)-[r:RELATES_TO]->(c:Concept)
WHERE p.external_id IN $ids
RETURN p, r, c
`, map[string]any{"ids": paperIDs})
			if err != nil {
				return nil, err
			}
			for res.Next(ctx) {
				record := res.Record()
				paper, ok1 := value[neo4j.Node](record, "p")
				concept, ok2 := value[neo4j.Node](record, "c")
				rel, ok3 := value[neo4j.Relationship](record, "r")
				if !ok1 || !ok2 || !ok3 {
					continue
				}
				expansion = append(expansion, conceptRow{Paper: paper, Concept: concept, Rel: rel})
			}
			if err := res.Err(); err != nil {
				return nil, err
			}
		}

		return buildNetworkGraph(rows, expansion), nil
	})
	if err != nil {
		return domain.EmptyPaperGraph(), fmt.Errorf("graph: paper network: %w", err)
	}
	return out.(domain.PaperGraph), nil
}

func value[T any](record *neo4j.Record, key string) (T, bool) {
	raw, _ := record.Get(key)
	v, ok := raw.(T)
	return v, ok
}

type conceptEdge struct {
	source    string
	target    string
	relations map[string]bool
}

type paperPair struct {
	concepts map[string]bool
	first    string
	second   string
}

// buildNetworkGraph aggregates matched triples and expansion edges into the
// combined graph: one Paper->Concept edge per (paper, concept) pair with the
// relation labels of every contributing row merged into a sorted set, and
// one derived SHARES_CONCEPT edge per unordered paper pair carrying the
// sorted shared concept labels and their count as weight. Output order
// follows first appearance in the input rows, which keeps responses
// deterministic for a given result set.
func buildNetworkGraph(rows []networkRow, expansion []conceptRow) domain.PaperGraph {
	out := domain.EmptyPaperGraph()

	nodeByID := make(map[string]domain.GraphNode)
	nodeOrder := make([]string, 0)

	conceptEdges := make(map[string]*conceptEdge)
	conceptEdgeOrder := make([]string, 0)

	pairs := make(map[string]*paperPair)
	pairOrder := make([]string, 0)

	register := func(node neo4j.Node) string {
		graphNode := graphNodeFromNode(node)
		if _, ok := nodeByID[graphNode.ID]; !ok {
			nodeByID[graphNode.ID] = graphNode
			nodeOrder = append(nodeOrder, graphNode.ID)
		}
		return graphNode.ID
	}

	addConceptEdge := func(paperID, conceptID, relation string) {
		key := paperID + "->" + conceptID
		edge, ok := conceptEdges[key]
		if !ok {
			edge = &conceptEdge{source: paperID, target: conceptID, relations: make(map[string]bool)}
			conceptEdges[key] = edge
			conceptEdgeOrder = append(conceptEdgeOrder, key)
		}
		if relation != "" {
			edge.relations[relation] = true
		}
	}

	relationLabel := func(rel *neo4j.Relationship) string {
		if rel == nil {
			return "RELATES_TO"
		}
		if label, ok := rel.Props["relation"].(string); ok && label != "" {
			return label
		}
		if rel.Type != "" {
			return rel.Type
		}
		return "RELATES_TO"
	}

	for _, row := range rows {
		paperID := register(row.Paper)
		otherID := register(row.Other)
		conceptID := register(row.Concept)

		addConceptEdge(paperID, conceptID, relationLabel(&row.Rel))
		addConceptEdge(otherID, conceptID, relationLabel(row.OtherRel))

		first, second := paperID, otherID
		if second < first {
			first, second = second, first
		}
		pairKey := first + ":::" + second
		pair, ok := pairs[pairKey]
		if !ok {
			pair = &paperPair{concepts: make(map[string]bool), first: first, second: second}
			pairs[pairKey] = pair
			pairOrder = append(pairOrder, pairKey)
		}
		conceptLabel := conceptID
		if node, ok := nodeByID[conceptID]; ok {
			conceptLabel = node.Label
		}
		pair.concepts[conceptLabel] = true
	}

	for _, row := range expansion {
		paperID := register(row.Paper)
		conceptID := register(row.Concept)
		addConceptEdge(paperID, conceptID, relationLabel(&row.Rel))
	}

	for _, id := range nodeOrder {
		out.Nodes = append(out.Nodes, nodeByID[id])
	}

	for _, key := range conceptEdgeOrder {
		edge := conceptEdges[key]
		relations := make([]string, 0, len(edge.relations))
		for relation := range edge.relations {
			relations = append(relations, relation)
		}
		sort.Strings(relations)
		metadata := map[string]any{}
		if len(relations) > 0 {
			metadata["relations"] = relations
		}
		out.Edges = append(out.Edges, domain.GraphEdge{
			ID:       key,
			Source:   edge.source,
			Target:   edge.target,
			Type:     "RELATES_TO",
			Metadata: metadata,
		})
	}

	for _, key := range pairOrder {
		pair := pairs[key]
		shared := make([]string, 0, len(pair.concepts))
		for label := range pair.concepts {
			shared = append(shared, label)
		}
		sort.Strings(shared)
		out.Edges = append(out.Edges, domain.GraphEdge{
			ID:     key,
			Source: pair.first,
			Target: pair.second,
			Type:   "SHARES_CONCEPT",
			Metadata: map[string]any{
				"shared_concepts": shared,
				"weight":          len(shared),
			},
		})
	}

	return out
}
