package domain

// GraphNode is the external node shape consumed by presentation layers.
// Metadata is an open map and only ever carries non-empty values.
type GraphNode struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

// GraphEdge is the external edge shape. The id is stable and distinct per
// edge within one response.
type GraphEdge struct {
	ID       string         `json:"id"`
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

// PaperGraph is a bounded node/edge payload projected from the store.
type PaperGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// EmptyPaperGraph returns a graph with allocated, empty slices so the JSON
// rendering is {"nodes":[],"edges":[]} rather than nulls.
func EmptyPaperGraph() PaperGraph {
	return PaperGraph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
}
