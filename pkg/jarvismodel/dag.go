package jarvismodel

import "sort"

// NodeType is the kind of workflow node.
type NodeType string

const (
	NodeRouter         NodeType = "router"
	NodeContextBuilder NodeType = "context_builder"
	NodeLLMWorker      NodeType = "llm_worker"
	NodeToolCall       NodeType = "tool_call"
	NodeValidator      NodeType = "validator"
)

// DAGNode is one node of a compiled workflow graph.
type DAGNode struct {
	ID     string         `json:"id"`
	Type   NodeType       `json:"type"`
	Inputs map[string]bool `json:"inputs"` // set<node_id>
	Params map[string]any `json:"params,omitempty"`
}

// Edge is a directed edge from one node to another.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a workflow DAG: nodes plus a deduplicated edge list (in insertion
// order; Canonicalize sorts it) and an entry node id.
type Graph struct {
	Nodes map[string]*DAGNode `json:"nodes"`
	Edges []Edge              `json:"edges"`
	Entry string              `json:"entry"`
}

// NewGraph returns an empty graph ready for AddNode/AddEdge.
func NewGraph(entry string) *Graph {
	return &Graph{Nodes: make(map[string]*DAGNode), Entry: entry}
}

// AddNode inserts or replaces a node.
func (g *Graph) AddNode(n *DAGNode) {
	if n.Inputs == nil {
		n.Inputs = make(map[string]bool)
	}
	g.Nodes[n.ID] = n
}

// AddEdge adds a directed edge, deduplicating identical (from,to) pairs and
// recording the dependency on the destination node's Inputs set.
func (g *Graph) AddEdge(from, to string) {
	for _, e := range g.Edges {
		if e.From == from && e.To == to {
			return
		}
	}
	g.Edges = append(g.Edges, Edge{From: from, To: to})
	if n, ok := g.Nodes[to]; ok {
		n.Inputs[from] = true
	}
}

// CanonicalGraph is a copy of the graph with nodes sorted by id and edges
// sorted lexicographically, as produced by Canonicalize.
type CanonicalGraph struct {
	NodeIDs []string        `json:"node_ids"`
	Nodes   []CanonicalNode `json:"nodes"`
	Edges   []Edge          `json:"edges"`
	Entry   string          `json:"entry"`
}

// CanonicalNode is a DAGNode reduced to its deterministic identity — params
// are included since they determine node behavior deterministically, but
// the Inputs set is left out (map iteration order is not stable); the same
// dependencies are carried by the canonical edge list.
type CanonicalNode struct {
	ID     string         `json:"id"`
	Type   NodeType       `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Canonicalize produces a deterministic, order-independent view of the
// graph for trace/graph equality comparisons.
func (g *Graph) Canonicalize() CanonicalGraph {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nodes := make([]CanonicalNode, 0, len(ids))
	for _, id := range ids {
		n := g.Nodes[id]
		nodes = append(nodes, CanonicalNode{ID: n.ID, Type: n.Type, Params: n.Params})
	}

	edges := make([]Edge, len(g.Edges))
	copy(edges, g.Edges)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	return CanonicalGraph{NodeIDs: ids, Nodes: nodes, Edges: edges, Entry: g.Entry}
}
