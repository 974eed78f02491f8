package refgraph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// NodeKind distinguishes the origin of a graph node.
type NodeKind int

const (
	// NodeFile represents a source file from the corpus. Every corpus file
	// gets one of these, even when it has no edges.
	NodeFile NodeKind = iota
	// NodeAnchor represents an individual anchor declaration. Only present
	// with anchor granularity.
	NodeAnchor
	// NodeCitation represents an external bibliography key, created lazily
	// when the first citation to it is seen.
	NodeCitation
	// NodeMissing represents the synthetic target of an unresolved
	// reference: an anchor name with no declaration anywhere in the corpus.
	NodeMissing
)

// String returns the lowercase name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case NodeFile:
		return "file"
	case NodeAnchor:
		return "anchor"
	case NodeCitation:
		return "citation"
	case NodeMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// EdgeKind tags the relationship an edge represents. Exporters use it to
// style edges distinctly.
type EdgeKind string

const (
	// EdgeReference is a resolved anchor reference.
	EdgeReference EdgeKind = "reference"
	// EdgeCitation is a citation; citations always resolve syntactically,
	// bibliography validation is out of scope.
	EdgeCitation EdgeKind = "citation"
	// EdgeUnresolved is a reference whose anchor was never declared. Broken
	// references are first-class graph content, never silently dropped.
	EdgeUnresolved EdgeKind = "unresolved"
)

// Node is a vertex in the reference graph. ID is unique across the graph;
// Label is the human-readable identifier used by exporters (for files, the
// path relative to the corpus root).
type Node struct {
	ID    string
	Kind  NodeKind
	Label string
}

// Edge is one reference relationship between two nodes. Count is the number
// of parallel references folded into this edge; it is 1 unless the builder
// collapsed parallel edges.
type Edge struct {
	From  string
	To    string
	Kind  EdgeKind
	Count int
}

// Graph is a directed multigraph of reference relationships. Nodes and edges
// preserve insertion order, which exporters rely on for deterministic output.
// Unlike the inclusion structure, the reference graph may legitimately
// contain cycles (mutual references) and represents them as-is.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// use; it is built by the single-threaded build phase and read-only after.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
}

// New creates an empty reference graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Returns ErrInvalidNodeID if the node ID
// is empty, or ErrDuplicateNodeID if a node with the same ID already exists.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Label == "" {
		n.Label = n.ID
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Returns
// ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint is missing.
// Multiple edges between the same ordered pair are allowed; that is the
// default representation of repeated references.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Count == 0 {
		e.Count = 1
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs this node has edges to, in edge insertion order.
// The returned slice is a read-only view.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs that have edges to this node, in edge insertion
// order. The returned slice is a read-only view.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }
