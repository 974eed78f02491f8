package refgraph

// Granularity selects what a graph node stands for.
type Granularity string

const (
	// GranularityFile makes one node per source file (the default).
	GranularityFile Granularity = "file"
	// GranularityAnchor additionally makes one node per declared anchor and
	// attaches edges to the anchors themselves.
	GranularityAnchor Granularity = "anchor"
)

// Synthetic node ID prefixes. File nodes use the bare path as ID, so
// prefixes keep anchors and external keys from colliding with path names.
const (
	anchorIDPrefix   = "anchor:"
	citationIDPrefix = "cite:"
	missingIDPrefix  = "missing:"
)

// AnchorNodeID returns the graph node ID for a declared anchor.
func AnchorNodeID(name string) string { return anchorIDPrefix + name }

// CitationNodeID returns the graph node ID for an external citation key.
func CitationNodeID(key string) string { return citationIDPrefix + key }

// MissingNodeID returns the graph node ID for an undeclared anchor name.
func MissingNodeID(name string) string { return missingIDPrefix + name }

// Anchor is a declared anchor and the file that owns its declaration.
type Anchor struct {
	Name string
	File string
}

// Reference is one resolved (or unresolved) reference relationship, as
// produced by the resolver in deterministic order: file traversal order,
// then in-file token order.
type Reference struct {
	// SourceFile is the file containing the reference token.
	SourceFile string
	// SourceAnchor is the nearest anchor declared before the reference in
	// the same file, or empty when the reference precedes any declaration.
	// Only used with anchor granularity.
	SourceAnchor string
	// Key is the referenced anchor name or citation key.
	Key string
	// TargetFile is the file owning the matched declaration. Empty for
	// citations and unresolved references.
	TargetFile string
	// Kind tags the edge this reference becomes.
	Kind EdgeKind
}

// BuildOptions configures graph construction. The zero value builds a
// file-granularity multigraph with parallel edges preserved.
type BuildOptions struct {
	// Granularity selects file or anchor nodes. Defaults to GranularityFile.
	Granularity Granularity
	// CollapseParallelEdges folds repeated edges between the same ordered
	// pair into a single edge annotated with a count. Off by default: the
	// result is a reference graph, not a reachability set, so every
	// reference is one edge unless explicitly collapsed.
	CollapseParallelEdges bool
}

// Build assembles the reference graph from the resolver's outputs.
//
// files must list every corpus file in traversal order; each becomes a node
// even when isolated, so the exporter never silently drops a file. Synthetic
// nodes for citation keys and undeclared anchors are created lazily in edge
// order. With anchor granularity, declared anchors become nodes as well and
// edges run between anchors where possible, falling back to the file node
// for references that precede any declaration in their file.
func Build(files []string, anchors []Anchor, refs []Reference, opts BuildOptions) *Graph {
	if opts.Granularity == "" {
		opts.Granularity = GranularityFile
	}

	g := New()
	for _, path := range files {
		_ = g.AddNode(Node{ID: path, Kind: NodeFile, Label: path})
	}
	if opts.Granularity == GranularityAnchor {
		for _, a := range anchors {
			_ = g.AddNode(Node{ID: AnchorNodeID(a.Name), Kind: NodeAnchor, Label: a.Name})
		}
	}

	edges := make([]Edge, 0, len(refs))
	for _, ref := range refs {
		e := Edge{
			From:  sourceID(g, ref, opts.Granularity),
			To:    targetID(ref, opts.Granularity),
			Kind:  ref.Kind,
			Count: 1,
		}
		ensureTarget(g, ref)
		edges = append(edges, e)
	}

	if opts.CollapseParallelEdges {
		edges = collapse(edges)
	}
	for _, e := range edges {
		_ = g.AddEdge(e)
	}
	return g
}

// sourceID picks the edge source: the enclosing anchor with anchor
// granularity when one precedes the reference, otherwise the file node.
func sourceID(g *Graph, ref Reference, gran Granularity) string {
	if gran == GranularityAnchor && ref.SourceAnchor != "" {
		if _, ok := g.Node(AnchorNodeID(ref.SourceAnchor)); ok {
			return AnchorNodeID(ref.SourceAnchor)
		}
	}
	return ref.SourceFile
}

// targetID picks the edge target for a reference. Resolved references point
// at the declaring file, or at the anchor node itself with anchor
// granularity; citations and unresolved references point at synthetic nodes
// keyed by the name.
func targetID(ref Reference, gran Granularity) string {
	switch ref.Kind {
	case EdgeCitation:
		return CitationNodeID(ref.Key)
	case EdgeUnresolved:
		return MissingNodeID(ref.Key)
	default:
		if gran == GranularityAnchor {
			return AnchorNodeID(ref.Key)
		}
		return ref.TargetFile
	}
}

// ensureTarget lazily creates the synthetic node an edge needs.
func ensureTarget(g *Graph, ref Reference) {
	switch ref.Kind {
	case EdgeCitation:
		_ = g.AddNode(Node{ID: CitationNodeID(ref.Key), Kind: NodeCitation, Label: ref.Key})
	case EdgeUnresolved:
		_ = g.AddNode(Node{ID: MissingNodeID(ref.Key), Kind: NodeMissing, Label: ref.Key})
	}
}

// collapse folds parallel edges into one edge per (from, to, kind) triple,
// keeping first-seen order and summing counts.
func collapse(edges []Edge) []Edge {
	type key struct {
		from, to string
		kind     EdgeKind
	}
	index := make(map[key]int)
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		k := key{e.From, e.To, e.Kind}
		if i, ok := index[k]; ok {
			out[i].Count += e.Count
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}
	return out
}
