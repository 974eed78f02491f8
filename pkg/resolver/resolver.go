// Package resolver turns per-file token streams into a consistent set of
// reference edges. It traverses inclusion directives from the entry files,
// collects anchor declarations into a table, and resolves every reference
// token against that table once traversal has completed, so declaration
// order within the corpus never matters.
package resolver

import (
	"context"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/texviz/refgraph/pkg/diag"
	"github.com/texviz/refgraph/pkg/errors"
	"github.com/texviz/refgraph/pkg/refgraph"
	"github.com/texviz/refgraph/pkg/scanner"
)

// sourceSuffix is the corpus file suffix; inclusion targets match it
// extension-insensitively (\input{chapter} finds chapter.tex).
const sourceSuffix = ".tex"

// Declaration records where an anchor was declared.
type Declaration struct {
	Name string
	File string
	Pos  scanner.Position
}

// Tree is the inclusion structure rooted at the entry files. A file may be
// included by more than one parent, so this is a DAG in general; edges that
// would close a cycle are never recorded. Parent keeps the first includer
// seen.
type Tree struct {
	Roots    []string
	children map[string][]string
	parent   map[string]string
}

// Children returns the files included by path, in directive order.
func (t *Tree) Children(p string) []string { return t.children[p] }

// Parent returns the first includer of path, or "" for roots and orphans.
func (t *Tree) Parent(p string) string { return t.parent[p] }

// Resolution is the resolver's complete output. Order lists every corpus
// file in deterministic traversal order (breadth-first from the entries,
// then orphans in sorted path order); Refs follows that order, with in-file
// token order within each file.
type Resolution struct {
	Tree    *Tree
	Order   []string
	Anchors []refgraph.Anchor
	Table   map[string]Declaration
	Refs    []refgraph.Reference
	Report  *diag.Report
}

// Resolve consumes the token streams of all corpus files.
//
// Traversal is breadth-first starting from entries, following inclusion
// tokens whose target matches a corpus file. With no entries, every file is
// an entry in sorted path order (so no file can be an orphan). Anchor names
// are corpus-global: files unreachable from the entry set are flagged as
// orphans but still contribute declarations and references.
//
// The context is checked at each file boundary during traversal and at each
// resolved-edge boundary during resolution, never mid-token.
func Resolve(ctx context.Context, tokens map[string][]scanner.Token, entries []string) (*Resolution, error) {
	paths := slices.Sorted(maps.Keys(tokens))

	if len(entries) == 0 {
		entries = paths
	}
	for _, e := range entries {
		if _, ok := tokens[e]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "entry file %s is not part of the corpus", e)
		}
	}

	r := &resolution{
		tokens: tokens,
		index:  buildIndex(paths),
		tree: &Tree{
			children: make(map[string][]string),
			parent:   make(map[string]string),
		},
		table:   make(map[string]Declaration),
		visited: make(map[string]bool),
		report:  &diag.Report{},
	}

	if err := r.traverse(ctx, entries); err != nil {
		return nil, err
	}
	r.collectOrphans(paths)
	if err := r.resolveRefs(ctx); err != nil {
		return nil, err
	}

	return &Resolution{
		Tree:    r.tree,
		Order:   r.order,
		Anchors: r.anchors,
		Table:   r.table,
		Refs:    r.refs,
		Report:  r.report,
	}, nil
}

type resolution struct {
	tokens map[string][]scanner.Token
	index  map[string]string

	tree    *Tree
	order   []string
	anchors []refgraph.Anchor
	table   map[string]Declaration
	refs    []refgraph.Reference
	report  *diag.Report

	visited map[string]bool
}

// buildIndex maps both the exact path and the path without the source
// suffix to the corpus path, enabling extension-insensitive matching.
func buildIndex(paths []string) map[string]string {
	index := make(map[string]string, 2*len(paths))
	for _, p := range paths {
		index[p] = p
		if trimmed := strings.TrimSuffix(p, sourceSuffix); trimmed != p {
			if _, taken := index[trimmed]; !taken {
				index[trimmed] = p
			}
		}
	}
	return index
}

// traverse walks inclusion directives breadth-first from the entry files,
// populating the inclusion tree and the anchor table in traversal order.
func (r *resolution) traverse(ctx context.Context, entries []string) error {
	queue := make([]string, 0, len(entries))
	for _, e := range entries {
		if !r.visited[e] {
			r.visited[e] = true
			r.tree.Roots = append(r.tree.Roots, e)
			queue = append(queue, e)
		}
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeDeadlineExceeded, err, "inclusion traversal canceled")
		}
		current := queue[0]
		queue = queue[1:]
		r.order = append(r.order, current)

		for _, tok := range r.tokens[current] {
			switch tok.Kind {
			case scanner.KindAnchorDecl:
				r.declare(tok)
			case scanner.KindInclusion:
				if next, ok := r.follow(current, tok); ok {
					queue = append(queue, next)
				}
			case scanner.KindAnchorRef, scanner.KindCitationRef:
				// Resolved in the second pass, once all declarations are visible.
			}
		}
	}
	return nil
}

// follow resolves one inclusion directive. It returns the target path and
// true when the target should be enqueued. Already-visited targets are
// linked into the tree but not revisited; a target from which the includer
// is already reachable closes a cycle, so the edge is reported and dropped,
// keeping the recorded inclusion structure acyclic.
func (r *resolution) follow(from string, tok scanner.Token) (string, bool) {
	target, ok := r.lookup(from, tok.Name)
	if !ok {
		// Targets outside the corpus are not an error: the corpus contract
		// is "process the given files", not "chase the filesystem".
		return "", false
	}

	if r.closesCycle(from, target) {
		r.report.Add(diag.InclusionCycle, from, "inclusion of %s at %s closes a cycle", target, tok.Pos)
		return "", false
	}

	r.tree.children[from] = append(r.tree.children[from], target)
	if r.visited[target] {
		return "", false
	}
	r.visited[target] = true
	r.tree.parent[target] = from
	return target, true
}

// lookup matches an inclusion fragment against the corpus, trying the path
// relative to the including file first, then relative to the corpus root.
func (r *resolution) lookup(from, fragment string) (string, bool) {
	fragment = path.Clean(strings.TrimSpace(fragment))
	candidates := []string{
		path.Join(path.Dir(from), fragment),
		fragment,
	}
	for _, c := range candidates {
		if target, ok := r.index[c]; ok {
			return target, true
		}
	}
	return "", false
}

// closesCycle reports whether linking from → target would create a cycle in
// the recorded inclusion edges, i.e. whether from is already reachable from
// target. Walking the full edge set rather than a single parent chain
// catches cycles that close through a file shared by several includers.
func (r *resolution) closesCycle(from, target string) bool {
	if target == from {
		return true
	}
	seen := map[string]bool{target: true}
	stack := []string{target}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range r.tree.children[current] {
			if child == from {
				return true
			}
			if !seen[child] {
				seen[child] = true
				stack = append(stack, child)
			}
		}
	}
	return false
}

// declare records an anchor declaration. First-seen wins on duplicates,
// which is deterministic because traversal order is deterministic.
func (r *resolution) declare(tok scanner.Token) {
	if prev, exists := r.table[tok.Name]; exists {
		r.report.Add(diag.DuplicateAnchor, tok.File,
			"anchor %s at %s already declared in %s at %s", tok.Name, tok.Pos, prev.File, prev.Pos)
		return
	}
	r.table[tok.Name] = Declaration{Name: tok.Name, File: tok.File, Pos: tok.Pos}
	r.anchors = append(r.anchors, refgraph.Anchor{Name: tok.Name, File: tok.File})
}

// collectOrphans appends files unreachable from the entry set in sorted
// path order. Orphans are reported but still contribute their declarations,
// keeping anchor scope corpus-global.
func (r *resolution) collectOrphans(paths []string) {
	for _, p := range paths {
		if r.visited[p] {
			continue
		}
		r.report.Add(diag.OrphanFile, p, "not reachable from any entry file")
		r.order = append(r.order, p)
		for _, tok := range r.tokens[p] {
			if tok.Kind == scanner.KindAnchorDecl {
				r.declare(tok)
			}
		}
	}
}

// resolveRefs runs after traversal completes, so every declaration is
// visible regardless of where it appears in the corpus. Edges are emitted
// in (file traversal order, in-file token order) to keep exports stable
// across runs.
func (r *resolution) resolveRefs(ctx context.Context) error {
	for _, p := range r.order {
		enclosing := ""
		for _, tok := range r.tokens[p] {
			switch tok.Kind {
			case scanner.KindAnchorDecl:
				enclosing = tok.Name
			case scanner.KindAnchorRef:
				if err := ctx.Err(); err != nil {
					return errors.Wrap(errors.ErrCodeDeadlineExceeded, err, "reference resolution canceled")
				}
				r.refs = append(r.refs, r.anchorRef(tok, enclosing))
			case scanner.KindCitationRef:
				if err := ctx.Err(); err != nil {
					return errors.Wrap(errors.ErrCodeDeadlineExceeded, err, "reference resolution canceled")
				}
				r.refs = append(r.refs, refgraph.Reference{
					SourceFile:   tok.File,
					SourceAnchor: enclosing,
					Key:          tok.Name,
					Kind:         refgraph.EdgeCitation,
				})
			case scanner.KindInclusion:
				// Consumed by the traversal phase.
			}
		}
	}
	return nil
}

// anchorRef resolves one anchor reference against the table. A reference
// with no matching declaration becomes an unresolved edge rather than being
// dropped: broken references are something the graph is meant to show.
func (r *resolution) anchorRef(tok scanner.Token, enclosing string) refgraph.Reference {
	ref := refgraph.Reference{
		SourceFile:   tok.File,
		SourceAnchor: enclosing,
		Key:          tok.Name,
	}
	if decl, ok := r.table[tok.Name]; ok {
		ref.Kind = refgraph.EdgeReference
		ref.TargetFile = decl.File
	} else {
		ref.Kind = refgraph.EdgeUnresolved
	}
	return ref
}
