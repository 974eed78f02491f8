// Package diag accumulates non-fatal anomalies discovered while building a
// reference graph. Diagnostics are collected, never thrown mid-pipeline: the
// run carries them to the end and the summary is always emitted, whatever the
// exit status.
package diag

import "fmt"

// Kind classifies a diagnostic.
type Kind string

const (
	// ParseWarning marks a malformed command skipped during scanning.
	ParseWarning Kind = "parse-warning"
	// DuplicateAnchor marks an anchor name declared more than once; the
	// first declaration in traversal order wins.
	DuplicateAnchor Kind = "duplicate-anchor"
	// InclusionCycle marks an inclusion edge that would revisit an ancestor.
	// The traversal breaks the cycle at the repeat edge.
	InclusionCycle Kind = "inclusion-cycle"
	// OrphanFile marks a file unreachable from the entry set. Orphans are
	// still scanned and still appear as graph nodes.
	OrphanFile Kind = "orphan-file"
	// EncodingError marks a file whose bytes are not valid UTF-8. The file
	// contributes nothing to the graph; the run continues.
	EncodingError Kind = "encoding-error"
)

// Kinds lists all diagnostic kinds in summary order.
var Kinds = []Kind{ParseWarning, DuplicateAnchor, InclusionCycle, OrphanFile, EncodingError}

// Diagnostic is a single reported condition tied to a source file.
type Diagnostic struct {
	Kind    Kind
	File    string
	Message string
}

// String formats the diagnostic for logs.
func (d Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.File, d.Message)
}

// Report is an append-only collection of diagnostics. The zero value is
// ready to use. Report is not safe for concurrent use; the pipeline only
// appends from its single-threaded phases.
type Report struct {
	entries []Diagnostic
}

// Add appends a diagnostic.
func (r *Report) Add(kind Kind, file, format string, args ...any) {
	r.entries = append(r.entries, Diagnostic{Kind: kind, File: file, Message: fmt.Sprintf(format, args...)})
}

// Append copies diagnostics from another report, preserving order.
func (r *Report) Append(other *Report) {
	r.entries = append(r.entries, other.entries...)
}

// All returns the diagnostics in the order they were added.
func (r *Report) All() []Diagnostic { return r.entries }

// Count returns the number of diagnostics of the given kind.
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, d := range r.entries {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Total returns the number of diagnostics of every kind.
func (r *Report) Total() int { return len(r.entries) }
