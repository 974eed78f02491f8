package scanner

import "fmt"

// Kind identifies the syntactic category of a scanned token. The set is
// closed: consumers are expected to switch exhaustively over all four kinds
// so that adding a kind forces an audit of every handler.
type Kind int

const (
	// KindAnchorDecl is a \label{name} declaration.
	KindAnchorDecl Kind = iota
	// KindAnchorRef is a reference to a declared anchor (\ref, \cref, ...).
	KindAnchorRef
	// KindCitationRef is a bibliography citation key (\cite family).
	KindCitationRef
	// KindInclusion is a file-inclusion directive (\input, \include).
	KindInclusion
)

// String returns the lowercase name of the kind, used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindAnchorDecl:
		return "anchor-decl"
	case KindAnchorRef:
		return "anchor-ref"
	case KindCitationRef:
		return "citation-ref"
	case KindInclusion:
		return "inclusion"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Position locates a token within its source file. Line and Column are
// 1-based; Column counts runes, not bytes.
type Position struct {
	Line   int
	Column int
}

// String formats the position as "line:column".
func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Token is one recognized command occurrence. Name carries the anchor name,
// citation key, or inclusion path fragment. Tokens are immutable once
// produced and always carry the path of the file they were scanned from, so
// no scanning state leaks between files.
type Token struct {
	Kind Kind
	Name string
	File string
	Pos  Position
}

// Warning records a malformed command that the scanner skipped. Warnings are
// non-fatal: the rest of the file is still scanned.
type Warning struct {
	File    string
	Pos     Position
	Message string
}

// String formats the warning with its source location.
func (w Warning) String() string {
	return fmt.Sprintf("%s:%s: %s", w.File, w.Pos, w.Message)
}
