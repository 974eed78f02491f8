// Package scanner extracts cross-reference tokens from LaTeX-like source
// text. It recognizes anchor declarations, anchor references, citations, and
// file-inclusion directives; everything else in the document body is skipped.
//
// Scan is a pure function of its inputs and keeps no shared state, so files
// can be scanned concurrently.
package scanner

import (
	"strings"
	"unicode"
)

// Scan tokenizes text and returns the recognized tokens in source order,
// along with warnings for malformed commands that were skipped. A warning
// never aborts the scan of the remaining file.
func Scan(path, text string) ([]Token, []Warning) {
	s := &scanner{path: path, src: []rune(text), line: 1, col: 1}
	s.run()
	return s.tokens, s.warnings
}

type scanner struct {
	path string
	src  []rune
	pos  int
	line int
	col  int

	tokens   []Token
	warnings []Warning
}

func (s *scanner) run() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.command()
		case '%':
			s.skipComment()
		default:
			s.advance()
		}
	}
}

// command handles a backslash: either a control sequence or an escaped
// single character such as \% or \{.
func (s *scanner) command() {
	start := s.position()
	s.advance() // consume the backslash
	if s.pos >= len(s.src) {
		return
	}
	if !unicode.IsLetter(s.src[s.pos]) {
		// Escaped character; consume it so \% does not start a comment.
		s.advance()
		return
	}

	name := s.macroName()
	kind, ok := classify(name)
	if !ok {
		return
	}

	arg, ok := s.argument(name, start)
	if !ok {
		return
	}

	if multiKey(kind) {
		for _, key := range strings.Split(arg, ",") {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			s.emit(kind, key, start)
		}
		return
	}
	if arg = strings.TrimSpace(arg); arg != "" {
		s.emit(kind, arg, start)
	}
}

// classify maps a macro name to a token kind. Reference macros match
// case-insensitively (\Cref and \cref are the same command family).
func classify(name string) (Kind, bool) {
	lower := strings.ToLower(name)
	switch {
	case declMacros[lower]:
		return KindAnchorDecl, true
	case refMacros[lower]:
		return KindAnchorRef, true
	case citeMacros[lower]:
		return KindCitationRef, true
	case inclusionMacros[lower]:
		return KindInclusion, true
	}
	return 0, false
}

// macroName consumes the letters (and an optional trailing star) that form
// a control-sequence name.
func (s *scanner) macroName() string {
	var b strings.Builder
	for s.pos < len(s.src) && unicode.IsLetter(s.src[s.pos]) {
		b.WriteRune(s.src[s.pos])
		s.advance()
	}
	if s.pos < len(s.src) && s.src[s.pos] == '*' {
		b.WriteRune('*')
		s.advance()
	}
	return b.String()
}

// argument consumes an optional [...] argument followed by the mandatory
// {...} argument and returns its contents. Returns false after recording a
// warning if the command is malformed or unterminated.
func (s *scanner) argument(name string, at Position) (string, bool) {
	s.skipSpace()
	if s.pos < len(s.src) && s.src[s.pos] == '[' {
		if !s.skipBracket() {
			s.warn(at, "unterminated [ argument for \\"+name)
			return "", false
		}
		s.skipSpace()
	}
	if s.pos >= len(s.src) || s.src[s.pos] != '{' {
		s.warn(at, "missing { argument for \\"+name)
		return "", false
	}

	s.advance() // consume '{'
	var b strings.Builder
	depth := 1
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s.advance()
				return b.String(), true
			}
		}
		b.WriteRune(s.src[s.pos])
		s.advance()
	}
	s.warn(at, "unterminated { argument for \\"+name)
	return "", false
}

func (s *scanner) skipBracket() bool {
	s.advance() // consume '['
	for s.pos < len(s.src) {
		if s.src[s.pos] == ']' {
			s.advance()
			return true
		}
		s.advance()
	}
	return false
}

func (s *scanner) skipComment() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.advance()
	}
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && unicode.IsSpace(s.src[s.pos]) {
		s.advance()
	}
}

func (s *scanner) advance() {
	if s.src[s.pos] == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.pos++
}

func (s *scanner) position() Position { return Position{Line: s.line, Column: s.col} }

func (s *scanner) emit(kind Kind, name string, at Position) {
	s.tokens = append(s.tokens, Token{Kind: kind, Name: name, File: s.path, Pos: at})
}

func (s *scanner) warn(at Position, msg string) {
	s.warnings = append(s.warnings, Warning{File: s.path, Pos: at, Message: msg})
}
