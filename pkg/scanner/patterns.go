package scanner

// The recognized command tables are static so the accepted syntax stays
// auditable. Command names outside these tables are ignored entirely; the
// scanner never interprets the document body.

// declMacros declare an anchor at the current position.
var declMacros = map[string]bool{
	"label": true,
}

// refMacros reference a declared anchor. Matching is case-insensitive so
// capitalized variants like \Cref resolve to the same table entry.
var refMacros = map[string]bool{
	"ref":   true,
	"cref":  true,
	"eqref": true,
	"vref":  true,
}

// citeMacros reference bibliography keys. A single command may carry several
// comma-separated keys; each key yields one token.
var citeMacros = map[string]bool{
	"cite":      true,
	"citep":     true,
	"citet":     true,
	"autocite":  true,
	"parencite": true,
	"textcite":  true,
}

// inclusionMacros pull another file into the current one's scope.
var inclusionMacros = map[string]bool{
	"input":   true,
	"include": true,
}

// multiKey reports whether the macro's argument may carry comma-separated
// keys. Labels and inclusion paths take exactly one argument value.
func multiKey(k Kind) bool {
	return k == KindAnchorRef || k == KindCitationRef
}
