// Package analysis defines the results produced by the embedded language
// engines. All spans are byte offsets into the analyzed virtual text, which
// maps 1:1 onto the host document.
package analysis

// Span is the byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Contains reports whether offset lies within the span, end inclusive.
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset <= s.End
}

type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

type Diagnostic struct {
	Span
	Severity Severity
	Code     string
	Message  string
}

type CompletionKind int

const (
	CompletionText CompletionKind = iota
	CompletionKeyword
	CompletionVariable
	CompletionField
	CompletionFunction
	CompletionMethod
	CompletionClass
	CompletionModule
	CompletionProperty
	CompletionValue
	CompletionColor
	CompletionUnit
	CompletionSnippet
)

// CompletionEntry is a candidate offered at a position. Replace is the span
// the label replaces.
type CompletionEntry struct {
	Label    string
	Kind     CompletionKind
	SortText string
	Replace  Span
}

// CompletionDetails is the lazily computed part of a completion entry.
type CompletionDetails struct {
	Detail        string
	Documentation string
}

type HoverInfo struct {
	Span
	Contents string
	Markdown bool
}

type HighlightKind int

const (
	HighlightText HighlightKind = iota + 1
	HighlightRead
	HighlightWrite
)

type Highlight struct {
	Span
	Kind HighlightKind
}

type SymbolKind int

const (
	SymbolVariable SymbolKind = iota + 1
	SymbolConstant
	SymbolFunction
	SymbolMethod
	SymbolClass
	SymbolProperty
	SymbolModule
	SymbolNamespace
	SymbolEnum
	SymbolInterface
	SymbolKey
)

// Symbol is a named declaration. Container is the name of the enclosing
// symbol, empty at top level.
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Span      Span
	Container string
}

type Parameter struct {
	Label         string
	Documentation string
}

type Signature struct {
	Label         string
	Documentation string
	Parameters    []Parameter
}

type SignatureHelp struct {
	Signatures      []Signature
	ActiveSignature int
	ActiveParameter int
}

// Color components are in the range [0, 1].
type Color struct {
	Red   float64
	Green float64
	Blue  float64
	Alpha float64
}

type ColorInfo struct {
	Span
	Color Color
}
