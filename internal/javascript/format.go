package javascript

import (
	"sort"
	"strings"

	"mosaic/internal/format"

	sitter "github.com/smacker/go-tree-sitter"
)

// FormatSettings toggle the spacing rules of the formatter.
type FormatSettings struct {
	InsertSpaceAfterCommaDelimiter                              bool
	InsertSpaceAfterSemicolonInForStatements                    bool
	InsertSpaceBeforeAndAfterBinaryOperators                    bool
	InsertSpaceAfterKeywordsInControlFlowStatements             bool
	InsertSpaceAfterFunctionKeywordForAnonymousFunctions        bool
	InsertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis  bool
	InsertSpaceAfterOpeningAndBeforeClosingNonemptyBrackets     bool
	InsertSpaceAfterOpeningAndBeforeClosingNonemptyBraces       bool
	InsertSpaceAfterOpeningAndBeforeClosingTemplateStringBraces bool
}

// DefaultFormatSettings inserts spaces after commas, for-statement
// semicolons, control flow keywords and anonymous function keywords, and
// around binary operators. Nothing is padded inside brackets.
func DefaultFormatSettings() FormatSettings {
	return FormatSettings{
		InsertSpaceAfterCommaDelimiter:                       true,
		InsertSpaceAfterSemicolonInForStatements:             true,
		InsertSpaceBeforeAndAfterBinaryOperators:             true,
		InsertSpaceAfterKeywordsInControlFlowStatements:      true,
		InsertSpaceAfterFunctionKeywordForAnonymousFunctions: true,
	}
}

// FormatOptions control FormattingEdits. BaseLevel is the indentation
// level of top-level statements. Nesting is counted from Origin, the start
// of the script block being formatted.
type FormatOptions struct {
	format.Options
	BaseLevel int
	Origin    int
	Settings  FormatSettings
}

// FormattingEdits returns the edits that reformat the lines of the current
// script intersecting [start, end).
func (s *Session) FormattingEdits(start, end int, opts FormatOptions) []format.Edit {
	f := s.script()
	if f == nil {
		return nil
	}
	text := f.text
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return nil
	}

	first := start
	for first > 0 && text[first-1] != '\n' {
		first--
	}
	if first < start {
		// a partial first line belongs to the host and keeps its layout
		first = start
		for first < len(text) && text[first] != '\n' {
			first++
		}
		if first < len(text) {
			first++
		}
	}

	levels := indentLevels(text, min(max(opts.Origin, 0), first))
	var edits []format.Edit
	for _, e := range format.Reindent(text, first, end, opts.Options, opts.BaseLevel, levels.at) {
		// lines continuing a comment or template literal keep their layout
		if !levels.literal[e.End] {
			edits = append(edits, e)
		}
	}
	edits = append(edits, spacingEdits(f, start, end, opts.Settings)...)
	return normalize(edits)
}

// normalize sorts edits and drops any overlapping a previous one.
func normalize(edits []format.Edit) []format.Edit {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })
	result := edits[:0]
	for _, e := range edits {
		if len(result) > 0 {
			if p := result[len(result)-1]; e.Start < p.End || e.Start == p.Start {
				continue
			}
		}
		result = append(result, e)
	}
	return result
}

// levelMap records, for every offset, the indentation level of content
// inside the innermost open bracket and whether the offset lies inside a
// block comment or template literal.
type levelMap struct {
	text    string
	levels  []int
	literal []bool
}

// at returns the indentation level of a line whose first non-blank
// character is at offset.
func (m levelMap) at(offset int) int {
	level := m.levels[offset]
	if offset < len(m.text) && strings.IndexByte(")]}", m.text[offset]) >= 0 && level > 0 {
		level--
	}
	return level
}

func indentLevels(text string, origin int) levelMap {
	m := levelMap{text: text, levels: make([]int, len(text)+1), literal: make([]bool, len(text)+1)}

	// stack holds the content level of each open bracket; one line opening
	// several brackets indents its content once
	var stack []int
	lineLevel := 0
	top := func() int {
		if len(stack) == 0 {
			return 0
		}
		return stack[len(stack)-1]
	}

	var quote byte
	lineComment, blockComment := false, false
	lineStartPending := true
	for i := origin; i < len(text); i++ {
		c := text[i]
		m.levels[i] = top()
		m.literal[i] = blockComment || quote == '`'

		if lineStartPending && c != ' ' && c != '\t' {
			lineStartPending = false
			lineLevel = top()
			if strings.IndexByte(")]}", c) >= 0 && lineLevel > 0 && quote == 0 && !blockComment {
				lineLevel--
			}
		}
		if c == '\n' {
			lineStartPending = true
			lineComment = false
			if quote != '`' {
				quote = 0
			}
			continue
		}

		switch {
		case lineComment:
		case blockComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				blockComment = false
				i++
				m.levels[i] = top()
			}
		case quote != 0:
			if c == '\\' {
				i++
				if i < len(text) {
					m.levels[i] = top()
				}
			} else if c == quote {
				quote = 0
			}
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			lineComment = true
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			blockComment = true
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '(' || c == '[' || c == '{':
			stack = append(stack, lineLevel+1)
		case c == ')' || c == ']' || c == '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	m.levels[len(text)] = top()
	return m
}

var binaryParents = map[string]bool{
	"binary_expression":               true,
	"assignment_expression":           true,
	"augmented_assignment_expression": true,
	"variable_declarator":             true,
	"assignment_pattern":              true,
	"ternary_expression":              true,
}

var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "with": true,
}

// spacingEdits normalizes the horizontal whitespace between adjacent
// tokens within [start, end).
func spacingEdits(f *file, start, end int, settings FormatSettings) []format.Edit {
	var tokens []*sitter.Node
	walkNodes(f.rootNode(), func(n *sitter.Node) bool {
		if int(n.EndByte()) < start || int(n.StartByte()) > end {
			return false
		}
		if n.IsMissing() {
			return false
		}
		switch n.Type() {
		case "string", "template_string", "regex", "comment":
			if n.Type() != "template_string" {
				tokens = append(tokens, n)
				return false
			}
		}
		if n.ChildCount() == 0 || n.Type() == "ERROR" {
			if n.Type() != "ERROR" {
				tokens = append(tokens, n)
			}
			return n.Type() == "ERROR"
		}
		return true
	})

	var edits []format.Edit
	for i := 1; i < len(tokens); i++ {
		prev, next := tokens[i-1], tokens[i]
		from, to := int(prev.EndByte()), int(next.StartByte())
		if from < start || to > end || from > to {
			continue
		}
		gap := f.text[from:to]
		if strings.Trim(gap, " \t") != "" {
			continue
		}
		want, ok := spacing(f, prev, next, settings)
		if ok && gap != want {
			edits = append(edits, format.Edit{Start: from, End: to, NewText: want})
		}
	}
	return edits
}

func space(on bool) string {
	if on {
		return " "
	}
	return ""
}

func isBinaryOperator(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil || n.IsNamed() || !binaryParents[parent.Type()] {
		return false
	}
	switch parent.Type() {
	case "variable_declarator", "assignment_pattern":
		return n.Type() == "="
	}
	// the operator sits between the operands
	return parent.NamedChildCount() >= 2 && n.StartByte() > parent.StartByte()
}

// spacing returns the whitespace wanted between two adjacent tokens, and
// false when the formatter leaves the gap alone.
func spacing(f *file, prev, next *sitter.Node, settings FormatSettings) (string, bool) {
	pt, nt := prev.Type(), next.Type()
	parent := func(n *sitter.Node) string {
		if p := n.Parent(); p != nil {
			return p.Type()
		}
		return ""
	}

	switch {
	case pt == "comment" || nt == "comment":
		return "", false
	case nt == "," || nt == ";":
		return "", true
	case pt == ",":
		if nt == ")" || nt == "]" || nt == "}" {
			return "", false
		}
		return space(settings.InsertSpaceAfterCommaDelimiter), true
	case pt == ";" && parent(prev) == "for_statement":
		if nt == ")" || nt == ";" {
			return "", false
		}
		return space(settings.InsertSpaceAfterSemicolonInForStatements), true
	case isBinaryOperator(next) || isBinaryOperator(prev):
		return space(settings.InsertSpaceBeforeAndAfterBinaryOperators), true
	case pt == "=>" || nt == "=>":
		return " ", true
	case nt == ":" && parent(next) == "pair":
		return "", true
	case pt == ":" && parent(prev) == "pair":
		return " ", true
	case controlKeywords[pt] && nt == "(":
		return space(settings.InsertSpaceAfterKeywordsInControlFlowStatements), true
	case pt == "function" && nt == "(":
		return space(settings.InsertSpaceAfterFunctionKeywordForAnonymousFunctions), true
	case pt == "(" && nt == ")", pt == "[" && nt == "]", pt == "{" && nt == "}":
		return "", false
	case pt == "(":
		return space(settings.InsertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis), true
	case nt == ")":
		return space(settings.InsertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis), true
	case pt == "[" && parent(prev) == "array", nt == "]" && parent(next) == "array":
		return space(settings.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBrackets), true
	case pt == "{" && parent(prev) == "object", nt == "}" && parent(next) == "object":
		return space(settings.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBraces), true
	case pt == "${" || nt == "}" && parent(next) == "template_substitution":
		return space(settings.InsertSpaceAfterOpeningAndBeforeClosingTemplateStringBraces), true
	case nt == "{" && (parent(next) == "statement_block" || parent(next) == "class_body"):
		return " ", true
	case pt == "}" && (nt == "else" || nt == "catch" || nt == "finally"):
		return " ", true
	}
	return "", false
}
