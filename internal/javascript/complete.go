package javascript

import (
	"strings"

	"mosaic/internal/analysis"

	sitter "github.com/smacker/go-tree-sitter"
)

var keywords = []string{
	"async", "await", "break", "case", "catch", "class", "const", "continue", "debugger", "default",
	"delete", "do", "else", "export", "extends", "false", "finally", "for", "function", "if",
	"import", "in", "instanceof", "let", "new", "null", "of", "return", "super", "switch",
	"this", "throw", "true", "try", "typeof", "undefined", "var", "void", "while", "with", "yield",
}

// Sort groups: bindings in scope, then ambient declarations, then keywords.
const (
	sortLocal   = "0"
	sortGlobal  = "1"
	sortKeyword = "2"
)

// isWordByte reports whether b can be part of an identifier.
func isWordByte(b byte) bool {
	return b == '_' || b == '$' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b >= 0x80
}

// wordAt returns the span of the identifier around offset.
func wordAt(text string, offset int) analysis.Span {
	start, end := offset, offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	for end < len(text) && isWordByte(text[end]) {
		end++
	}
	return analysis.Span{Start: start, End: end}
}

// inLiteral reports whether offset lies inside a comment, string or
// regular expression.
func inLiteral(f *file, offset int) bool {
	inside := false
	walkNodes(f.rootNode(), func(n *sitter.Node) bool {
		start, end := int(n.StartByte()), int(n.EndByte())
		if offset < start || offset > end {
			return false
		}
		switch n.Type() {
		case "comment":
			if start < offset && (offset < end || !strings.HasSuffix(f.content(n), "*/")) {
				inside = true
			}
			return false
		case "string", "regex":
			if start < offset && offset < end {
				inside = true
			}
			return false
		case "template_string":
			if start < offset && offset < end {
				inside = true
				return true
			}
			return false
		case "template_substitution":
			if start < offset && offset < end {
				inside = false
			}
			return true
		}
		return true
	})
	return inside
}

// memberTarget returns the expression before the dot at offset dot.
func memberTarget(f *file, dot int) *sitter.Node {
	end := dot
	for end > 0 && (f.text[end-1] == ' ' || f.text[end-1] == '\t') {
		end--
	}
	if end == 0 {
		return nil
	}
	n := nodeAt(f.rootNode(), end-1)
	if n == nil || int(n.EndByte()) != end {
		return nil
	}
	for p := n.Parent(); p != nil && int(p.EndByte()) == end; p = p.Parent() {
		switch p.Type() {
		case "member_expression", "parenthesized_expression":
			n = p
			continue
		}
		break
	}
	return n
}

// dotBefore returns the offset of a member access dot preceding start, or
// -1.
func dotBefore(text string, start int) int {
	i := start
	for i > 0 && (text[i-1] == ' ' || text[i-1] == '\t') {
		i--
	}
	if i > 0 && text[i-1] == '.' {
		return i - 1
	}
	return -1
}

func completionKind(k DeclarationKind) analysis.CompletionKind {
	switch k {
	case DeclFunction, DeclMethod:
		return analysis.CompletionFunction
	case DeclClass:
		return analysis.CompletionClass
	case DeclProperty:
		return analysis.CompletionField
	}
	return analysis.CompletionVariable
}

// candidates returns the declarations visible at offset with their sort
// group, innermost first, plus whether offset is a member access.
func (s *Session) candidates(f *file, offset int) ([]*declaration, []string, bool) {
	word := wordAt(f.text, offset)
	if dot := dotBefore(f.text, word.Start); dot >= 0 {
		members := s.membersOf(f, memberTarget(f, dot), 0)
		groups := make([]string, len(members))
		for i := range groups {
			groups[i] = sortLocal
		}
		return members, groups, true
	}

	var decls []*declaration
	var groups []string
	seen := map[string]bool{}
	for c := f.root.innermost(offset); c != nil; c = c.parent {
		for _, d := range c.order {
			if !seen[d.name] {
				seen[d.name] = true
				decls = append(decls, d)
				groups = append(groups, sortLocal)
			}
		}
	}
	for _, d := range s.globals.root.order {
		if !seen[d.name] {
			seen[d.name] = true
			decls = append(decls, d)
			groups = append(groups, sortGlobal)
		}
	}
	return decls, groups, false
}

// Completions returns the candidates at offset of the current script.
func (s *Session) Completions(offset int) []analysis.CompletionEntry {
	f := s.script()
	if f == nil || offset < 0 || offset > len(f.text) || inLiteral(f, offset) {
		return nil
	}
	replace := wordAt(f.text, offset)
	decls, groups, member := s.candidates(f, offset)

	entries := make([]analysis.CompletionEntry, 0, len(decls)+len(keywords))
	seen := map[string]bool{}
	for i, d := range decls {
		if seen[d.name] {
			continue
		}
		seen[d.name] = true
		entries = append(entries, analysis.CompletionEntry{
			Label:    d.name,
			Kind:     completionKind(d.kind),
			SortText: groups[i],
			Replace:  replace,
		})
	}
	if member {
		return entries
	}
	for _, k := range keywords {
		if seen[k] {
			continue
		}
		entries = append(entries, analysis.CompletionEntry{
			Label:    k,
			Kind:     analysis.CompletionKeyword,
			SortText: sortKeyword,
			Replace:  replace,
		})
	}
	return entries
}

// CompletionDetails describes the candidate named label offered at offset.
func (s *Session) CompletionDetails(offset int, label string) (analysis.CompletionDetails, bool) {
	f := s.script()
	if f == nil || offset < 0 || offset > len(f.text) {
		return analysis.CompletionDetails{}, false
	}
	decls, _, member := s.candidates(f, offset)
	for _, d := range decls {
		if d.name == label {
			doc, _ := docComment(d)
			return analysis.CompletionDetails{Detail: display(d), Documentation: doc}, true
		}
	}
	if !member {
		for _, k := range keywords {
			if k == label {
				return analysis.CompletionDetails{Detail: k}, true
			}
		}
	}
	return analysis.CompletionDetails{}, false
}

// QuickInfo describes the name at offset.
func (s *Session) QuickInfo(offset int) *analysis.HoverInfo {
	f := s.script()
	if f == nil {
		return nil
	}
	n := nameAt(f, offset)
	d := s.resolve(f, n)
	if d == nil {
		return nil
	}
	contents := display(d)
	if doc, _ := docComment(d); doc != "" {
		contents += "\n" + doc
	}
	return &analysis.HoverInfo{
		Span:     analysis.Span{Start: int(n.StartByte()), End: int(n.EndByte())},
		Contents: contents,
	}
}

// openCall scans back from offset for the unclosed parenthesis of a call,
// returning its offset and the index of the argument offset is in.
func openCall(text string, offset int) (int, int) {
	depth, commas := 0, 0
	for i := offset - 1; i >= 0; i-- {
		switch text[i] {
		case ')', ']', '}':
			depth++
		case '[', '{':
			if depth == 0 {
				return -1, 0
			}
			depth--
		case '(':
			if depth == 0 {
				return i, commas
			}
			depth--
		case ',':
			if depth == 0 {
				commas++
			}
		case ';':
			if depth == 0 {
				return -1, 0
			}
		}
	}
	return -1, 0
}

// SignatureHelp describes the call enclosing offset.
func (s *Session) SignatureHelp(offset int) *analysis.SignatureHelp {
	f := s.script()
	if f == nil || offset < 0 || offset > len(f.text) || inLiteral(f, offset) {
		return nil
	}
	paren, argument := openCall(f.text, offset)
	if paren < 0 {
		return nil
	}
	if open := nodeAt(f.rootNode(), paren); open != nil && open.Parent() != nil && open.Parent().Type() == "formal_parameters" {
		return nil
	}
	callee := memberTarget(f, paren)
	if callee == nil {
		return nil
	}
	var d *declaration
	switch callee.Type() {
	case "identifier":
		d = s.resolve(f, callee)
	case "member_expression":
		d = s.resolve(f, callee.ChildByFieldName("property"))
	}
	if d == nil {
		return nil
	}

	name, fn := qualify(d.owner, d.name), functionOf(d)
	if d.kind == DeclClass {
		if ctor := findMember(classMembers(d.file, d.node), "constructor"); ctor != nil {
			fn = functionOf(ctor)
		}
	}
	if fn == nil && d.kind != DeclClass {
		return nil
	}

	doc, paramDocs := docComment(d)
	names := parameterNames(d.file, fn)
	sig := analysis.Signature{
		Label:         name + "(" + strings.Join(names, ", ") + ")",
		Documentation: doc,
	}
	for _, p := range names {
		key := strings.TrimPrefix(strings.SplitN(p, "=", 2)[0], "...")
		sig.Parameters = append(sig.Parameters, analysis.Parameter{
			Label:         p,
			Documentation: paramDocs[strings.TrimSpace(key)],
		})
	}
	return &analysis.SignatureHelp{Signatures: []analysis.Signature{sig}, ActiveParameter: argument}
}
