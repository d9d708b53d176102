package javascript

import (
	"mosaic/internal/analysis"

	sitter "github.com/smacker/go-tree-sitter"
)

// Location is a span in a named file: FileName or GlobalsFileName.
type Location struct {
	File string
	analysis.Span
}

func nodeSpan(n *sitter.Node) analysis.Span {
	return analysis.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

// isWrite reports whether the name node n is assigned at its position.
func isWrite(n *sitter.Node, d *declaration) bool {
	if sameNode(n, d.ident) {
		return true
	}
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "assignment_expression", "augmented_assignment_expression":
		return sameNode(parent.ChildByFieldName("left"), n)
	case "update_expression":
		return sameNode(parent.ChildByFieldName("argument"), n)
	}
	return false
}

// uses returns every name node of f that refers to d, in document order.
func (s *Session) uses(f *file, d *declaration) []*sitter.Node {
	var nodes []*sitter.Node
	walkNodes(f.rootNode(), func(n *sitter.Node) bool {
		if isNameNode(n.Type()) && n.Type() != "this" && f.content(n) == d.name {
			if s.resolve(f, n) == d {
				nodes = append(nodes, n)
			}
		}
		return true
	})
	return nodes
}

// Occurrences highlights the uses of the name at offset in the current
// script.
func (s *Session) Occurrences(offset int) []analysis.Highlight {
	f := s.script()
	if f == nil {
		return nil
	}
	d := s.resolve(f, nameAt(f, offset))
	if d == nil {
		return nil
	}
	var highlights []analysis.Highlight
	for _, n := range s.uses(f, d) {
		kind := analysis.HighlightText
		if isWrite(n, d) {
			kind = analysis.HighlightWrite
		}
		highlights = append(highlights, analysis.Highlight{Span: nodeSpan(n), Kind: kind})
	}
	return highlights
}

// Definition returns the declaration of the name at offset.
func (s *Session) Definition(offset int) []Location {
	f := s.script()
	if f == nil {
		return nil
	}
	d := s.resolve(f, nameAt(f, offset))
	if d == nil {
		return nil
	}
	return []Location{{File: d.file.name, Span: d.span()}}
}

// References returns the declaration and every use of the name at offset.
func (s *Session) References(offset int) []Location {
	f := s.script()
	if f == nil {
		return nil
	}
	d := s.resolve(f, nameAt(f, offset))
	if d == nil {
		return nil
	}
	var locations []Location
	if d.file != f {
		locations = append(locations, Location{File: d.file.name, Span: d.span()})
	}
	for _, n := range s.uses(f, d) {
		locations = append(locations, Location{File: f.name, Span: nodeSpan(n)})
	}
	return locations
}

// NavigationKind classifies a navigation item.
type NavigationKind int

const (
	NavScript NavigationKind = iota + 1
	NavFunction
	NavLocalFunction
	NavClass
	NavMethod
	NavProperty
	NavVar
	NavLet
	NavConst
)

// NavigationItem is a node of the outline of a script. The root item has
// kind NavScript and spans the whole script.
type NavigationItem struct {
	Text     string
	Kind     NavigationKind
	Span     analysis.Span
	Children []NavigationItem
}

// NavigationItems returns the outline of the current script.
func (s *Session) NavigationItems() []NavigationItem {
	f := s.script()
	if f == nil {
		return nil
	}
	root := f.rootNode()
	return []NavigationItem{{
		Text:     "<global>",
		Kind:     NavScript,
		Span:     nodeSpan(root),
		Children: outline(f, root, false),
	}}
}

func outline(f *file, n *sitter.Node, nested bool) []NavigationItem {
	var items []NavigationItem
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "function_declaration", "generator_function_declaration":
			if name := child.ChildByFieldName("name"); name != nil {
				items = append(items, NavigationItem{
					Text:     f.content(name),
					Kind:     functionKind(nested),
					Span:     nodeSpan(child),
					Children: outline(f, child, true),
				})
			}

		case "class_declaration":
			if name := child.ChildByFieldName("name"); name != nil {
				items = append(items, NavigationItem{
					Text:     f.content(name),
					Kind:     NavClass,
					Span:     nodeSpan(child),
					Children: classOutline(f, child),
				})
			}

		case "lexical_declaration", "variable_declaration":
			items = append(items, declaratorOutline(f, child, nested)...)

		case "comment":

		default:
			items = append(items, outline(f, child, nested || isFunctionNode(child.Type()))...)
		}
	}
	return items
}

func functionKind(nested bool) NavigationKind {
	if nested {
		return NavLocalFunction
	}
	return NavFunction
}

func classOutline(f *file, class *sitter.Node) []NavigationItem {
	var items []NavigationItem
	for _, m := range classMembers(f, class) {
		kind := NavProperty
		if m.kind == DeclMethod {
			kind = NavMethod
		}
		items = append(items, NavigationItem{
			Text:     m.name,
			Kind:     kind,
			Span:     nodeSpan(m.node),
			Children: outline(f, m.node, true),
		})
	}
	return items
}

func declaratorOutline(f *file, decl *sitter.Node, nested bool) []NavigationItem {
	kind := NavVar
	if decl.Type() == "lexical_declaration" {
		kind = NavLet
		if first := decl.Child(0); first != nil && first.Type() == "const" {
			kind = NavConst
		}
	}

	var items []NavigationItem
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		declarator := decl.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		name := declarator.ChildByFieldName("name")
		value := declarator.ChildByFieldName("value")
		switch {
		case name == nil || name.Type() != "identifier":
			if value != nil {
				items = append(items, outline(f, value, nested)...)
			}
		case value != nil && isFunctionNode(value.Type()):
			items = append(items, NavigationItem{
				Text:     f.content(name),
				Kind:     functionKind(nested),
				Span:     nodeSpan(declarator),
				Children: outline(f, value, true),
			})
		case value != nil && value.Type() == "class":
			items = append(items, NavigationItem{
				Text:     f.content(name),
				Kind:     NavClass,
				Span:     nodeSpan(declarator),
				Children: classOutline(f, value),
			})
		case nested:
			// locals of functions stay out of the outline
			if value != nil {
				items = append(items, outline(f, value, nested)...)
			}
		default:
			var children []NavigationItem
			if value != nil {
				children = outline(f, value, nested)
			}
			items = append(items, NavigationItem{
				Text:     f.content(name),
				Kind:     kind,
				Span:     nodeSpan(declarator),
				Children: children,
			})
		}
	}
	return items
}
