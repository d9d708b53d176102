package javascript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// maxAliasDepth bounds alias chains such as const $ = jQuery.
const maxAliasDepth = 8

// nodeAt returns the deepest node whose span contains offset. A node
// ending exactly at offset counts when no sibling starts there.
func nodeAt(root *sitter.Node, offset int) *sitter.Node {
	n := root
	for {
		var next *sitter.Node
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			start, end := int(child.StartByte()), int(child.EndByte())
			if start <= offset && offset < end {
				next = child
				break
			}
			if end == offset && start < end {
				next = child
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func ancestor(n *sitter.Node, types ...string) *sitter.Node {
	for p := n; p != nil; p = p.Parent() {
		for _, t := range types {
			if p.Type() == t {
				return p
			}
		}
	}
	return nil
}

func isNameNode(t string) bool {
	switch t {
	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "this":
		return true
	}
	return false
}

// nameAt returns the identifier-like node at offset.
func nameAt(f *file, offset int) *sitter.Node {
	if offset < 0 || offset > len(f.text) {
		return nil
	}
	n := nodeAt(f.rootNode(), offset)
	if n != nil && isNameNode(n.Type()) {
		return n
	}
	return nil
}

// declaredAt returns the declaration whose name is n.
func declaredAt(f *file, n *sitter.Node) *declaration {
	for _, d := range f.decls {
		if sameNode(d.ident, n) {
			return d
		}
	}
	for _, d := range f.members {
		if sameNode(d.ident, n) {
			return d
		}
	}
	return nil
}

// lookup resolves name as seen from offset in f, falling back to the
// ambient declarations.
func (s *Session) lookup(f *file, name string, offset int) *declaration {
	if d := f.root.innermost(offset).lookup(name); d != nil {
		return d
	}
	if f != s.globals {
		return s.globals.root.lookup(name)
	}
	return nil
}

// resolve returns the declaration an identifier-like node refers to.
func (s *Session) resolve(f *file, n *sitter.Node) *declaration {
	if n == nil {
		return nil
	}
	if d := declaredAt(f, n); d != nil {
		return d
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier":
		return s.lookup(f, f.content(n), int(n.StartByte()))
	case "property_identifier":
		parent := n.Parent()
		if parent == nil || parent.Type() != "member_expression" {
			return nil
		}
		return findMember(s.membersOf(f, parent.ChildByFieldName("object"), 0), f.content(n))
	}
	return nil
}

func findMember(members []*declaration, name string) *declaration {
	for _, m := range members {
		if m.name == name {
			return m
		}
	}
	return nil
}

// membersOf returns the members of the value an expression denotes.
func (s *Session) membersOf(f *file, expr *sitter.Node, depth int) []*declaration {
	if expr == nil || depth > maxAliasDepth {
		return nil
	}
	switch expr.Type() {
	case "identifier":
		return s.declMembers(s.resolve(f, expr), depth+1)
	case "this":
		if class := ancestor(expr, "class_declaration", "class"); class != nil {
			return classMembers(f, class)
		}
	case "member_expression":
		prop := expr.ChildByFieldName("property")
		if prop == nil {
			return nil
		}
		parent := s.membersOf(f, expr.ChildByFieldName("object"), depth+1)
		return s.declMembers(findMember(parent, f.content(prop)), depth+1)
	case "parenthesized_expression":
		if expr.NamedChildCount() > 0 {
			return s.membersOf(f, expr.NamedChild(0), depth+1)
		}
	}
	return nil
}

// declMembers returns the members of the value bound by d.
func (s *Session) declMembers(d *declaration, depth int) []*declaration {
	if d == nil || depth > maxAliasDepth {
		return nil
	}
	switch d.kind {
	case DeclVar, DeclLet, DeclConst, DeclProperty:
		return s.valueMembers(d.file, d.node.ChildByFieldName("value"), depth+1)
	case DeclClass:
		return classMembers(d.file, d.node)
	}
	return nil
}

func (s *Session) valueMembers(f *file, value *sitter.Node, depth int) []*declaration {
	if value == nil || depth > maxAliasDepth {
		return nil
	}
	switch value.Type() {
	case "object":
		var members []*declaration
		for _, m := range f.members {
			if sameNode(m.node.Parent(), value) {
				members = append(members, m)
			}
		}
		return members
	case "class":
		return classMembers(f, value)
	case "new_expression":
		if ctor := value.ChildByFieldName("constructor"); ctor != nil && ctor.Type() == "identifier" {
			if d := s.resolve(f, ctor); d != nil && d.kind == DeclClass {
				return classMembers(d.file, d.node)
			}
		}
	case "identifier":
		return s.declMembers(s.resolve(f, value), depth+1)
	}
	return nil
}

func classMembers(f *file, class *sitter.Node) []*declaration {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var members []*declaration
	for _, m := range f.members {
		if sameNode(m.node.Parent(), body) {
			members = append(members, m)
		}
	}
	return members
}

// functionOf returns the function-like node a declaration binds, or nil.
func functionOf(d *declaration) *sitter.Node {
	switch d.kind {
	case DeclFunction:
		return d.node
	case DeclMethod:
		if d.node.Type() == "pair" {
			return d.node.ChildByFieldName("value")
		}
		return d.node
	case DeclVar, DeclLet, DeclConst:
		if value := d.node.ChildByFieldName("value"); value != nil && isFunctionNode(value.Type()) {
			return value
		}
	}
	return nil
}

// parameterNames lists the parameters of a function-like node.
func parameterNames(f *file, fn *sitter.Node) []string {
	if fn == nil {
		return nil
	}
	if param := fn.ChildByFieldName("parameter"); param != nil {
		return []string{f.content(param)}
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var names []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() == "comment" {
			continue
		}
		names = append(names, strings.Join(strings.Fields(f.content(p)), " "))
	}
	return names
}

// valueType names the type of simple initializers.
func valueType(f *file, value *sitter.Node) string {
	if value == nil {
		return "any"
	}
	switch value.Type() {
	case "number":
		return "number"
	case "string", "template_string":
		return "string"
	case "true", "false":
		return "boolean"
	case "null":
		return "null"
	case "array":
		return "any[]"
	case "object":
		return "{...}"
	case "regex":
		return "RegExp"
	case "new_expression":
		if ctor := value.ChildByFieldName("constructor"); ctor != nil {
			return f.content(ctor)
		}
	}
	if isFunctionNode(value.Type()) {
		return "(" + strings.Join(parameterNames(f, value), ", ") + ") => any"
	}
	return "any"
}

// display renders a declaration the way quick info and completion details
// show it.
func display(d *declaration) string {
	f := d.file
	switch d.kind {
	case DeclFunction:
		return "function " + d.name + "(" + strings.Join(parameterNames(f, d.node), ", ") + ")"
	case DeclClass:
		return "class " + d.name
	case DeclParameter:
		return "(parameter) " + d.name
	case DeclMethod:
		return "(method) " + qualify(d.owner, d.name) + "(" + strings.Join(parameterNames(f, functionOf(d)), ", ") + ")"
	case DeclProperty:
		return "(property) " + qualify(d.owner, d.name)
	}

	keyword := "var"
	switch d.kind {
	case DeclLet:
		keyword = "let"
	case DeclConst:
		keyword = "const"
	}
	var value *sitter.Node
	if d.node.Type() == "variable_declarator" {
		value = d.node.ChildByFieldName("value")
	}
	return keyword + " " + d.name + ": " + valueType(f, value)
}

// docComment returns the comment directly preceding the statement that
// declares d, split into its description and @param descriptions.
func docComment(d *declaration) (string, map[string]string) {
	stmt := d.node
	switch d.kind {
	case DeclParameter:
		return "", nil
	case DeclVar, DeclLet, DeclConst:
		if p := stmt.Parent(); p != nil {
			stmt = p
		}
	}
	if p := stmt.Parent(); p != nil && p.Type() == "export_statement" {
		stmt = p
	}

	prev := stmt.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return "", nil
	}
	between := d.file.text[prev.EndByte():stmt.StartByte()]
	if strings.TrimSpace(between) != "" || strings.Count(between, "\n") > 1 {
		return "", nil
	}
	return parseDoc(d.file.content(prev))
}

func parseDoc(comment string) (string, map[string]string) {
	text := comment
	switch {
	case strings.HasPrefix(text, "/*"):
		text = strings.TrimSuffix(strings.TrimLeft(strings.TrimPrefix(text, "/*"), "*"), "*/")
	case strings.HasPrefix(text, "//"):
		text = strings.TrimPrefix(text, "//")
	}

	var description []string
	params := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if strings.HasPrefix(line, "@param") {
			fields := strings.Fields(strings.TrimPrefix(line, "@param"))
			if len(fields) > 0 && strings.HasPrefix(fields[0], "{") {
				fields = fields[1:]
			}
			if len(fields) > 0 {
				params[strings.Trim(fields[0], "[]")] = strings.Join(fields[1:], " ")
			}
			continue
		}
		if strings.HasPrefix(line, "@") || line == "" {
			continue
		}
		description = append(description, line)
	}
	return strings.Join(description, "\n"), params
}
