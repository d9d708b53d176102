package javascript

import (
	"strings"

	"mosaic/internal/analysis"

	sitter "github.com/smacker/go-tree-sitter"
)

// DeclarationKind classifies a binding.
type DeclarationKind int

const (
	DeclVar DeclarationKind = iota + 1
	DeclLet
	DeclConst
	DeclFunction
	DeclClass
	DeclParameter
	DeclMethod
	DeclProperty
)

// declaration is a named binding of a file.
type declaration struct {
	name  string
	kind  DeclarationKind
	file  *file
	ident *sitter.Node // the name
	node  *sitter.Node // the declaring construct: declarator, function, class, member
	scope *scope
	owner string // enclosing object or class for members
}

func (d *declaration) span() analysis.Span {
	return analysis.Span{Start: int(d.ident.StartByte()), End: int(d.ident.EndByte())}
}

type scope struct {
	node     *sitter.Node
	parent   *scope
	children []*scope
	function bool // var declarations hoist to the nearest function scope
	decls    map[string]*declaration
	order    []*declaration
}

func newScope(node *sitter.Node, parent *scope, function bool) *scope {
	s := &scope{node: node, parent: parent, function: function, decls: map[string]*declaration{}}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

func (s *scope) declare(d *declaration) *declaration {
	d.scope = s
	prev := s.decls[d.name]
	if prev == nil {
		s.decls[d.name] = d
	}
	s.order = append(s.order, d)
	return prev
}

func (s *scope) functionScope() *scope {
	for c := s; c != nil; c = c.parent {
		if c.function {
			return c
		}
	}
	return s
}

func (s *scope) lookup(name string) *declaration {
	for c := s; c != nil; c = c.parent {
		if d, ok := c.decls[name]; ok {
			return d
		}
	}
	return nil
}

// innermost returns the deepest scope containing offset.
func (s *scope) innermost(offset int) *scope {
	for _, child := range s.children {
		if int(child.node.StartByte()) <= offset && offset <= int(child.node.EndByte()) {
			return child.innermost(offset)
		}
	}
	return s
}

// redeclaration is a block scoped name declared twice in one scope.
type redeclaration struct {
	first, second *declaration
}

// binder builds the scope tree of a file.
type binder struct {
	file       *file
	redeclared []redeclaration
}

func isFunctionNode(t string) bool {
	switch t {
	case "function_declaration", "generator_function_declaration", "function", "function_expression",
		"generator_function", "arrow_function", "method_definition":
		return true
	}
	return false
}

func (b *binder) bind(root *sitter.Node) *scope {
	s := newScope(root, nil, true)
	b.visitChildren(root, s)
	return s
}

func (b *binder) visitChildren(n *sitter.Node, s *scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		b.visit(n.NamedChild(i), s)
	}
}

func (b *binder) add(s *scope, d *declaration) {
	d.file = b.file
	prev := s.declare(d)
	if prev != nil && (isBlockScoped(prev.kind) || isBlockScoped(d.kind)) {
		b.redeclared = append(b.redeclared, redeclaration{first: prev, second: d})
	}
	b.file.decls = append(b.file.decls, d)
}

func isBlockScoped(k DeclarationKind) bool {
	return k == DeclLet || k == DeclConst || k == DeclClass
}

func (b *binder) visit(n *sitter.Node, s *scope) {
	switch t := n.Type(); t {
	case "lexical_declaration", "variable_declaration":
		kind := DeclVar
		if t == "lexical_declaration" {
			kind = DeclLet
			if first := n.Child(0); first != nil && first.Type() == "const" {
				kind = DeclConst
			}
		}
		target := s
		if kind == DeclVar {
			target = s.functionScope()
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			declarator := n.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			owner := ""
			for _, ident := range bindingNames(declarator.ChildByFieldName("name")) {
				b.add(target, &declaration{name: b.file.content(ident), kind: kind, ident: ident, node: declarator})
				owner = b.file.content(ident)
			}
			if value := declarator.ChildByFieldName("value"); value != nil {
				if value.Type() == "object" {
					b.visitMembers(value, s, owner)
				} else {
					b.visit(value, s)
				}
			}
		}

	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			b.add(s, &declaration{name: b.file.content(name), kind: DeclFunction, ident: name, node: n})
		}
		b.visitFunction(n, s)

	case "function", "function_expression", "generator_function", "arrow_function":
		b.visitFunction(n, s)

	case "class_declaration", "class":
		className := ""
		if name := n.ChildByFieldName("name"); name != nil {
			className = b.file.content(name)
			if t == "class_declaration" {
				b.add(s, &declaration{name: className, kind: DeclClass, ident: name, node: n})
			}
		}
		if heritage := childOfType(n, "class_heritage"); heritage != nil {
			b.visit(heritage, s)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			b.visitMembers(body, s, className)
		}

	case "object":
		b.visitMembers(n, s, "")

	case "statement_block", "switch_body":
		b.visitChildren(n, newScope(n, s, false))

	case "for_statement", "for_in_statement":
		inner := newScope(n, s, false)
		if left := n.ChildByFieldName("left"); left != nil && t == "for_in_statement" {
			kind := forInKind(n)
			if kind != 0 {
				target := inner
				if kind == DeclVar {
					target = s.functionScope()
				}
				for _, ident := range bindingNames(left) {
					b.add(target, &declaration{name: b.file.content(ident), kind: kind, ident: ident, node: n})
				}
			}
		}
		b.visitChildren(n, inner)

	case "catch_clause":
		inner := newScope(n, s, false)
		if param := n.ChildByFieldName("parameter"); param != nil {
			for _, ident := range bindingNames(param) {
				b.add(inner, &declaration{name: b.file.content(ident), kind: DeclParameter, ident: ident, node: n})
			}
		}
		if body := n.ChildByFieldName("body"); body != nil {
			b.visitChildren(body, inner)
		}

	default:
		b.visitChildren(n, s)
	}
}

// forInKind returns the declaration kind of a for-in/of head, or 0 when
// it assigns to existing bindings.
func forInKind(n *sitter.Node) DeclarationKind {
	if kind := n.ChildByFieldName("kind"); kind != nil {
		switch kind.Type() {
		case "var":
			return DeclVar
		case "let":
			return DeclLet
		case "const":
			return DeclConst
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "var":
			return DeclVar
		case "let":
			return DeclLet
		case "const":
			return DeclConst
		}
	}
	return 0
}

func (b *binder) visitFunction(n *sitter.Node, s *scope) {
	inner := newScope(n, s, true)
	if n.Type() == "function" || n.Type() == "function_expression" {
		// a named function expression binds its own name inside
		if name := n.ChildByFieldName("name"); name != nil {
			b.add(inner, &declaration{name: b.file.content(name), kind: DeclFunction, ident: name, node: n})
		}
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, ident := range bindingNames(params) {
			b.add(inner, &declaration{name: b.file.content(ident), kind: DeclParameter, ident: ident, node: n})
		}
		b.visitDefaults(params, inner)
	} else if param := n.ChildByFieldName("parameter"); param != nil {
		b.add(inner, &declaration{name: b.file.content(param), kind: DeclParameter, ident: param, node: n})
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	if body.Type() == "statement_block" {
		b.visitChildren(body, inner)
	} else {
		b.visit(body, inner)
	}
}

// visitDefaults visits default parameter values.
func (b *binder) visitDefaults(params *sitter.Node, s *scope) {
	walkNodes(params, func(n *sitter.Node) bool {
		if n.Type() == "assignment_pattern" {
			if right := n.ChildByFieldName("right"); right != nil {
				b.visit(right, s)
			}
			return false
		}
		return true
	})
}

// visitMembers records the methods and properties of a class body or an
// object literal. Members are not scope bindings; they are kept on the file
// for member completion and navigation.
func (b *binder) visitMembers(body *sitter.Node, s *scope, owner string) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		switch m.Type() {
		case "method_definition":
			if name := m.ChildByFieldName("name"); name != nil {
				b.file.members = append(b.file.members, &declaration{
					name: memberName(b.file, name), kind: DeclMethod, ident: name, node: m, owner: owner, file: b.file,
				})
			}
			b.visitFunction(m, s)
		case "pair":
			key, value := m.ChildByFieldName("key"), m.ChildByFieldName("value")
			if key != nil {
				kind := DeclProperty
				if value != nil && isFunctionNode(value.Type()) {
					kind = DeclMethod
				}
				b.file.members = append(b.file.members, &declaration{
					name: memberName(b.file, key), kind: kind, ident: key, node: m, owner: owner, file: b.file,
				})
			}
			switch {
			case value == nil:
			case value.Type() == "object" && key != nil:
				b.visitMembers(value, s, qualify(owner, memberName(b.file, key)))
			default:
				b.visit(value, s)
			}
		case "field_definition", "public_field_definition":
			if prop := m.ChildByFieldName("property"); prop != nil {
				b.file.members = append(b.file.members, &declaration{
					name: memberName(b.file, prop), kind: DeclProperty, ident: prop, node: m, owner: owner, file: b.file,
				})
			}
			if value := m.ChildByFieldName("value"); value != nil {
				b.visit(value, s)
			}
		case "shorthand_property_identifier":
			b.file.members = append(b.file.members, &declaration{
				name: b.file.content(m), kind: DeclProperty, ident: m, node: m, owner: owner, file: b.file,
			})
		default:
			b.visit(m, s)
		}
	}
}

func qualify(owner, name string) string {
	if owner == "" {
		return name
	}
	return owner + "." + name
}

func memberName(f *file, key *sitter.Node) string {
	return strings.Trim(f.content(key), `"'`)
}

// bindingNames returns the identifiers bound by a declaration target,
// destructuring patterns included.
func bindingNames(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []*sitter.Node{n}
	case "assignment_pattern", "object_assignment_pattern":
		return bindingNames(n.ChildByFieldName("left"))
	case "pair_pattern":
		return bindingNames(n.ChildByFieldName("value"))
	case "formal_parameters", "array_pattern", "object_pattern", "rest_pattern":
		var names []*sitter.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			names = append(names, bindingNames(n.NamedChild(i))...)
		}
		return names
	}
	return nil
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

func walkNodes(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walkNodes(n.Child(i), visit)
	}
}
