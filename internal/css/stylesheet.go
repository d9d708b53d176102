// Package css is the style sheet engine: it parses style sheets with
// tree-sitter and answers validation, completion, navigation, color and
// formatting queries over them.
package css

import (
	"context"
	"strings"

	"mosaic/internal/parser"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("mosaic.css")

// Stylesheet is a parsed style sheet. It is immutable.
type Stylesheet struct {
	Text   string
	source []byte
	tree   *sitter.Tree
}

// Root returns the stylesheet node.
func (s *Stylesheet) Root() *sitter.Node {
	return s.tree.RootNode()
}

func (s *Stylesheet) content(n *sitter.Node) string {
	return n.Content(s.source)
}

// Engine parses and analyzes style sheets.
type Engine struct {
	pool *parser.Pool
}

// NewEngine creates an Engine parsing with pool, which must hold the CSS
// grammar.
func NewEngine(pool *parser.Pool) *Engine {
	return &Engine{pool: pool}
}

// Parse parses text into a Stylesheet.
func (e *Engine) Parse(ctx context.Context, text string) (*Stylesheet, error) {
	source := []byte(text)
	tree, err := e.pool.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	return &Stylesheet{Text: text, source: source, tree: tree}, nil
}

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

// walk visits n and its descendants in document order until visit returns
// false for a subtree.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
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

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isCustomProperty reports whether name is a custom property such as --gap.
func isCustomProperty(name string) bool {
	return strings.HasPrefix(name, "--")
}

func isWordByte(b byte) bool {
	return b == '-' || b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
