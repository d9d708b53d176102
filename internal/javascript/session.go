// Package javascript is the script engine. A Session analyzes one script
// file at a time against a fixed set of ambient browser declarations, and
// answers diagnostics, completion, navigation and formatting queries.
package javascript

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"mosaic/internal/document"
	"mosaic/internal/parser"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("mosaic.javascript")

// FileName names the analyzed script in results. Every virtual script
// document is analyzed under this single name.
const FileName = "mosaic://javascript/1"

// GlobalsFileName names the ambient declarations in results.
const GlobalsFileName = "mosaic://javascript/globals.js"

//go:embed globals.js
var globalsSource string

// file is a parsed and bound script.
type file struct {
	name    string
	text    string
	source  []byte
	tree    *sitter.Tree
	root    *scope
	decls   []*declaration
	members []*declaration

	redeclared []redeclaration
}

func (f *file) content(n *sitter.Node) string {
	return n.Content(f.source)
}

func (f *file) rootNode() *sitter.Node {
	return f.tree.RootNode()
}

func parseFile(ctx context.Context, pool *parser.Pool, name, text string) (*file, error) {
	source := []byte(text)
	tree, err := pool.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	f := &file{name: name, text: text, source: source, tree: tree}
	b := &binder{file: f}
	f.root = b.bind(tree.RootNode())
	f.redeclared = b.redeclared
	return f, nil
}

// Session holds the current script and the ambient declarations. Queries
// run against the script bound by the last Update.
type Session struct {
	pool    *parser.Pool
	globals *file

	mu      sync.Mutex
	current *file
	bound   *document.Document
	version int
}

// NewSession parses the ambient declarations once. pool must hold the
// JavaScript grammar.
func NewSession(ctx context.Context, pool *parser.Pool) (*Session, error) {
	globals, err := parseFile(ctx, pool, GlobalsFileName, globalsSource)
	if err != nil {
		return nil, fmt.Errorf("ambient declarations: %w", err)
	}
	return &Session{pool: pool, globals: globals}, nil
}

// Update binds doc as the current script. The script is only re-analyzed,
// and the version only bumped, when doc differs from the bound document in
// uri or content.
func (s *Session) Update(ctx context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.bound != nil {
		if s.bound == doc || (s.bound.URI == doc.URI && s.bound.Text == doc.Text) {
			s.bound = doc
			return nil
		}
	}
	f, err := parseFile(ctx, s.pool, FileName, doc.Text)
	if err != nil {
		return err
	}
	s.current = f
	s.bound = doc
	s.version++
	log.Debugf("script version %d for %s", s.version, doc.URI)
	return nil
}

// Version counts the analyses performed.
func (s *Session) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Release drops the current script when it was bound from uri.
func (s *Session) Release(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound != nil && s.bound.URI == uri {
		s.current = nil
		s.bound = nil
	}
}

// Dispose drops the current script.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.bound = nil
}

// script returns the current file, or nil before the first Update.
func (s *Session) script() *file {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
