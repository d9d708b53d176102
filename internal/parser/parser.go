// Package parser provides pooled tree-sitter parsers for the grammars the
// language server understands.
package parser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Language identifiers, matching LSP language ids.
const (
	HTML       = "html"
	CSS        = "css"
	JavaScript = "javascript"
)

// ErrUnknownLanguage is returned for a language without a bundled grammar.
var ErrUnknownLanguage = errors.New("no grammar for language")

// ErrClosed is returned by Parse after Close.
var ErrClosed = errors.New("parser pool closed")

// Grammar returns the tree-sitter language for a language id.
func Grammar(language string) (*sitter.Language, error) {
	switch language {
	case HTML:
		return html.GetLanguage(), nil
	case CSS:
		return css.GetLanguage(), nil
	case JavaScript:
		return javascript.GetLanguage(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
}

// Pool maintains a fixed number of parsers for one grammar.
type Pool struct {
	language string
	lang     *sitter.Language
	pool     chan *sitter.Parser

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a Pool with n parsers for the given language id.
func NewPool(n int, language string) (*Pool, error) {
	lang, err := Grammar(language)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		n = 1
	}
	pp := &Pool{
		language: language,
		lang:     lang,
		pool:     make(chan *sitter.Parser, n),
	}
	for i := 0; i < n; i++ {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		pp.pool <- p
	}
	return pp, nil
}

// Language returns the language id of the pool.
func (pp *Pool) Language() string {
	return pp.language
}

// Grammar returns the tree-sitter language of the pool.
func (pp *Pool) Grammar() *sitter.Language {
	return pp.lang
}

// Parse performs a one-time parse of source with one parser from the pool.
// The caller owns the returned tree.
func (pp *Pool) Parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	pp.mu.RLock()
	defer pp.mu.RUnlock()
	if pp.closed {
		return nil, ErrClosed
	}

	var p *sitter.Parser
	select {
	case p = <-pp.pool:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { pp.pool <- p }()

	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		// a cancelled parse leaves the parser mid-document
		p.Reset()
		return nil, fmt.Errorf("parse %s: %w", pp.language, err)
	}
	return tree, nil
}

// Close releases all parsers. Parses in progress finish first.
func (pp *Pool) Close() error {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.closed {
		return nil
	}
	pp.closed = true

	for i := 0; i < cap(pp.pool); i++ {
		p := <-pp.pool
		p.Close()
	}
	return nil
}
