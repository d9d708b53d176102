package manager

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"mosaic/internal/document"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("mosaic.manager")

// ErrDocumentNotFound is returned for uris that are not open.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentManager holds the current snapshot of every open host document.
// Snapshots are immutable; every change replaces the snapshot.
type DocumentManager struct {
	mu   sync.RWMutex
	docs map[string]*document.Document
}

// NewDocumentManager creates an initialized DocumentManager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		docs: make(map[string]*document.Document),
	}
}

// Open stores the initial snapshot of a document.
func (dm *DocumentManager) Open(uri, languageID string, version int32, text string) *document.Document {
	doc := document.New(uri, languageID, version, text)
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs[uri] = doc
	return doc
}

// Get returns the current snapshot of a URI.
func (dm *DocumentManager) Get(uri string) (*document.Document, error) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, uri)
	}
	return doc, nil
}

// ApplyChanges applies content changes in order and stores the result as
// version. Changes are either ranged or whole-document replacements.
func (dm *DocumentManager) ApplyChanges(uri string, version int32, changes []any) (*document.Document, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	old, ok := dm.docs[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, uri)
	}
	if version < old.Version {
		log.Warningf("%s: change to version %d after version %d", uri, version, old.Version)
	}

	current := old
	for i, change := range changes {
		text, err := applyChange(current, change)
		if err != nil {
			return nil, fmt.Errorf("%s: change %d: %w", uri, i, err)
		}
		current = document.New(uri, old.LanguageID, version, text)
	}
	if current == old {
		current = document.New(uri, old.LanguageID, version, old.Text)
	}
	dm.docs[uri] = current
	return current, nil
}

// Release forgets a URI and reports whether it was open.
func (dm *DocumentManager) Release(uri string) bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	_, ok := dm.docs[uri]
	delete(dm.docs, uri)
	return ok
}

// URIs returns the open URIs in sorted order.
func (dm *DocumentManager) URIs() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	uris := make([]string, 0, len(dm.docs))
	for uri := range dm.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// CloseAll forgets every document.
func (dm *DocumentManager) CloseAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs = make(map[string]*document.Document)
}

// applyChange returns the text of doc after one content change event.
func applyChange(doc *document.Document, change any) (string, error) {
	switch c := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return c.Text, nil
	case *protocol.TextDocumentContentChangeEventWhole:
		return c.Text, nil
	case protocol.TextDocumentContentChangeEvent:
		return applyRanged(doc, c), nil
	case *protocol.TextDocumentContentChangeEvent:
		return applyRanged(doc, *c), nil
	}
	return "", fmt.Errorf("unsupported content change %T", change)
}

// applyRanged splices the change text over its range. Positions are
// converted with UTF-16 columns, so the splice points fall on rune
// boundaries.
func applyRanged(doc *document.Document, c protocol.TextDocumentContentChangeEvent) string {
	if c.Range == nil {
		return c.Text
	}
	start := doc.OffsetAt(c.Range.Start)
	end := doc.OffsetAt(c.Range.End)
	if end < start {
		start, end = end, start
	}
	return doc.Text[:start] + c.Text + doc.Text[end:]
}
