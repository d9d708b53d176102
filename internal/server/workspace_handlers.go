package server

import (
	"context"
	"io/fs"
	"os"
	"time"

	"mosaic/internal/document"
	"mosaic/internal/index"
	"mosaic/internal/parser"
	"mosaic/internal/scanner"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) workspaceSymbol(
	context *glsp.Context,
	params *protocol.WorkspaceSymbolParams,
) ([]protocol.SymbolInformation, error) {
	s.mu.Lock()
	ix := s.index
	s.mu.Unlock()
	if ix == nil {
		return []protocol.SymbolInformation{}, nil
	}
	return ix.Search(params.Query, index.DefaultLimit)
}

// indexWorkspace brings the index up to date with the host documents under
// root. Unchanged files are skipped and files that disappeared are
// removed.
func (s *Server) indexWorkspace(ctx context.Context, ix *index.Index, root string) {
	seen := map[string]bool{}
	skip := func(path string, info fs.FileInfo) bool {
		seen[path] = true
		indexed, err := ix.LastModified(path)
		return err == nil && !indexed.Before(info.ModTime())
	}

	start := time.Now()
	count := 0
	err := scanner.Scan(ctx, root, skip, func(path string, contents []byte) {
		if err := s.indexFile(ctx, ix, path, modTime(path), string(contents)); err != nil {
			log.Warningf("failed to index %s: %v", path, err)
			return
		}
		count++
	})
	if err != nil {
		log.Warningf("indexing %s stopped: %v", root, err)
		return
	}

	paths, err := ix.Paths()
	if err != nil {
		log.Errorf("failed to list indexed files: %v", err)
		return
	}
	for _, path := range paths {
		if !seen[path] {
			if err := ix.Delete(path); err != nil {
				log.Warningf("failed to drop %s: %v", path, err)
			}
		}
	}
	log.Infof("indexed %d of %d files in %s", count, len(seen), time.Since(start))
}

// indexFile stores the symbols of a host document. Open documents are
// indexed from their current snapshot.
func (s *Server) indexFile(ctx context.Context, ix *index.Index, path string, modified time.Time, text string) error {
	uri := pathToURI(path)
	doc, err := s.documents.Get(uri)
	open := err == nil
	if !open {
		doc = document.New(uri, parser.HTML, 0, text)
	}

	symbols, err := s.dispatcher.FindDocumentSymbols(ctx, doc)
	if !open {
		s.dispatcher.OnDocumentRemoved(uri)
	}
	if err != nil {
		if len(symbols) == 0 {
			return err
		}
		log.Debugf("partial symbols for %s: %v", path, err)
	}
	return ix.Upsert(index.File{Path: path, URI: uri, Modified: modified}, symbols)
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Now()
	}
	return info.ModTime()
}
