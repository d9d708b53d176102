package index_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mosaic/internal/index"

	"github.com/google/go-cmp/cmp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// newTestIndex creates a new index with a temporary database file.
func newTestIndex(t *testing.T) *index.Index {
	t.Helper()
	ix, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func symbol(name string, kind protocol.SymbolKind, line uint32, container string) protocol.SymbolInformation {
	s := protocol.SymbolInformation{
		Name: name,
		Kind: kind,
		Location: protocol.Location{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: 2},
				End:   protocol.Position{Line: line, Character: 2 + uint32(len(name))},
			},
		},
	}
	if container != "" {
		s.ContainerName = &container
	}
	return s
}

func withURI(s protocol.SymbolInformation, uri string) protocol.SymbolInformation {
	s.Location.URI = uri
	return s
}

func TestUpsertAndSearch(t *testing.T) {
	ix := newTestIndex(t)
	modified := time.Unix(1700000000, 42)

	a := index.File{Path: "/w/a.html", URI: "file:///w/a.html", Modified: modified}
	symbols := []protocol.SymbolInformation{
		symbol(".button", protocol.SymbolKindClass, 3, ""),
		symbol("fetchUsers", protocol.SymbolKindFunction, 10, ""),
		symbol("limit", protocol.SymbolKindVariable, 11, "fetchUsers"),
	}
	if err := ix.Upsert(a, symbols); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := ix.Search("fu", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	want := []protocol.SymbolInformation{withURI(symbols[1], a.URI)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search mismatch (-want +got):\n%s", diff)
	}

	got, err = ix.Search("LMT", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	want = []protocol.SymbolInformation{withURI(symbols[2], a.URI)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search mismatch (-want +got):\n%s", diff)
	}

	ts, err := ix.LastModified(a.Path)
	if err != nil {
		t.Fatalf("LastModified failed: %v", err)
	}
	if !ts.Equal(modified) {
		t.Errorf("expected %v, got %v", modified, ts)
	}
}

func TestUpsertReplacesSymbols(t *testing.T) {
	ix := newTestIndex(t)
	f := index.File{Path: "/w/a.html", URI: "file:///w/a.html", Modified: time.Now()}

	if err := ix.Upsert(f, []protocol.SymbolInformation{symbol("old", protocol.SymbolKindVariable, 1, "")}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := ix.Upsert(f, []protocol.SymbolInformation{symbol("new", protocol.SymbolKindVariable, 1, "")}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := ix.Search("", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "new" {
		t.Errorf("expected only the new symbol, got %+v", got)
	}
}

func TestDelete(t *testing.T) {
	ix := newTestIndex(t)
	f := index.File{Path: "/w/a.html", URI: "file:///w/a.html", Modified: time.Now()}
	if err := ix.Upsert(f, []protocol.SymbolInformation{symbol("x", protocol.SymbolKindVariable, 0, "")}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := ix.Delete(f.Path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := ix.LastModified(f.Path); !errors.Is(err, index.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	paths, err := ix.Paths()
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected no paths, got %v", paths)
	}
	got, err := ix.Search("", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no symbols, got %+v", got)
	}
}

func TestSearchLimit(t *testing.T) {
	ix := newTestIndex(t)
	var symbols []protocol.SymbolInformation
	for i := 0; i < 200; i++ {
		symbols = append(symbols, symbol(fmt.Sprintf("item%03d", i), protocol.SymbolKindVariable, uint32(i), ""))
	}
	f := index.File{Path: "/w/a.html", URI: "file:///w/a.html", Modified: time.Now()}
	if err := ix.Upsert(f, symbols); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := ix.Search("item", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != index.DefaultLimit {
		t.Errorf("expected %d results, got %d", index.DefaultLimit, len(got))
	}

	got, err = ix.Search("item", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 5 || got[0].Name != "item000" {
		t.Errorf("unexpected results %+v", got)
	}
}

func TestSearchSpecialCharacters(t *testing.T) {
	ix := newTestIndex(t)
	f := index.File{Path: "/w/a.html", URI: "file:///w/a.html", Modified: time.Now()}
	symbols := []protocol.SymbolInformation{
		symbol("--main_color", protocol.SymbolKindProperty, 0, ""),
		symbol("--mainxcolor", protocol.SymbolKindProperty, 1, ""),
		symbol("Élan", protocol.SymbolKindVariable, 2, ""),
	}
	if err := ix.Upsert(f, symbols); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := ix.Search("_c", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "--main_color" {
		t.Errorf("expected the literal underscore match, got %+v", got)
	}

	got, err = ix.Search("éla", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Élan" {
		t.Errorf("expected a case-folded match, got %+v", got)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ix, err := index.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	f := index.File{Path: "/w/a.html", URI: "file:///w/a.html", Modified: time.Now()}
	if err := ix.Upsert(f, []protocol.SymbolInformation{symbol("kept", protocol.SymbolKindVariable, 0, "")}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := ix.Search("", 0); !errors.Is(err, index.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	ix, err = index.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ix.Close()
	paths, err := ix.Paths()
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	if diff := cmp.Diff([]string{"/w/a.html"}, paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
}
