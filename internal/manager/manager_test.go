package manager_test

import (
	"sync"
	"testing"

	"mosaic/internal/manager"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranged(startLine, startChar, endLine, endChar uint32, text string) protocol.TextDocumentContentChangeEvent {
	return protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: startLine, Character: startChar},
			End:   protocol.Position{Line: endLine, Character: endChar},
		},
		Text: text,
	}
}

func TestOpenAndGet(t *testing.T) {
	dm := manager.NewDocumentManager()
	_, err := dm.Get("file:///a.html")
	assert.ErrorIs(t, err, manager.ErrDocumentNotFound)

	opened := dm.Open("file:///a.html", "html", 1, "<p></p>")
	doc, err := dm.Get("file:///a.html")
	require.NoError(t, err)
	assert.Same(t, opened, doc)
	assert.Equal(t, int32(1), doc.Version)
	assert.Equal(t, "html", doc.LanguageID)
}

func TestApplyChanges(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		changes []any
		want    string
	}{
		{
			name:    "insert",
			text:    "<p></p>",
			changes: []any{ranged(0, 3, 0, 3, "hi")},
			want:    "<p>hi</p>",
		},
		{
			name:    "replace across lines",
			text:    "a\nb\nc",
			changes: []any{ranged(0, 1, 2, 0, "-")},
			want:    "a-c",
		},
		{
			name:    "utf-16 columns",
			text:    "😀é x",
			changes: []any{ranged(0, 3, 0, 4, "")},
			want:    "😀 x",
		},
		{
			name:    "sequential",
			text:    "abc",
			changes: []any{ranged(0, 0, 0, 1, "x"), ranged(0, 3, 0, 3, "!")},
			want:    "xbc!",
		},
		{
			name:    "whole",
			text:    "old",
			changes: []any{protocol.TextDocumentContentChangeEventWhole{Text: "new"}},
			want:    "new",
		},
		{
			name:    "pointer",
			text:    "ab",
			changes: []any{&protocol.TextDocumentContentChangeEvent{Range: &protocol.Range{End: protocol.Position{Character: 1}}, Text: ""}},
			want:    "b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dm := manager.NewDocumentManager()
			dm.Open("file:///a.html", "html", 1, tt.text)
			doc, err := dm.ApplyChanges("file:///a.html", 2, tt.changes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Text)
			assert.Equal(t, int32(2), doc.Version)

			current, err := dm.Get("file:///a.html")
			require.NoError(t, err)
			assert.Same(t, doc, current)
		})
	}
}

func TestApplyChangesErrors(t *testing.T) {
	dm := manager.NewDocumentManager()
	_, err := dm.ApplyChanges("file:///missing.html", 1, nil)
	assert.ErrorIs(t, err, manager.ErrDocumentNotFound)

	dm.Open("file:///a.html", "html", 1, "x")
	_, err = dm.ApplyChanges("file:///a.html", 2, []any{"bogus"})
	assert.Error(t, err)

	doc, err := dm.Get("file:///a.html")
	require.NoError(t, err)
	assert.Equal(t, int32(1), doc.Version)
}

func TestEmptyChangeBumpsVersion(t *testing.T) {
	dm := manager.NewDocumentManager()
	old := dm.Open("file:///a.html", "html", 1, "x")
	doc, err := dm.ApplyChanges("file:///a.html", 2, nil)
	require.NoError(t, err)
	assert.NotSame(t, old, doc)
	assert.Equal(t, int32(2), doc.Version)
	assert.Equal(t, "x", doc.Text)
}

func TestReleaseAndURIs(t *testing.T) {
	dm := manager.NewDocumentManager()
	dm.Open("file:///b.html", "html", 1, "")
	dm.Open("file:///a.html", "html", 1, "")
	assert.Equal(t, []string{"file:///a.html", "file:///b.html"}, dm.URIs())

	assert.True(t, dm.Release("file:///a.html"))
	assert.False(t, dm.Release("file:///a.html"))
	assert.Equal(t, []string{"file:///b.html"}, dm.URIs())

	dm.CloseAll()
	assert.Empty(t, dm.URIs())
}

func TestConcurrentAccess(t *testing.T) {
	dm := manager.NewDocumentManager()
	dm.Open("file:///a.html", "html", 0, "")

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(version int32) {
			defer wg.Done()
			_, err := dm.ApplyChanges("file:///a.html", version, []any{ranged(0, 0, 0, 0, "x")})
			assert.NoError(t, err)
			_, err = dm.Get("file:///a.html")
			assert.NoError(t, err)
		}(int32(i))
	}
	wg.Wait()

	doc, err := dm.Get("file:///a.html")
	require.NoError(t, err)
	assert.Len(t, doc.Text, 20)
}
