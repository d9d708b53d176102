package modes_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
	"unicode/utf16"

	"mosaic/internal/config"
	"mosaic/internal/document"
	"mosaic/internal/modes"
	"mosaic/internal/parser"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotOpen = errors.New("document not open")

type documents map[string]*document.Document

func (d documents) Get(uri string) (*document.Document, error) {
	doc, ok := d[uri]
	if !ok {
		return nil, errNotOpen
	}
	return doc, nil
}

func (d documents) open(uri, text string) *document.Document {
	doc := document.New(uri, parser.HTML, 1, text)
	d[uri] = doc
	return doc
}

func newDispatcher(t *testing.T, docs documents) *modes.Dispatcher {
	t.Helper()
	d, err := modes.NewDispatcher(context.Background(), docs, modes.Options{})
	require.NoError(t, err)
	t.Cleanup(d.Dispose)
	return d
}

// apply applies LSP edits to doc's text.
func apply(doc *document.Document, edits []protocol.TextEdit) string {
	sorted := append([]protocol.TextEdit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return doc.OffsetAt(sorted[i].Range.Start) > doc.OffsetAt(sorted[j].Range.Start)
	})
	text := doc.Text
	for _, e := range sorted {
		start, end := doc.OffsetAt(e.Range.Start), doc.OffsetAt(e.Range.End)
		text = text[:start] + e.NewText + text[end:]
	}
	return text
}

func sources(diagnostics []protocol.Diagnostic) []string {
	var result []string
	for _, d := range diagnostics {
		result = append(result, *d.Source)
	}
	return result
}

func TestDiagnosticsMapToHostOffsets(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)

	text := "<p>é</p><style>a{}</style>"
	doc := docs.open("file:///k.html", text)
	k := strings.Index(text, "a{}")

	diagnostics, err := d.DoValidation(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, diagnostics, 1)

	want := protocol.Position{Line: 0, Character: uint32(len(utf16.Encode([]rune(text[:k]))))}
	assert.Equal(t, want, diagnostics[0].Range.Start)
	assert.Equal(t, doc.PositionAt(k), diagnostics[0].Range.Start)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *diagnostics[0].Severity)
}

func TestValidationMergesModes(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)
	doc := docs.open("file:///m.html", "<style>a{}</style>\n<script>\nlet x = 1;\nlet x = 2;\n</script>\n")

	diagnostics, err := d.DoValidation(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"css", "js", "js"}, sources(diagnostics))

	settings := config.Default()
	off := false
	settings.CSS.Validate = &off
	d.Configure(settings)

	diagnostics, err = d.DoValidation(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"js", "js"}, sources(diagnostics))
}

func TestValidationOfPlainMarkup(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)
	doc := docs.open("file:///plain.html", "<p>nothing embedded</p>")

	diagnostics, err := d.DoValidation(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
}

func TestStyleSymbolsSkipWrapperRule(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)
	doc := docs.open("file:///s.html", "<style>a{color:red}\nb{color:blue}</style>\n<p style=\"color:red\">x</p>\n")

	symbols, err := d.FindDocumentSymbols(context.Background(), doc)
	require.NoError(t, err)

	var names []string
	for _, s := range symbols {
		names = append(names, s.Name)
		assert.Equal(t, doc.URI, s.Location.URI)
	}
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestScriptSymbols(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)
	doc := docs.open("file:///j.html", "<script>\nfunction outer() {\n  function inner() {}\n}\n</script>\n")

	symbols, err := d.FindDocumentSymbols(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, symbols, 2)

	assert.Equal(t, "outer", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindFunction, symbols[0].Kind)
	assert.Nil(t, symbols[0].ContainerName)
	assert.Equal(t, protocol.Position{Line: 1, Character: 0}, symbols[0].Location.Range.Start)

	assert.Equal(t, "inner", symbols[1].Name)
	require.NotNil(t, symbols[1].ContainerName)
	assert.Equal(t, "outer", *symbols[1].ContainerName)
}

func completionItem(t *testing.T, list *protocol.CompletionList, label string) protocol.CompletionItem {
	t.Helper()
	require.NotNil(t, list)
	for _, item := range list.Items {
		if item.Label == label {
			return item
		}
	}
	t.Fatalf("no completion item %q", label)
	return protocol.CompletionItem{}
}

func TestCompletionResolveRoundTrip(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)
	ctx := context.Background()

	text := "<style>a{col}</style>\n<script>\nconst limit = 3;\nlim\n</script>\n"
	doc := docs.open("file:///c.html", text)

	t.Run("style", func(t *testing.T) {
		offset := strings.Index(text, "col}") + 3
		list, err := d.DoComplete(ctx, doc, doc.PositionAt(offset))
		require.NoError(t, err)
		item := completionItem(t, list, "color")
		require.NotNil(t, item.Data)

		// the client hands the data back as decoded JSON
		item.Data = map[string]any{"languageId": "css", "uri": doc.URI, "offset": float64(offset)}
		resolved, err := d.DoResolve(ctx, item)
		require.NoError(t, err)
		require.NotNil(t, resolved.Detail)
		assert.Equal(t, "color", *resolved.Detail)
		assert.NotEmpty(t, resolved.Documentation)
		assert.Nil(t, resolved.Data)
	})

	t.Run("script", func(t *testing.T) {
		offset := strings.Index(text, "lim\n") + 3
		list, err := d.DoComplete(ctx, doc, doc.PositionAt(offset))
		require.NoError(t, err)
		item := completionItem(t, list, "limit")
		assert.Equal(t, protocol.CompletionItemKindVariable, *item.Kind)

		resolved, err := d.DoResolve(ctx, item)
		require.NoError(t, err)
		require.NotNil(t, resolved.Detail)
		assert.Equal(t, "const limit: number", *resolved.Detail)
		assert.Nil(t, resolved.Data)
	})

	t.Run("markup", func(t *testing.T) {
		list, err := d.DoComplete(ctx, doc, protocol.Position{Line: 0, Character: 1})
		require.NoError(t, err)
		assert.Empty(t, list.Items)
	})
}

func TestResolveErrors(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)
	ctx := context.Background()

	_, err := d.DoResolve(ctx, protocol.CompletionItem{Label: "x"})
	assert.ErrorIs(t, err, modes.ErrInvalidResolveData)

	_, err = d.DoResolve(ctx, protocol.CompletionItem{
		Label: "x",
		Data:  modes.CompletionData{LanguageID: "python", URI: "file:///a.html"},
	})
	assert.ErrorIs(t, err, modes.ErrUnknownLanguage)

	_, err = d.DoResolve(ctx, protocol.CompletionItem{
		Label: "x",
		Data:  modes.CompletionData{LanguageID: "css", URI: "file:///closed.html"},
	})
	assert.ErrorIs(t, err, errNotOpen)
}

func TestDecodeCompletionData(t *testing.T) {
	want := modes.CompletionData{LanguageID: "javascript", URI: "file:///a.html", Offset: 12}
	raw, err := json.Marshal(want)
	require.NoError(t, err)
	var decoded any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	tests := []struct {
		name string
		data any
		err  error
	}{
		{name: "value", data: want},
		{name: "pointer", data: &want},
		{name: "raw", data: json.RawMessage(raw)},
		{name: "decoded", data: decoded},
		{name: "nil", data: nil, err: modes.ErrInvalidResolveData},
		{name: "missing uri", data: map[string]any{"languageId": "css"}, err: modes.ErrInvalidResolveData},
		{name: "wrong type", data: "css", err: modes.ErrInvalidResolveData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := modes.DecodeCompletionData(tt.data)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestPointOperationsRoute(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)
	ctx := context.Background()

	text := "<style>a { display: block; }</style>\n<script>\nfunction add(a, b) { return a + b; }\nadd(1, 2);\nalert('x');\n</script>\n"
	doc := docs.open("file:///p.html", text)

	hover, err := d.DoHover(ctx, doc, doc.PositionAt(strings.Index(text, "display")))
	require.NoError(t, err)
	require.NotNil(t, hover)

	hover, err = d.DoHover(ctx, doc, doc.PositionAt(strings.LastIndex(text, "add")))
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Equal(t, protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: "function add(a, b)"}, hover.Contents)

	hover, err = d.DoHover(ctx, doc, protocol.Position{Line: 0, Character: 2})
	require.NoError(t, err)
	assert.Nil(t, hover)

	help, err := d.DoSignatureHelp(ctx, doc, doc.PositionAt(strings.Index(text, "2);")))
	require.NoError(t, err)
	require.NotNil(t, help)
	assert.Equal(t, "add(a, b)", help.Signatures[0].Label)
	assert.Equal(t, protocol.UInteger(1), *help.ActiveParameter)

	definitions, err := d.FindDefinition(ctx, doc, doc.PositionAt(strings.LastIndex(text, "add")))
	require.NoError(t, err)
	require.Len(t, definitions, 1)
	assert.Equal(t, doc.PositionAt(strings.Index(text, "add(a")), definitions[0].Range.Start)

	references, err := d.FindReferences(ctx, doc, doc.PositionAt(strings.LastIndex(text, "add")))
	require.NoError(t, err)
	assert.Len(t, references, 2)

	// ambient declarations are not locations in the document
	definitions, err = d.FindDefinition(ctx, doc, doc.PositionAt(strings.Index(text, "alert")))
	require.NoError(t, err)
	assert.Empty(t, definitions)
	references, err = d.FindReferences(ctx, doc, doc.PositionAt(strings.Index(text, "alert")))
	require.NoError(t, err)
	assert.Len(t, references, 1)

	highlights, err := d.FindDocumentHighlight(ctx, doc, doc.PositionAt(strings.Index(text, "a + b")))
	require.NoError(t, err)
	require.Len(t, highlights, 2)
	assert.Equal(t, protocol.DocumentHighlightKindWrite, *highlights[0].Kind)
	assert.Equal(t, protocol.DocumentHighlightKindText, *highlights[1].Kind)
}

func TestColors(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)
	ctx := context.Background()

	text := "<style>a { color: #ff0000; }</style>"
	doc := docs.open("file:///colors.html", text)

	colors, err := d.FindDocumentColors(ctx, doc)
	require.NoError(t, err)
	require.Len(t, colors, 1)
	assert.Equal(t, protocol.Decimal(1), colors[0].Color.Red)
	assert.Equal(t, protocol.Decimal(0), colors[0].Color.Green)
	assert.Equal(t, doc.PositionAt(strings.Index(text, "#ff0000")), colors[0].Range.Start)

	presentations, err := d.GetColorPresentations(ctx, doc, colors[0].Color, colors[0].Range)
	require.NoError(t, err)
	require.NotEmpty(t, presentations)
	for _, p := range presentations {
		require.NotNil(t, p.TextEdit)
		assert.Equal(t, colors[0].Range, p.TextEdit.Range)
		assert.Equal(t, p.Label, p.TextEdit.NewText)
	}
}

var formatOptions = protocol.FormattingOptions{
	protocol.FormattingOptionTabSize:      float64(2),
	protocol.FormattingOptionInsertSpaces: true,
}

func TestFormatDanglingLine(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)
	ctx := context.Background()

	doc := docs.open("file:///f.html", "<script>\nvar a=1;\n</script>\n")
	m, ok := d.Mode(parser.JavaScript)
	require.True(t, ok)

	// the range ends at column 0 of the closing tag line
	rng := protocol.Range{
		Start: protocol.Position{Line: 0, Character: 8},
		End:   protocol.Position{Line: 2, Character: 0},
	}
	edits, err := m.Format(ctx, doc, rng, formatOptions, nil)
	require.NoError(t, err)
	require.NotEmpty(t, edits)

	last := edits[len(edits)-1]
	assert.Equal(t, protocol.Range{Start: protocol.Position{Line: 2}, End: protocol.Position{Line: 2}}, last.Range)
	assert.Equal(t, "", last.NewText)
	for _, e := range edits[:len(edits)-1] {
		assert.Equal(t, protocol.UInteger(1), e.Range.Start.Line)
	}
	assert.Equal(t, "<script>\n  var a = 1;\n</script>\n", apply(doc, edits))
}

func TestFormatDocument(t *testing.T) {
	docs := documents{}
	d := newDispatcher(t, docs)
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "indented script",
			text: "<div>\n  <script>\n  var a=1;\n    </script>\n</div>\n",
			want: "<div>\n  <script>\n    var a = 1;\n  </script>\n</div>\n",
		},
		{
			name: "style",
			text: "<style>\n.a{\ncolor:red;\n}\n</style>\n",
			want: "<style>\n  .a {\n    color: red;\n  }\n</style>\n",
		},
		{
			name: "unbalanced earlier script",
			text: "<script>\nif (a) {\n</script>\n<script>\nvar b = 2;\n</script>\n",
			want: "<script>\n  if (a) {\n</script>\n<script>\n  var b = 2;\n</script>\n",
		},
		{
			name: "unbalanced earlier style",
			text: "<style>\n.a {\n</style>\n<style>\n.b {\ncolor: red;\n}\n</style>\n",
			want: "<style>\n  .a {\n</style>\n<style>\n  .b {\n    color: red;\n  }\n</style>\n",
		},
		{
			name: "attribute values are kept",
			text: "<p style=\"color:red\" onclick=\"f(a,b)\">x</p>\n",
			want: "<p style=\"color:red\" onclick=\"f(a,b)\">x</p>\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := docs.open("file:///"+strings.ReplaceAll(tt.name, " ", "-")+".html", tt.text)
			end := doc.PositionAt(len(doc.Text))
			edits, err := d.Format(ctx, doc, protocol.Range{End: end}, formatOptions)
			require.NoError(t, err)
			assert.Equal(t, tt.want, apply(doc, edits))
		})
	}
}

func TestUnavailableMode(t *testing.T) {
	m := modes.NewUnavailableMode("python")
	ctx := context.Background()
	doc := document.New("file:///a.html", parser.HTML, 1, "<p></p>")
	pos := protocol.Position{}

	assert.Equal(t, "python", m.ID())
	diagnostics, err := m.DoValidation(ctx, doc, nil)
	assert.NoError(t, err)
	assert.Empty(t, diagnostics)
	list, err := m.DoComplete(ctx, doc, pos)
	assert.NoError(t, err)
	assert.Empty(t, list.Items)
	hover, err := m.DoHover(ctx, doc, pos)
	assert.NoError(t, err)
	assert.Nil(t, hover)
	symbols, err := m.FindDocumentSymbols(ctx, doc)
	assert.NoError(t, err)
	assert.Empty(t, symbols)
	edits, err := m.Format(ctx, doc, protocol.Range{}, formatOptions, nil)
	assert.NoError(t, err)
	assert.Empty(t, edits)

	item, err := m.DoResolve(ctx, doc, protocol.CompletionItem{Label: "x", Data: 1})
	assert.NoError(t, err)
	assert.Nil(t, item.Data)
}
