package modes

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"mosaic/internal/cache"
	"mosaic/internal/config"
	"mosaic/internal/document"
	"mosaic/internal/format"
	"mosaic/internal/javascript"
	"mosaic/internal/parser"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// javascriptMode binds the script regions of the requested document to
// a long-lived analysis session. The session analyzes one script at a time,
// so every operation holds mu from binding to reading the results.
type javascriptMode struct {
	regions *RegionsCache
	virtual *cache.ModelCache[*document.Document]

	mu      sync.Mutex
	session *javascript.Session

	settingsMu sync.RWMutex
	settings   config.Settings
}

// NewJavaScriptMode creates the script mode over session. The mode owns
// the session from then on.
func NewJavaScriptMode(regionsCache *RegionsCache, session *javascript.Session, o Options) Mode {
	o = o.withDefaults()
	return &javascriptMode{
		regions:  regionsCache,
		virtual:  newVirtualCache(parser.JavaScript, regionsCache, o),
		session:  session,
		settings: config.Default(),
	}
}

func (m *javascriptMode) ID() string {
	return parser.JavaScript
}

func (m *javascriptMode) Configure(settings config.Settings) {
	m.settingsMu.Lock()
	defer m.settingsMu.Unlock()
	m.settings = settings
}

func (m *javascriptMode) configured(settings *config.Settings) config.Settings {
	if settings != nil {
		return *settings
	}
	m.settingsMu.RLock()
	defer m.settingsMu.RUnlock()
	return m.settings
}

// with binds the script of doc and runs f while holding the session.
func (m *javascriptMode) with(ctx context.Context, doc *document.Document, f func(s *javascript.Session)) error {
	virtual, err := m.virtual.Get(ctx, doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.session.Update(ctx, virtual); err != nil {
		return fmt.Errorf("failed to analyze script of %s: %w", doc.URI, err)
	}
	f(m.session)
	return nil
}

func (m *javascriptMode) DoValidation(ctx context.Context, doc *document.Document, settings *config.Settings) ([]protocol.Diagnostic, error) {
	s := m.configured(settings)
	if !config.Bool(s.JavaScript.Validate, true) {
		return nil, nil
	}
	var diagnostics []protocol.Diagnostic
	err := m.with(ctx, doc, func(session *javascript.Session) {
		diagnostics = toDiagnostics(doc, "js", session.Diagnostics())
	})
	return diagnostics, err
}

func (m *javascriptMode) DoComplete(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.CompletionList, error) {
	offset := doc.OffsetAt(pos)
	var list *protocol.CompletionList
	err := m.with(ctx, doc, func(session *javascript.Session) {
		list = toCompletionList(doc, parser.JavaScript, offset, session.Completions(offset))
	})
	return list, err
}

func (m *javascriptMode) DoResolve(ctx context.Context, doc *document.Document, item protocol.CompletionItem) (protocol.CompletionItem, error) {
	data, err := DecodeCompletionData(item.Data)
	if err != nil {
		return item, err
	}
	err = m.with(ctx, doc, func(session *javascript.Session) {
		if details, ok := session.CompletionDetails(data.Offset, item.Label); ok {
			item = resolved(item, details)
		}
	})
	item.Data = nil
	return item, err
}

func (m *javascriptMode) DoHover(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.Hover, error) {
	var hover *protocol.Hover
	err := m.with(ctx, doc, func(session *javascript.Session) {
		hover = toHover(doc, session.QuickInfo(doc.OffsetAt(pos)))
	})
	return hover, err
}

func (m *javascriptMode) DoSignatureHelp(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.SignatureHelp, error) {
	var help *protocol.SignatureHelp
	err := m.with(ctx, doc, func(session *javascript.Session) {
		help = toSignatureHelp(session.SignatureHelp(doc.OffsetAt(pos)))
	})
	return help, err
}

func (m *javascriptMode) FindDocumentHighlight(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.DocumentHighlight, error) {
	var highlights []protocol.DocumentHighlight
	err := m.with(ctx, doc, func(session *javascript.Session) {
		highlights = toHighlights(doc, session.Occurrences(doc.OffsetAt(pos)))
	})
	return highlights, err
}

// FindDocumentSymbols flattens the outline of the script. The script root
// itself is skipped and items repeated with the same name, kind and start
// are reported once. The container of a symbol is its nearest reported
// ancestor.
func (m *javascriptMode) FindDocumentSymbols(ctx context.Context, doc *document.Document) ([]protocol.SymbolInformation, error) {
	var symbols []protocol.SymbolInformation
	err := m.with(ctx, doc, func(session *javascript.Session) {
		seen := map[string]bool{}
		var collect func(item javascript.NavigationItem, container string)
		collect = func(item javascript.NavigationItem, container string) {
			key := item.Text + "\x00" + strconv.Itoa(int(item.Kind)) + "\x00" + strconv.Itoa(item.Span.Start)
			if item.Kind != javascript.NavScript && !seen[key] {
				seen[key] = true
				symbols = append(symbols, symbolInformation(doc, item.Text, navigationSymbolKind(item.Kind), item.Span, container))
				container = item.Text
			}
			for _, child := range item.Children {
				collect(child, container)
			}
		}
		for _, item := range session.NavigationItems() {
			collect(item, "")
		}
	})
	return symbols, err
}

// scriptLocations keeps the locations inside the script, dropping those in
// the ambient declarations.
func scriptLocations(doc *document.Document, locations []javascript.Location) []protocol.Location {
	var result []protocol.Location
	for _, l := range locations {
		if l.File != javascript.FileName {
			continue
		}
		result = append(result, protocol.Location{URI: doc.URI, Range: toRange(doc, l.Span)})
	}
	return result
}

func (m *javascriptMode) FindDefinition(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.Location, error) {
	var locations []protocol.Location
	err := m.with(ctx, doc, func(session *javascript.Session) {
		locations = scriptLocations(doc, session.Definition(doc.OffsetAt(pos)))
	})
	return locations, err
}

func (m *javascriptMode) FindReferences(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.Location, error) {
	var locations []protocol.Location
	err := m.with(ctx, doc, func(session *javascript.Session) {
		locations = scriptLocations(doc, session.References(doc.OffsetAt(pos)))
	})
	return locations, err
}

func (m *javascriptMode) FindDocumentColors(ctx context.Context, doc *document.Document) ([]protocol.ColorInformation, error) {
	return nil, nil
}

func (m *javascriptMode) GetColorPresentations(ctx context.Context, doc *document.Document, color protocol.Color, rng protocol.Range) ([]protocol.ColorPresentation, error) {
	return nil, nil
}

// formatSettings applies the configured spacing rules over the defaults.
func formatSettings(f config.JavaScriptFormat) javascript.FormatSettings {
	s := javascript.DefaultFormatSettings()
	s.InsertSpaceAfterCommaDelimiter = config.Bool(f.InsertSpaceAfterCommaDelimiter, s.InsertSpaceAfterCommaDelimiter)
	s.InsertSpaceAfterSemicolonInForStatements = config.Bool(f.InsertSpaceAfterSemicolonInForStatements, s.InsertSpaceAfterSemicolonInForStatements)
	s.InsertSpaceBeforeAndAfterBinaryOperators = config.Bool(f.InsertSpaceBeforeAndAfterBinaryOperators, s.InsertSpaceBeforeAndAfterBinaryOperators)
	s.InsertSpaceAfterKeywordsInControlFlowStatements = config.Bool(f.InsertSpaceAfterKeywordsInControlFlowStatements, s.InsertSpaceAfterKeywordsInControlFlowStatements)
	s.InsertSpaceAfterFunctionKeywordForAnonymousFunctions = config.Bool(f.InsertSpaceAfterFunctionKeywordForAnonymousFunctions, s.InsertSpaceAfterFunctionKeywordForAnonymousFunctions)
	s.InsertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis = config.Bool(f.InsertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis, s.InsertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis)
	s.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBrackets = config.Bool(f.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBrackets, s.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBrackets)
	s.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBraces = config.Bool(f.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBraces, s.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBraces)
	s.InsertSpaceAfterOpeningAndBeforeClosingTemplateStringBraces = config.Bool(f.InsertSpaceAfterOpeningAndBeforeClosingTemplateStringBraces, s.InsertSpaceAfterOpeningAndBeforeClosingTemplateStringBraces)
	return s
}

// Format binds a fresh extraction without attribute values and formats it.
// The next query rebinds the cached extraction.
func (m *javascriptMode) Format(ctx context.Context, doc *document.Document, rng protocol.Range, opts protocol.FormattingOptions, settings *config.Settings) ([]protocol.TextEdit, error) {
	r, err := m.regions.Get(ctx, doc)
	if err != nil {
		return nil, err
	}
	virtual := r.EmbeddedDocument(doc, parser.JavaScript, true)
	spacing := formatSettings(m.configured(settings).JavaScript.Format)
	origin := blockStart(r, parser.JavaScript, doc.OffsetAt(rng.Start))

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.session.Update(ctx, virtual); err != nil {
		return nil, fmt.Errorf("failed to analyze script of %s: %w", doc.URI, err)
	}
	return formatRange(doc, virtual, rng, opts, func(start, end int, o format.Options, base int) ([]format.Edit, error) {
		return m.session.FormattingEdits(start, end, javascript.FormatOptions{
			Options:   o,
			BaseLevel: base,
			Origin:    origin,
			Settings:  spacing,
		}), nil
	})
}

func (m *javascriptMode) OnDocumentRemoved(uri string) {
	m.virtual.OnDocumentRemoved(uri)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Release(uri)
}

func (m *javascriptMode) Dispose() {
	m.virtual.Dispose()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Dispose()
}
