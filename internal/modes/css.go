package modes

import (
	"context"
	"fmt"
	"sync"

	"mosaic/internal/analysis"
	"mosaic/internal/cache"
	"mosaic/internal/config"
	"mosaic/internal/css"
	"mosaic/internal/document"
	"mosaic/internal/format"
	"mosaic/internal/parser"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// wrapperSelector is the selector of the synthetic rule wrapping style
// attribute values.
const wrapperSelector = "__"

type cssMode struct {
	regions *RegionsCache
	engine  *css.Engine
	virtual *cache.ModelCache[*document.Document]
	sheets  *cache.ModelCache[*css.Stylesheet]

	// parse is the artifact derivation. Tests wrap it to count calls.
	parse func(ctx context.Context, text string) (*css.Stylesheet, error)

	mu       sync.RWMutex
	settings config.Settings
}

// NewCSSMode creates the style sheet mode.
func NewCSSMode(regionsCache *RegionsCache, engine *css.Engine, o Options) Mode {
	o = o.withDefaults()
	m := &cssMode{
		regions:  regionsCache,
		engine:   engine,
		virtual:  newVirtualCache(parser.CSS, regionsCache, o),
		settings: config.Default(),
	}
	m.parse = engine.Parse
	m.sheets = cache.New[*css.Stylesheet]("css.stylesheets", o.MaxEntries, o.CleanupInterval,
		func(ctx context.Context, virtual *document.Document) (*css.Stylesheet, error) {
			return m.parse(ctx, virtual.Text)
		}, o.cacheOptions()...)
	return m
}

func (m *cssMode) ID() string {
	return parser.CSS
}

func (m *cssMode) Configure(settings config.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
}

func (m *cssMode) configured(settings *config.Settings) config.Settings {
	if settings != nil {
		return *settings
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// stylesheet returns the parsed style sheet of doc's style regions.
func (m *cssMode) stylesheet(ctx context.Context, doc *document.Document) (*css.Stylesheet, error) {
	virtual, err := m.virtual.Get(ctx, doc)
	if err != nil {
		return nil, err
	}
	sheet, err := m.sheets.Get(ctx, virtual)
	if err != nil {
		return nil, fmt.Errorf("failed to parse style sheet of %s: %w", doc.URI, err)
	}
	return sheet, nil
}

func validationOptions(settings config.CSSSettings) css.ValidationOptions {
	opts := css.ValidationOptions{Validate: config.Bool(settings.Validate, true)}
	if len(settings.Lint) > 0 {
		opts.Lint = make(map[string]css.Level, len(settings.Lint))
		for rule, level := range settings.Lint {
			switch l := css.Level(level); l {
			case css.LevelIgnore, css.LevelWarning, css.LevelError:
				opts.Lint[rule] = l
			default:
				log.Warningf("ignoring lint level %q of rule %s", level, rule)
			}
		}
	}
	return opts
}

func (m *cssMode) DoValidation(ctx context.Context, doc *document.Document, settings *config.Settings) ([]protocol.Diagnostic, error) {
	sheet, err := m.stylesheet(ctx, doc)
	if err != nil {
		return nil, err
	}
	s := m.configured(settings)
	return toDiagnostics(doc, parser.CSS, m.engine.Validate(sheet, validationOptions(s.CSS))), nil
}

func (m *cssMode) DoComplete(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.CompletionList, error) {
	sheet, err := m.stylesheet(ctx, doc)
	if err != nil {
		return nil, err
	}
	offset := doc.OffsetAt(pos)
	return toCompletionList(doc, parser.CSS, offset, m.engine.Complete(sheet, offset)), nil
}

func (m *cssMode) DoResolve(ctx context.Context, doc *document.Document, item protocol.CompletionItem) (protocol.CompletionItem, error) {
	if details, ok := m.engine.ResolveCompletion(item.Label); ok {
		return resolved(item, details), nil
	}
	item.Data = nil
	return item, nil
}

func (m *cssMode) DoHover(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.Hover, error) {
	sheet, err := m.stylesheet(ctx, doc)
	if err != nil {
		return nil, err
	}
	return toHover(doc, m.engine.Hover(sheet, doc.OffsetAt(pos))), nil
}

func (m *cssMode) DoSignatureHelp(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.SignatureHelp, error) {
	return nil, nil
}

func (m *cssMode) FindDocumentHighlight(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.DocumentHighlight, error) {
	sheet, err := m.stylesheet(ctx, doc)
	if err != nil {
		return nil, err
	}
	return toHighlights(doc, m.engine.Highlights(sheet, doc.OffsetAt(pos))), nil
}

func (m *cssMode) FindDocumentSymbols(ctx context.Context, doc *document.Document) ([]protocol.SymbolInformation, error) {
	sheet, err := m.stylesheet(ctx, doc)
	if err != nil {
		return nil, err
	}
	var symbols []protocol.SymbolInformation
	for _, s := range m.engine.Symbols(sheet) {
		if s.Name == wrapperSelector {
			continue
		}
		symbols = append(symbols, symbolInformation(doc, s.Name, toSymbolKind(s.Kind), s.Span, s.Container))
	}
	return symbols, nil
}

func (m *cssMode) FindDefinition(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.Location, error) {
	sheet, err := m.stylesheet(ctx, doc)
	if err != nil {
		return nil, err
	}
	definition, ok := m.engine.Definition(sheet, doc.OffsetAt(pos))
	if !ok {
		return nil, nil
	}
	return toLocations(doc, []analysis.Span{definition}), nil
}

func (m *cssMode) FindReferences(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.Location, error) {
	sheet, err := m.stylesheet(ctx, doc)
	if err != nil {
		return nil, err
	}
	return toLocations(doc, m.engine.References(sheet, doc.OffsetAt(pos))), nil
}

func (m *cssMode) FindDocumentColors(ctx context.Context, doc *document.Document) ([]protocol.ColorInformation, error) {
	sheet, err := m.stylesheet(ctx, doc)
	if err != nil {
		return nil, err
	}
	return toColorInformation(doc, m.engine.Colors(sheet)), nil
}

func (m *cssMode) GetColorPresentations(ctx context.Context, doc *document.Document, color protocol.Color, rng protocol.Range) ([]protocol.ColorPresentation, error) {
	labels := m.engine.ColorPresentations(fromColor(color))
	result := make([]protocol.ColorPresentation, 0, len(labels))
	for _, label := range labels {
		result = append(result, protocol.ColorPresentation{
			Label:    label,
			TextEdit: &protocol.TextEdit{Range: rng, NewText: label},
		})
	}
	return result, nil
}

// Format formats a fresh extraction without attribute values, which are
// never reformatted.
func (m *cssMode) Format(ctx context.Context, doc *document.Document, rng protocol.Range, opts protocol.FormattingOptions, settings *config.Settings) ([]protocol.TextEdit, error) {
	r, err := m.regions.Get(ctx, doc)
	if err != nil {
		return nil, err
	}
	virtual := r.EmbeddedDocument(doc, parser.CSS, true)
	sheet, err := m.engine.Parse(ctx, virtual.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse style sheet of %s: %w", doc.URI, err)
	}
	origin := blockStart(r, parser.CSS, doc.OffsetAt(rng.Start))
	return formatRange(doc, virtual, rng, opts, func(start, end int, o format.Options, base int) ([]format.Edit, error) {
		return m.engine.Format(sheet, start, end, css.FormatOptions{Options: o, BaseLevel: base, Origin: origin}), nil
	})
}

func (m *cssMode) OnDocumentRemoved(uri string) {
	m.virtual.OnDocumentRemoved(uri)
	m.sheets.OnDocumentRemoved(uri)
}

func (m *cssMode) Dispose() {
	m.virtual.Dispose()
	m.sheets.Dispose()
}
