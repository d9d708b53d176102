package modes

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"mosaic/internal/config"
	"mosaic/internal/css"
	"mosaic/internal/document"
	"mosaic/internal/javascript"
	"mosaic/internal/parser"
	"mosaic/internal/regions"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DocumentSource looks up open host documents by uri.
type DocumentSource interface {
	Get(uri string) (*document.Document, error)
}

// Dispatcher routes queries on host documents to the modes of the embedded
// languages and merges their results.
type Dispatcher struct {
	source    DocumentSource
	pools     []*parser.Pool
	extractor *regions.Extractor
	regions   *RegionsCache

	modes []Mode
	byID  map[string]Mode

	mu       sync.RWMutex
	settings config.Settings

	disposeOnce sync.Once
}

// NewDispatcher starts the engines and creates the modes. An engine that
// fails to start leaves its language unavailable; only a failure of the
// host grammar is an error.
func NewDispatcher(ctx context.Context, source DocumentSource, o Options) (*Dispatcher, error) {
	o = o.withDefaults()
	size := runtime.GOMAXPROCS(0)

	hostPool, err := parser.NewPool(size, parser.HTML)
	if err != nil {
		return nil, fmt.Errorf("failed to create host parser: %w", err)
	}
	extractor, err := regions.NewExtractor(hostPool)
	if err != nil {
		hostPool.Close()
		return nil, err
	}

	d := &Dispatcher{
		source:    source,
		pools:     []*parser.Pool{hostPool},
		extractor: extractor,
		regions:   NewRegionsCache(extractor, o),
		byID:      make(map[string]Mode),
		settings:  config.Default(),
	}

	if pool, err := parser.NewPool(size, parser.CSS); err != nil {
		log.Errorf("style engine unavailable: %v", err)
		d.add(NewUnavailableMode(parser.CSS))
	} else {
		d.pools = append(d.pools, pool)
		d.add(NewCSSMode(d.regions, css.NewEngine(pool), o))
	}

	if mode, err := d.newJavaScriptMode(ctx, size, o); err != nil {
		log.Errorf("script engine unavailable: %v", err)
		d.add(NewUnavailableMode(parser.JavaScript))
	} else {
		d.add(mode)
	}

	return d, nil
}

func (d *Dispatcher) newJavaScriptMode(ctx context.Context, size int, o Options) (Mode, error) {
	pool, err := parser.NewPool(size, parser.JavaScript)
	if err != nil {
		return nil, err
	}
	session, err := javascript.NewSession(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	d.pools = append(d.pools, pool)
	return NewJavaScriptMode(d.regions, session, o), nil
}

func (d *Dispatcher) add(m Mode) {
	d.modes = append(d.modes, m)
	d.byID[m.ID()] = m
}

// Mode returns the mode of a language.
func (d *Dispatcher) Mode(languageID string) (Mode, bool) {
	m, ok := d.byID[languageID]
	return m, ok
}

// Settings returns the settings of the last Configure.
func (d *Dispatcher) Settings() config.Settings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.settings
}

// Configure replaces the settings of all modes.
func (d *Dispatcher) Configure(settings config.Settings) {
	d.mu.Lock()
	d.settings = settings
	d.mu.Unlock()
	for _, m := range d.modes {
		m.Configure(settings)
	}
}

// modeAt returns the mode of the language at pos, or nil for host markup.
func (d *Dispatcher) modeAt(ctx context.Context, doc *document.Document, pos protocol.Position) (Mode, error) {
	r, err := d.regions.Get(ctx, doc)
	if err != nil {
		return nil, err
	}
	return d.byID[r.LanguageAt(doc.OffsetAt(pos))], nil
}

// present returns the modes whose language occurs in doc, in mode order.
func (d *Dispatcher) present(ctx context.Context, doc *document.Document) ([]Mode, error) {
	r, err := d.regions.Get(ctx, doc)
	if err != nil {
		return nil, err
	}
	languages := map[string]bool{}
	for _, id := range r.LanguagesInDocument() {
		languages[id] = true
	}
	var result []Mode
	for _, m := range d.modes {
		if languages[m.ID()] {
			result = append(result, m)
		}
	}
	return result, nil
}

// DoValidation validates every embedded language of doc with the current
// settings.
func (d *Dispatcher) DoValidation(ctx context.Context, doc *document.Document) ([]protocol.Diagnostic, error) {
	modes, err := d.present(ctx, doc)
	if err != nil {
		return nil, err
	}
	settings := d.Settings()
	diagnostics := []protocol.Diagnostic{}
	var errs []error
	for _, m := range modes {
		found, err := m.DoValidation(ctx, doc, &settings)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.ID(), err))
			continue
		}
		diagnostics = append(diagnostics, found...)
	}
	return diagnostics, errors.Join(errs...)
}

func (d *Dispatcher) DoComplete(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.CompletionList, error) {
	m, err := d.modeAt(ctx, doc, pos)
	if err != nil || m == nil {
		return &protocol.CompletionList{}, err
	}
	return m.DoComplete(ctx, doc, pos)
}

// DoResolve forwards item to the mode that produced it.
func (d *Dispatcher) DoResolve(ctx context.Context, item protocol.CompletionItem) (protocol.CompletionItem, error) {
	data, err := DecodeCompletionData(item.Data)
	if err != nil {
		return item, err
	}
	m, ok := d.byID[data.LanguageID]
	if !ok {
		return item, fmt.Errorf("%w: %s", ErrUnknownLanguage, data.LanguageID)
	}
	doc, err := d.source.Get(data.URI)
	if err != nil {
		return item, err
	}
	return m.DoResolve(ctx, doc, item)
}

func (d *Dispatcher) DoHover(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.Hover, error) {
	m, err := d.modeAt(ctx, doc, pos)
	if err != nil || m == nil {
		return nil, err
	}
	return m.DoHover(ctx, doc, pos)
}

func (d *Dispatcher) DoSignatureHelp(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.SignatureHelp, error) {
	m, err := d.modeAt(ctx, doc, pos)
	if err != nil || m == nil {
		return nil, err
	}
	return m.DoSignatureHelp(ctx, doc, pos)
}

func (d *Dispatcher) FindDocumentHighlight(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.DocumentHighlight, error) {
	m, err := d.modeAt(ctx, doc, pos)
	if err != nil || m == nil {
		return nil, err
	}
	return m.FindDocumentHighlight(ctx, doc, pos)
}

func (d *Dispatcher) FindDefinition(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.Location, error) {
	m, err := d.modeAt(ctx, doc, pos)
	if err != nil || m == nil {
		return nil, err
	}
	return m.FindDefinition(ctx, doc, pos)
}

func (d *Dispatcher) FindReferences(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.Location, error) {
	m, err := d.modeAt(ctx, doc, pos)
	if err != nil || m == nil {
		return nil, err
	}
	return m.FindReferences(ctx, doc, pos)
}

func (d *Dispatcher) FindDocumentSymbols(ctx context.Context, doc *document.Document) ([]protocol.SymbolInformation, error) {
	modes, err := d.present(ctx, doc)
	if err != nil {
		return nil, err
	}
	symbols := []protocol.SymbolInformation{}
	var errs []error
	for _, m := range modes {
		found, err := m.FindDocumentSymbols(ctx, doc)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.ID(), err))
			continue
		}
		symbols = append(symbols, found...)
	}
	return symbols, errors.Join(errs...)
}

func (d *Dispatcher) FindDocumentColors(ctx context.Context, doc *document.Document) ([]protocol.ColorInformation, error) {
	modes, err := d.present(ctx, doc)
	if err != nil {
		return nil, err
	}
	colors := []protocol.ColorInformation{}
	var errs []error
	for _, m := range modes {
		found, err := m.FindDocumentColors(ctx, doc)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.ID(), err))
			continue
		}
		colors = append(colors, found...)
	}
	return colors, errors.Join(errs...)
}

func (d *Dispatcher) GetColorPresentations(ctx context.Context, doc *document.Document, color protocol.Color, rng protocol.Range) ([]protocol.ColorPresentation, error) {
	m, err := d.modeAt(ctx, doc, rng.Start)
	if err != nil || m == nil {
		return nil, err
	}
	return m.GetColorPresentations(ctx, doc, color, rng)
}

// Format formats the embedded code intersecting rng. Host markup and
// attribute values keep their layout.
func (d *Dispatcher) Format(ctx context.Context, doc *document.Document, rng protocol.Range, opts protocol.FormattingOptions) ([]protocol.TextEdit, error) {
	r, err := d.regions.Get(ctx, doc)
	if err != nil {
		return nil, err
	}
	settings := d.Settings()
	edits := []protocol.TextEdit{}
	for _, lr := range r.LanguageRanges(doc.OffsetAt(rng.Start), doc.OffsetAt(rng.End)) {
		if lr.AttributeValue {
			continue
		}
		m, ok := d.byID[lr.LanguageID]
		if !ok {
			continue
		}
		found, err := m.Format(ctx, doc, doc.RangeAt(lr.Start, lr.End), opts, &settings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.ID(), err)
		}
		edits = append(edits, found...)
	}
	return edits, nil
}

// OnDocumentRemoved drops everything cached for uri.
func (d *Dispatcher) OnDocumentRemoved(uri string) {
	d.regions.OnDocumentRemoved(uri)
	for _, m := range d.modes {
		m.OnDocumentRemoved(uri)
	}
}

// Dispose stops the modes and frees the parsers.
func (d *Dispatcher) Dispose() {
	d.disposeOnce.Do(func() {
		for _, m := range d.modes {
			m.Dispose()
		}
		d.regions.Dispose()
		d.extractor.Close()
		for _, p := range d.pools {
			p.Close()
		}
	})
}
