// Package modes exposes the embedded language engines behind one operation
// contract expressed in host document coordinates.
//
// Every mode chains model caches: the host document is split into regions,
// the regions are flattened into a virtual document holding only the mode's
// language, and the virtual document is analyzed by the engine. Virtual
// documents keep the byte offsets of the host, so engine spans are mapped
// back through the host document alone.
package modes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mosaic/internal/cache"
	"mosaic/internal/config"
	"mosaic/internal/document"
	"mosaic/internal/regions"
	"mosaic/internal/scheduler"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.opentelemetry.io/otel/metric"
)

var log = commonlog.GetLogger("mosaic.modes")

var (
	// ErrUnknownLanguage is returned when no mode serves a language.
	ErrUnknownLanguage = errors.New("no mode for language")
	// ErrInvalidResolveData is returned for completion items whose data was
	// not produced by a mode.
	ErrInvalidResolveData = errors.New("invalid completion resolve data")
)

const (
	DefaultMaxEntries      = 10
	DefaultCleanupInterval = 60 * time.Second
)

// Mode answers language queries for one embedded language.
type Mode interface {
	ID() string
	Configure(settings config.Settings)

	// DoValidation uses the configured settings when settings is nil.
	DoValidation(ctx context.Context, doc *document.Document, settings *config.Settings) ([]protocol.Diagnostic, error)
	DoComplete(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.CompletionList, error)
	DoResolve(ctx context.Context, doc *document.Document, item protocol.CompletionItem) (protocol.CompletionItem, error)
	DoHover(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.Hover, error)
	DoSignatureHelp(ctx context.Context, doc *document.Document, pos protocol.Position) (*protocol.SignatureHelp, error)
	FindDocumentHighlight(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.DocumentHighlight, error)
	FindDocumentSymbols(ctx context.Context, doc *document.Document) ([]protocol.SymbolInformation, error)
	FindDefinition(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.Location, error)
	FindReferences(ctx context.Context, doc *document.Document, pos protocol.Position) ([]protocol.Location, error)
	FindDocumentColors(ctx context.Context, doc *document.Document) ([]protocol.ColorInformation, error)
	GetColorPresentations(ctx context.Context, doc *document.Document, color protocol.Color, rng protocol.Range) ([]protocol.ColorPresentation, error)
	Format(ctx context.Context, doc *document.Document, rng protocol.Range, opts protocol.FormattingOptions, settings *config.Settings) ([]protocol.TextEdit, error)

	OnDocumentRemoved(uri string)
	Dispose()
}

// Options size the caches of the modes.
type Options struct {
	MaxEntries      int
	CleanupInterval time.Duration
	// Scheduler, when set, runs the periodic cache sweeps.
	Scheduler     *scheduler.Scheduler
	MeterProvider metric.MeterProvider
}

func (o Options) withDefaults() Options {
	if o.MaxEntries <= 0 {
		o.MaxEntries = DefaultMaxEntries
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = DefaultCleanupInterval
	}
	return o
}

func (o Options) cacheOptions() []cache.Option {
	var opts []cache.Option
	if o.Scheduler != nil {
		opts = append(opts, cache.WithScheduler(o.Scheduler))
	}
	if o.MeterProvider != nil {
		opts = append(opts, cache.WithMeterProvider(o.MeterProvider))
	}
	return opts
}

// RegionsCache holds the region layout of host documents. One instance is
// shared by all modes.
type RegionsCache = cache.ModelCache[*regions.Regions]

// NewRegionsCache creates the shared regions cache.
func NewRegionsCache(extractor *regions.Extractor, o Options) *RegionsCache {
	o = o.withDefaults()
	return cache.New[*regions.Regions]("regions", o.MaxEntries, o.CleanupInterval, extractor.Parse, o.cacheOptions()...)
}

// newVirtualCache creates the cache of languageID's virtual documents,
// keyed by host document. A virtual document keeps the version of the host
// it was first extracted from until its text changes, so unchanged
// extractions reuse the previous instance and whatever is cached for it.
func newVirtualCache(languageID string, regionsCache *RegionsCache, o Options) *cache.ModelCache[*document.Document] {
	var virtual *cache.ModelCache[*document.Document]
	derive := func(ctx context.Context, host *document.Document) (*document.Document, error) {
		r, err := regionsCache.Get(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("regions of %s: %w", host.URI, err)
		}
		text := r.EmbeddedText(languageID, false)
		if prev, ok := virtual.Peek(host.URI); ok && prev.Text == text {
			return prev, nil
		}
		return document.New(host.URI, languageID, host.Version, text), nil
	}
	virtual = cache.New[*document.Document](languageID+".virtual", o.MaxEntries, o.CleanupInterval, derive, o.cacheOptions()...)
	return virtual
}

// CompletionData is attached to completion items so that they can be
// resolved later.
type CompletionData struct {
	LanguageID string `json:"languageId"`
	URI        string `json:"uri"`
	Offset     int    `json:"offset"`
}

// DecodeCompletionData reads the data of a completion item, which arrives
// as a decoded JSON object when the item went through the client.
func DecodeCompletionData(v any) (CompletionData, error) {
	var data CompletionData
	switch d := v.(type) {
	case nil:
		return CompletionData{}, ErrInvalidResolveData
	case CompletionData:
		data = d
	case *CompletionData:
		if d == nil {
			return CompletionData{}, ErrInvalidResolveData
		}
		data = *d
	case json.RawMessage:
		if err := json.Unmarshal(d, &data); err != nil {
			return CompletionData{}, fmt.Errorf("%w: %v", ErrInvalidResolveData, err)
		}
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return CompletionData{}, fmt.Errorf("%w: %v", ErrInvalidResolveData, err)
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return CompletionData{}, fmt.Errorf("%w: %v", ErrInvalidResolveData, err)
		}
	}
	if data.LanguageID == "" || data.URI == "" || data.Offset < 0 {
		return CompletionData{}, ErrInvalidResolveData
	}
	return data, nil
}
