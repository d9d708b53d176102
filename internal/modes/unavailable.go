package modes

import (
	"context"

	"mosaic/internal/config"
	"mosaic/internal/document"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// unavailableMode stands in for a language whose engine failed to start.
// Every query succeeds with an empty result.
type unavailableMode struct {
	id string
}

// NewUnavailableMode returns a mode for id that answers nothing.
func NewUnavailableMode(id string) Mode {
	return unavailableMode{id: id}
}

func (m unavailableMode) ID() string                { return m.id }
func (m unavailableMode) Configure(config.Settings) {}

func (unavailableMode) DoValidation(context.Context, *document.Document, *config.Settings) ([]protocol.Diagnostic, error) {
	return nil, nil
}

func (unavailableMode) DoComplete(context.Context, *document.Document, protocol.Position) (*protocol.CompletionList, error) {
	return &protocol.CompletionList{}, nil
}

func (unavailableMode) DoResolve(_ context.Context, _ *document.Document, item protocol.CompletionItem) (protocol.CompletionItem, error) {
	item.Data = nil
	return item, nil
}

func (unavailableMode) DoHover(context.Context, *document.Document, protocol.Position) (*protocol.Hover, error) {
	return nil, nil
}

func (unavailableMode) DoSignatureHelp(context.Context, *document.Document, protocol.Position) (*protocol.SignatureHelp, error) {
	return nil, nil
}

func (unavailableMode) FindDocumentHighlight(context.Context, *document.Document, protocol.Position) ([]protocol.DocumentHighlight, error) {
	return nil, nil
}

func (unavailableMode) FindDocumentSymbols(context.Context, *document.Document) ([]protocol.SymbolInformation, error) {
	return nil, nil
}

func (unavailableMode) FindDefinition(context.Context, *document.Document, protocol.Position) ([]protocol.Location, error) {
	return nil, nil
}

func (unavailableMode) FindReferences(context.Context, *document.Document, protocol.Position) ([]protocol.Location, error) {
	return nil, nil
}

func (unavailableMode) FindDocumentColors(context.Context, *document.Document) ([]protocol.ColorInformation, error) {
	return nil, nil
}

func (unavailableMode) GetColorPresentations(context.Context, *document.Document, protocol.Color, protocol.Range) ([]protocol.ColorPresentation, error) {
	return nil, nil
}

func (unavailableMode) Format(context.Context, *document.Document, protocol.Range, protocol.FormattingOptions, *config.Settings) ([]protocol.TextEdit, error) {
	return nil, nil
}

func (unavailableMode) OnDocumentRemoved(string) {}
func (unavailableMode) Dispose()                 {}
