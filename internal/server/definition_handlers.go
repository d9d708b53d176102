package server

import (
	"errors"

	"mosaic/internal/modes"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.DoComplete(s.ctx, doc, params.Position)
}

func (s *Server) completionItemResolve(
	context *glsp.Context,
	params *protocol.CompletionItem,
) (*protocol.CompletionItem, error) {
	item, err := s.dispatcher.DoResolve(s.ctx, *params)
	if errors.Is(err, modes.ErrInvalidResolveData) || errors.Is(err, modes.ErrUnknownLanguage) {
		log.Debugf("not resolving %q: %v", params.Label, err)
		return params, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Server) textDocumentHover(
	context *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.DoHover(s.ctx, doc, params.Position)
}

func (s *Server) textDocumentSignatureHelp(
	context *glsp.Context,
	params *protocol.SignatureHelpParams,
) (*protocol.SignatureHelp, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.DoSignatureHelp(s.ctx, doc, params.Position)
}

func (s *Server) textDocumentDocumentHighlight(
	context *glsp.Context,
	params *protocol.DocumentHighlightParams,
) ([]protocol.DocumentHighlight, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.FindDocumentHighlight(s.ctx, doc, params.Position)
}

func (s *Server) textDocumentDocumentSymbol(
	context *glsp.Context,
	params *protocol.DocumentSymbolParams,
) (any, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	symbols, err := s.dispatcher.FindDocumentSymbols(s.ctx, doc)
	if err != nil {
		log.Warningf("symbols of %s: %v", doc.URI, err)
	}
	return symbols, nil
}

func (s *Server) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.FindDefinition(s.ctx, doc, params.Position)
}

func (s *Server) textDocumentReferences(
	context *glsp.Context,
	params *protocol.ReferenceParams,
) ([]protocol.Location, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.FindReferences(s.ctx, doc, params.Position)
}

func (s *Server) textDocumentColor(
	context *glsp.Context,
	params *protocol.DocumentColorParams,
) ([]protocol.ColorInformation, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	colors, err := s.dispatcher.FindDocumentColors(s.ctx, doc)
	if err != nil {
		log.Warningf("colors of %s: %v", doc.URI, err)
	}
	return colors, nil
}

func (s *Server) textDocumentColorPresentation(
	context *glsp.Context,
	params *protocol.ColorPresentationParams,
) ([]protocol.ColorPresentation, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.GetColorPresentations(s.ctx, doc, params.Color, params.Range)
}

func (s *Server) textDocumentFormatting(
	context *glsp.Context,
	params *protocol.DocumentFormattingParams,
) ([]protocol.TextEdit, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Format(s.ctx, doc, doc.RangeAt(0, len(doc.Text)), params.Options)
}

func (s *Server) textDocumentRangeFormatting(
	context *glsp.Context,
	params *protocol.DocumentRangeFormattingParams,
) ([]protocol.TextEdit, error) {
	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Format(s.ctx, doc, params.Range, params.Options)
}
