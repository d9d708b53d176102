package modes

import (
	"mosaic/internal/analysis"
	"mosaic/internal/document"
	"mosaic/internal/format"
	"mosaic/internal/javascript"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

func toRange(host *document.Document, s analysis.Span) protocol.Range {
	return host.RangeAt(s.Start, s.End)
}

func toSeverity(s analysis.Severity) protocol.DiagnosticSeverity {
	switch s {
	case analysis.SeverityError:
		return protocol.DiagnosticSeverityError
	case analysis.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case analysis.SeverityInformation:
		return protocol.DiagnosticSeverityInformation
	case analysis.SeverityHint:
		return protocol.DiagnosticSeverityHint
	}
	return protocol.DiagnosticSeverityError
}

func toDiagnostics(host *document.Document, source string, diagnostics []analysis.Diagnostic) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		severity := toSeverity(d.Severity)
		diagnostic := protocol.Diagnostic{
			Range:    toRange(host, d.Span),
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		}
		if d.Code != "" {
			diagnostic.Code = &protocol.IntegerOrString{Value: d.Code}
		}
		result = append(result, diagnostic)
	}
	return result
}

func toCompletionKind(k analysis.CompletionKind) protocol.CompletionItemKind {
	switch k {
	case analysis.CompletionKeyword:
		return protocol.CompletionItemKindKeyword
	case analysis.CompletionVariable:
		return protocol.CompletionItemKindVariable
	case analysis.CompletionField:
		return protocol.CompletionItemKindField
	case analysis.CompletionFunction:
		return protocol.CompletionItemKindFunction
	case analysis.CompletionMethod:
		return protocol.CompletionItemKindMethod
	case analysis.CompletionClass:
		return protocol.CompletionItemKindClass
	case analysis.CompletionModule:
		return protocol.CompletionItemKindModule
	case analysis.CompletionProperty:
		return protocol.CompletionItemKindProperty
	case analysis.CompletionValue:
		return protocol.CompletionItemKindValue
	case analysis.CompletionColor:
		return protocol.CompletionItemKindColor
	case analysis.CompletionUnit:
		return protocol.CompletionItemKindUnit
	case analysis.CompletionSnippet:
		return protocol.CompletionItemKindSnippet
	}
	return protocol.CompletionItemKindText
}

// toCompletionList converts engine entries, attaching the resolve data of
// the request position to every item.
func toCompletionList(host *document.Document, languageID string, offset int, entries []analysis.CompletionEntry) *protocol.CompletionList {
	items := make([]protocol.CompletionItem, 0, len(entries))
	for _, e := range entries {
		kind := toCompletionKind(e.Kind)
		sortText := e.SortText
		items = append(items, protocol.CompletionItem{
			Label:    e.Label,
			Kind:     &kind,
			SortText: &sortText,
			TextEdit: protocol.TextEdit{
				Range:   toRange(host, e.Replace),
				NewText: e.Label,
			},
			Data: CompletionData{LanguageID: languageID, URI: host.URI, Offset: offset},
		})
	}
	return &protocol.CompletionList{IsIncomplete: false, Items: items}
}

// resolved adds details to item and clears its resolve data.
func resolved(item protocol.CompletionItem, details analysis.CompletionDetails) protocol.CompletionItem {
	if details.Detail != "" {
		detail := details.Detail
		item.Detail = &detail
	}
	if details.Documentation != "" {
		item.Documentation = details.Documentation
	}
	item.Data = nil
	return item
}

func toHover(host *document.Document, info *analysis.HoverInfo) *protocol.Hover {
	if info == nil {
		return nil
	}
	kind := protocol.MarkupKindPlainText
	if info.Markdown {
		kind = protocol.MarkupKindMarkdown
	}
	rng := toRange(host, info.Span)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: kind, Value: info.Contents},
		Range:    &rng,
	}
}

func toSignatureHelp(help *analysis.SignatureHelp) *protocol.SignatureHelp {
	if help == nil || len(help.Signatures) == 0 {
		return nil
	}
	signatures := make([]protocol.SignatureInformation, 0, len(help.Signatures))
	for _, sig := range help.Signatures {
		info := protocol.SignatureInformation{Label: sig.Label}
		if sig.Documentation != "" {
			info.Documentation = sig.Documentation
		}
		for _, p := range sig.Parameters {
			param := protocol.ParameterInformation{Label: p.Label}
			if p.Documentation != "" {
				param.Documentation = p.Documentation
			}
			info.Parameters = append(info.Parameters, param)
		}
		signatures = append(signatures, info)
	}
	activeSignature := protocol.UInteger(help.ActiveSignature)
	activeParameter := protocol.UInteger(help.ActiveParameter)
	return &protocol.SignatureHelp{
		Signatures:      signatures,
		ActiveSignature: &activeSignature,
		ActiveParameter: &activeParameter,
	}
}

func toHighlightKind(k analysis.HighlightKind) protocol.DocumentHighlightKind {
	switch k {
	case analysis.HighlightRead:
		return protocol.DocumentHighlightKindRead
	case analysis.HighlightWrite:
		return protocol.DocumentHighlightKindWrite
	}
	return protocol.DocumentHighlightKindText
}

func toHighlights(host *document.Document, highlights []analysis.Highlight) []protocol.DocumentHighlight {
	result := make([]protocol.DocumentHighlight, 0, len(highlights))
	for _, h := range highlights {
		kind := toHighlightKind(h.Kind)
		result = append(result, protocol.DocumentHighlight{Range: toRange(host, h.Span), Kind: &kind})
	}
	return result
}

func toSymbolKind(k analysis.SymbolKind) protocol.SymbolKind {
	switch k {
	case analysis.SymbolVariable:
		return protocol.SymbolKindVariable
	case analysis.SymbolConstant:
		return protocol.SymbolKindConstant
	case analysis.SymbolFunction:
		return protocol.SymbolKindFunction
	case analysis.SymbolMethod:
		return protocol.SymbolKindMethod
	case analysis.SymbolClass:
		return protocol.SymbolKindClass
	case analysis.SymbolProperty:
		return protocol.SymbolKindProperty
	case analysis.SymbolModule:
		return protocol.SymbolKindModule
	case analysis.SymbolNamespace:
		return protocol.SymbolKindNamespace
	case analysis.SymbolEnum:
		return protocol.SymbolKindEnum
	case analysis.SymbolInterface:
		return protocol.SymbolKindInterface
	case analysis.SymbolKey:
		return protocol.SymbolKindKey
	}
	return protocol.SymbolKindVariable
}

func navigationSymbolKind(k javascript.NavigationKind) protocol.SymbolKind {
	switch k {
	case javascript.NavVar, javascript.NavLet, javascript.NavConst:
		return protocol.SymbolKindVariable
	case javascript.NavFunction, javascript.NavLocalFunction:
		return protocol.SymbolKindFunction
	case javascript.NavClass:
		return protocol.SymbolKindClass
	case javascript.NavMethod:
		return protocol.SymbolKindMethod
	case javascript.NavProperty:
		return protocol.SymbolKindProperty
	}
	return protocol.SymbolKindVariable
}

func symbolInformation(host *document.Document, name string, kind protocol.SymbolKind, s analysis.Span, container string) protocol.SymbolInformation {
	symbol := protocol.SymbolInformation{
		Name:     name,
		Kind:     kind,
		Location: protocol.Location{URI: host.URI, Range: toRange(host, s)},
	}
	if container != "" {
		symbol.ContainerName = &container
	}
	return symbol
}

func toLocations(host *document.Document, spans []analysis.Span) []protocol.Location {
	result := make([]protocol.Location, 0, len(spans))
	for _, s := range spans {
		result = append(result, protocol.Location{URI: host.URI, Range: toRange(host, s)})
	}
	return result
}

func toColor(c analysis.Color) protocol.Color {
	return protocol.Color{
		Red:   protocol.Decimal(c.Red),
		Green: protocol.Decimal(c.Green),
		Blue:  protocol.Decimal(c.Blue),
		Alpha: protocol.Decimal(c.Alpha),
	}
}

func fromColor(c protocol.Color) analysis.Color {
	return analysis.Color{
		Red:   float64(c.Red),
		Green: float64(c.Green),
		Blue:  float64(c.Blue),
		Alpha: float64(c.Alpha),
	}
}

func toColorInformation(host *document.Document, colors []analysis.ColorInfo) []protocol.ColorInformation {
	result := make([]protocol.ColorInformation, 0, len(colors))
	for _, c := range colors {
		result = append(result, protocol.ColorInformation{Range: toRange(host, c.Span), Color: toColor(c.Color)})
	}
	return result
}

func toTextEdit(host *document.Document, e format.Edit) protocol.TextEdit {
	return protocol.TextEdit{Range: host.RangeAt(e.Start, e.End), NewText: e.NewText}
}
