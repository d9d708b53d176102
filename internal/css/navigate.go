package css

import (
	"fmt"
	"strings"

	"mosaic/internal/analysis"

	sitter "github.com/smacker/go-tree-sitter"
)

func span(n *sitter.Node) analysis.Span {
	return analysis.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

// Hover describes the property or selector at offset.
func (e *Engine) Hover(sheet *Stylesheet, offset int) *analysis.HoverInfo {
	n := nodeAt(sheet.Root(), offset)
	switch n.Type() {
	case "property_name":
		name := sheet.content(n)
		if isCustomProperty(name) {
			return &analysis.HoverInfo{Span: span(n), Contents: "Custom property `" + name + "`", Markdown: true}
		}
		if p, ok := lookupProperty(name); ok {
			return &analysis.HoverInfo{Span: span(n), Contents: p.description, Markdown: true}
		}
		return nil
	case "keyframes_name":
		return &analysis.HoverInfo{Span: span(n), Contents: "@keyframes " + sheet.content(n), Markdown: true}
	}

	if sel := ancestor(n, "selectors"); sel != nil {
		selector := selectorAt(sel, offset)
		if selector == nil || sheet.content(selector) == wrapperSelector {
			return nil
		}
		a, b, c := specificity(selector)
		return &analysis.HoverInfo{
			Span:     span(selector),
			Contents: fmt.Sprintf("```css\n%s\n```\nSelector Specificity: (%d, %d, %d)", collapseSpace(sheet.content(selector)), a, b, c),
			Markdown: true,
		}
	}
	return nil
}

// selectorAt returns the comma separated selector of selectors containing
// offset.
func selectorAt(selectors *sitter.Node, offset int) *sitter.Node {
	for i := 0; i < int(selectors.NamedChildCount()); i++ {
		s := selectors.NamedChild(i)
		if span(s).Contains(offset) {
			return s
		}
	}
	return nil
}

// specificity counts ids, classes/attributes/pseudo classes and type
// selectors/pseudo elements.
func specificity(selector *sitter.Node) (ids, classes, types int) {
	walk(selector, func(n *sitter.Node) bool {
		switch n.Type() {
		case "id_selector":
			ids++
		case "class_selector", "attribute_selector", "pseudo_class_selector":
			classes++
		case "tag_name", "pseudo_element_selector":
			types++
		}
		return true
	})
	return
}

// reference is a name the navigation features can follow: a custom
// property, a keyframes name, a class or an id.
type reference struct {
	kind string
	name string
}

func referenceAt(sheet *Stylesheet, offset int) (reference, bool) {
	n := nodeAt(sheet.Root(), offset)
	text := sheet.content(n)
	switch n.Type() {
	case "property_name", "plain_value":
		if isCustomProperty(text) {
			return reference{kind: "custom", name: text}, true
		}
		if n.Type() == "plain_value" && isAnimationValue(sheet, n) {
			return reference{kind: "keyframes", name: text}, true
		}
	case "keyframes_name":
		return reference{kind: "keyframes", name: text}, true
	case "class_name":
		return reference{kind: "class_name", name: text}, true
	case "id_name":
		return reference{kind: "id_name", name: text}, true
	}
	return reference{}, false
}

func isAnimationValue(sheet *Stylesheet, n *sitter.Node) bool {
	decl := ancestor(n, "declaration")
	if decl == nil {
		return false
	}
	name := childOfType(decl, "property_name")
	if name == nil {
		return false
	}
	prop := strings.ToLower(sheet.content(name))
	return prop == "animation" || prop == "animation-name"
}

// occurrences returns every node naming ref, with whether it declares it.
func occurrences(sheet *Stylesheet, ref reference) []analysis.Highlight {
	var result []analysis.Highlight
	walk(sheet.Root(), func(n *sitter.Node) bool {
		text := sheet.content(n)
		switch n.Type() {
		case "property_name":
			if ref.kind == "custom" && text == ref.name {
				result = append(result, analysis.Highlight{Span: span(n), Kind: analysis.HighlightWrite})
			}
		case "plain_value":
			switch {
			case ref.kind == "custom" && text == ref.name:
				result = append(result, analysis.Highlight{Span: span(n), Kind: analysis.HighlightRead})
			case ref.kind == "keyframes" && text == ref.name && isAnimationValue(sheet, n):
				result = append(result, analysis.Highlight{Span: span(n), Kind: analysis.HighlightRead})
			}
		case "keyframes_name":
			if ref.kind == "keyframes" && text == ref.name {
				result = append(result, analysis.Highlight{Span: span(n), Kind: analysis.HighlightWrite})
			}
		case "class_name", "id_name":
			if ref.kind == n.Type() && text == ref.name {
				result = append(result, analysis.Highlight{Span: span(n), Kind: analysis.HighlightRead})
			}
		}
		return true
	})
	return result
}

// Highlights returns the occurrences of the name at offset.
func (e *Engine) Highlights(sheet *Stylesheet, offset int) []analysis.Highlight {
	ref, ok := referenceAt(sheet, offset)
	if !ok {
		return nil
	}
	return occurrences(sheet, ref)
}

// Definition returns the declaration of the custom property or keyframes
// name at offset.
func (e *Engine) Definition(sheet *Stylesheet, offset int) (analysis.Span, bool) {
	ref, ok := referenceAt(sheet, offset)
	if !ok {
		return analysis.Span{}, false
	}
	for _, h := range occurrences(sheet, ref) {
		if h.Kind == analysis.HighlightWrite {
			return h.Span, true
		}
	}
	return analysis.Span{}, false
}

// References returns every occurrence of the name at offset.
func (e *Engine) References(sheet *Stylesheet, offset int) []analysis.Span {
	ref, ok := referenceAt(sheet, offset)
	if !ok {
		return nil
	}
	var spans []analysis.Span
	for _, h := range occurrences(sheet, ref) {
		spans = append(spans, h.Span)
	}
	return spans
}

// Symbols lists rules, at-rules and custom property declarations.
func (e *Engine) Symbols(sheet *Stylesheet) []analysis.Symbol {
	var symbols []analysis.Symbol
	var collect func(n *sitter.Node, container string)
	collect = func(n *sitter.Node, container string) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "rule_set":
				name := container
				if sel := childOfType(child, "selectors"); sel != nil {
					name = collapseSpace(sheet.content(sel))
					symbols = append(symbols, analysis.Symbol{
						Name: name, Kind: analysis.SymbolClass, Span: span(child), Container: container,
					})
				}
				if block := childOfType(child, "block"); block != nil {
					collect(block, name)
				}
			case "media_statement", "supports_statement":
				name := atRuleName(sheet, child)
				symbols = append(symbols, analysis.Symbol{
					Name: name, Kind: analysis.SymbolModule, Span: span(child), Container: container,
				})
				if block := childOfType(child, "block"); block != nil {
					collect(block, name)
				}
			case "keyframes_statement":
				name := "@keyframes"
				if kn := childOfType(child, "keyframes_name"); kn != nil {
					name += " " + sheet.content(kn)
				}
				symbols = append(symbols, analysis.Symbol{
					Name: name, Kind: analysis.SymbolClass, Span: span(child), Container: container,
				})
			case "declaration":
				if pn := childOfType(child, "property_name"); pn != nil && isCustomProperty(sheet.content(pn)) {
					symbols = append(symbols, analysis.Symbol{
						Name: sheet.content(pn), Kind: analysis.SymbolVariable, Span: span(child), Container: container,
					})
				}
			}
		}
	}
	collect(sheet.Root(), "")
	return symbols
}

// atRuleName renders the prelude of an at-rule, e.g. "@media screen".
func atRuleName(sheet *Stylesheet, n *sitter.Node) string {
	text := sheet.content(n)
	if block := childOfType(n, "block"); block != nil {
		text = sheet.Text[n.StartByte():block.StartByte()]
	}
	return collapseSpace(text)
}
