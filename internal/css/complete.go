package css

import (
	"sort"
	"strings"

	"mosaic/internal/analysis"

	sitter "github.com/smacker/go-tree-sitter"
)

type completionContext int

const (
	contextSelector completionContext = iota
	contextProperty
	contextValue
)

// scanContext determines what is being typed at offset by scanning the text
// before it, skipping comments and strings. For values it also returns the
// property being assigned.
func scanContext(text string, offset int) (completionContext, string) {
	depth := 0
	propStart, colon := -1, -1
	for i := 0; i < offset && i < len(text); i++ {
		switch c := text[i]; c {
		case '/':
			if i+1 < len(text) && text[i+1] == '*' {
				end := strings.Index(text[i+2:], "*/")
				if end < 0 || i+2+end+2 > offset {
					return contextSelector, ""
				}
				i += 2 + end + 1
			}
		case '"', '\'':
			j := i + 1
			for j < offset && text[j] != c && text[j] != '\n' {
				if text[j] == '\\' {
					j++
				}
				j++
			}
			i = j
		case '{':
			depth++
			propStart, colon = i+1, -1
		case '}':
			if depth > 0 {
				depth--
			}
			propStart, colon = i+1, -1
		case ';':
			propStart, colon = i+1, -1
		case ':':
			if depth > 0 && colon < 0 {
				colon = i
			}
		}
	}
	if depth == 0 {
		return contextSelector, ""
	}
	if colon >= 0 && propStart >= 0 && propStart <= colon {
		return contextValue, strings.TrimSpace(text[propStart:colon])
	}
	return contextProperty, ""
}

// Complete returns the completion candidates at offset.
func (e *Engine) Complete(sheet *Stylesheet, offset int) []analysis.CompletionEntry {
	text := sheet.Text
	start, end := offset, offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	for end < len(text) && isWordByte(text[end]) {
		end++
	}
	replace := analysis.Span{Start: start, End: end}

	ctx, prop := scanContext(text, offset)
	var entries []analysis.CompletionEntry
	add := func(label string, kind analysis.CompletionKind, sort string) {
		entries = append(entries, analysis.CompletionEntry{Label: label, Kind: kind, SortText: sort, Replace: replace})
	}

	switch ctx {
	case contextProperty:
		for _, name := range propertyNames() {
			add(name, analysis.CompletionProperty, "d_"+name)
		}
	case contextValue:
		if p, ok := lookupProperty(prop); ok {
			for _, v := range p.values {
				add(v, analysis.CompletionValue, "d_"+v)
			}
		}
		if colorProperties[strings.ToLower(prop)] || isCustomProperty(prop) {
			for name := range namedColors {
				add(name, analysis.CompletionColor, "e_"+name)
			}
		}
		for _, v := range globalValues {
			add(v, analysis.CompletionKeyword, "z_"+v)
		}
		for _, name := range customProperties(sheet) {
			add("var("+name+")", analysis.CompletionVariable, "a_"+name)
		}
	default:
		for _, tag := range htmlTags {
			add(tag, analysis.CompletionKeyword, "f_"+tag)
		}
		for _, class := range selectorNames(sheet, "class_name") {
			add("."+class, analysis.CompletionClass, "a_"+class)
		}
		if start > 0 && text[start-1] == '@' {
			replace.Start--
		}
		for _, rule := range atRules {
			entries = append(entries, analysis.CompletionEntry{
				Label: rule, Kind: analysis.CompletionKeyword, SortText: "z_" + rule, Replace: replace,
			})
		}
	}
	return entries
}

// ResolveCompletion returns the details of a completion label.
func (e *Engine) ResolveCompletion(label string) (analysis.CompletionDetails, bool) {
	if p, ok := lookupProperty(label); ok {
		return analysis.CompletionDetails{Detail: label, Documentation: p.description}, true
	}
	if rgb, ok := namedColors[strings.ToLower(label)]; ok {
		return analysis.CompletionDetails{Detail: hexString(colorFromRGB(rgb))}, true
	}
	for _, rule := range atRules {
		if rule == label {
			return analysis.CompletionDetails{Detail: "at-rule"}, true
		}
	}
	return analysis.CompletionDetails{}, false
}

func customProperties(sheet *Stylesheet) []string {
	seen := map[string]bool{}
	walk(sheet.Root(), func(n *sitter.Node) bool {
		if n.Type() == "property_name" {
			if name := sheet.content(n); isCustomProperty(name) {
				seen[name] = true
			}
		}
		return true
	})
	return sortedKeys(seen)
}

func selectorNames(sheet *Stylesheet, nodeType string) []string {
	seen := map[string]bool{}
	walk(sheet.Root(), func(n *sitter.Node) bool {
		if n.Type() == nodeType {
			seen[sheet.content(n)] = true
		}
		return true
	})
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
