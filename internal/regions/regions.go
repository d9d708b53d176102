// Package regions finds the embedded style and script regions of an HTML
// document and extracts per-language virtual documents from them.
package regions

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mosaic/internal/document"
	"mosaic/internal/parser"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("mosaic.regions")

// HostLanguage is reported for offsets outside every embedded region.
const HostLanguage = parser.HTML

// Region is a byte span of the host document written in an embedded language.
type Region struct {
	LanguageID     string
	Start          int
	End            int
	AttributeValue bool
}

// LanguageRange is a span of the host document together with its language.
type LanguageRange struct {
	LanguageID     string
	Start          int
	End            int
	AttributeValue bool
}

// Regions is the region layout of one host document version.
type Regions struct {
	text    string
	regions []Region
}

const regionQuery = `
(script_element) @script
(style_element) @style
(attribute) @attribute
`

// Extractor parses host documents into Regions.
type Extractor struct {
	pool  *parser.Pool
	query *parser.Query
}

// NewExtractor creates an Extractor parsing with pool, which must hold the
// HTML grammar.
func NewExtractor(pool *parser.Pool) (*Extractor, error) {
	if pool.Language() != parser.HTML {
		return nil, fmt.Errorf("regions: parser pool for %s, want %s", pool.Language(), parser.HTML)
	}
	q, err := parser.NewQuery(parser.HTML, regionQuery)
	if err != nil {
		return nil, fmt.Errorf("regions: compile query: %w", err)
	}
	return &Extractor{pool: pool, query: q}, nil
}

// Close frees the compiled query. The pool is owned by the caller.
func (e *Extractor) Close() {
	e.query.Close()
}

// Parse computes the regions of doc. Plain style sheets and scripts are a
// single region spanning the whole document.
func (e *Extractor) Parse(ctx context.Context, doc *document.Document) (*Regions, error) {
	switch doc.LanguageID {
	case parser.CSS, parser.JavaScript:
		return &Regions{
			text:    doc.Text,
			regions: []Region{{LanguageID: doc.LanguageID, Start: 0, End: len(doc.Text)}},
		}, nil
	}

	source := []byte(doc.Text)
	tree, err := e.pool.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var found []Region
	for _, match := range e.query.Matches(tree.RootNode(), source) {
		for _, c := range match {
			var r Region
			var ok bool
			switch c.Name {
			case "script":
				r, ok = scriptRegion(c.Node, source)
			case "style":
				r, ok = elementRegion(c.Node, parser.CSS)
			case "attribute":
				r, ok = attributeRegion(c.Node, source)
			}
			if ok {
				found = append(found, r)
			}
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Start < found[j].Start })

	log.Debugf("%s@%d: %d embedded regions", doc.URI, doc.Version, len(found))
	return &Regions{text: doc.Text, regions: found}, nil
}

// elementRegion spans the content between the start and end tag.
func elementRegion(n *sitter.Node, language string) (Region, bool) {
	var start, end = -1, int(n.EndByte())
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "start_tag":
			start = int(child.EndByte())
		case "end_tag":
			end = int(child.StartByte())
		}
	}
	if start < 0 || end < start {
		return Region{}, false
	}
	return Region{LanguageID: language, Start: start, End: end}, true
}

func scriptRegion(n *sitter.Node, source []byte) (Region, bool) {
	if start := childOfType(n, "start_tag"); start != nil {
		for i := 0; i < int(start.NamedChildCount()); i++ {
			attr := start.NamedChild(i)
			if attr.Type() != "attribute" {
				continue
			}
			name := childOfType(attr, "attribute_name")
			if name == nil || !strings.EqualFold(name.Content(source), "type") {
				continue
			}
			if _, s, e, ok := attributeValue(attr); ok && !isScriptType(string(source[s:e])) {
				return Region{}, false
			}
		}
	}
	return elementRegion(n, parser.JavaScript)
}

func isScriptType(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "module", "text/javascript", "application/javascript", "text/ecmascript", "application/ecmascript", "text/babel":
		return true
	}
	return false
}

func attributeRegion(n *sitter.Node, source []byte) (Region, bool) {
	name := childOfType(n, "attribute_name")
	if name == nil {
		return Region{}, false
	}
	attr := strings.ToLower(name.Content(source))

	var language string
	switch {
	case attr == "style":
		language = parser.CSS
	case len(attr) > 2 && strings.HasPrefix(attr, "on"):
		language = parser.JavaScript
	default:
		return Region{}, false
	}

	_, start, end, ok := attributeValue(n)
	if !ok {
		return Region{}, false
	}
	return Region{LanguageID: language, Start: start, End: end, AttributeValue: true}, true
}

// attributeValue returns the value span of an attribute, excluding quotes.
func attributeValue(attr *sitter.Node) (*sitter.Node, int, int, bool) {
	if v := childOfType(attr, "attribute_value"); v != nil {
		return v, int(v.StartByte()), int(v.EndByte()), true
	}
	q := childOfType(attr, "quoted_attribute_value")
	if q == nil {
		return nil, 0, 0, false
	}
	start, end := int(q.StartByte())+1, int(q.EndByte())
	if last := q.Child(int(q.ChildCount()) - 1); last != nil && !last.IsNamed() && last.EndByte() > last.StartByte() {
		end--
	}
	if end < start {
		end = start
	}
	return q, start, end, true
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && child.Type() == typ {
			return child
		}
	}
	return nil
}

// All returns the regions in document order.
func (r *Regions) All() []Region {
	return r.regions
}

// LanguageAt returns the language at offset. Region ends are inclusive so a
// cursor right after the last character still belongs to the region.
func (r *Regions) LanguageAt(offset int) string {
	for _, region := range r.regions {
		if offset < region.Start {
			break
		}
		if offset <= region.End {
			return region.LanguageID
		}
	}
	return HostLanguage
}

// LanguagesInDocument returns the embedded languages in order of first
// appearance.
func (r *Regions) LanguagesInDocument() []string {
	var languages []string
	seen := map[string]bool{}
	for _, region := range r.regions {
		if !seen[region.LanguageID] {
			seen[region.LanguageID] = true
			languages = append(languages, region.LanguageID)
		}
	}
	return languages
}

// LanguageRanges partitions [start, end) into language ranges, host
// language gaps included.
func (r *Regions) LanguageRanges(start, end int) []LanguageRange {
	var ranges []LanguageRange
	current := start
	for _, region := range r.regions {
		if region.End <= current {
			continue
		}
		if region.Start >= end {
			break
		}
		if current < region.Start {
			ranges = append(ranges, LanguageRange{LanguageID: HostLanguage, Start: current, End: region.Start})
		}
		from, to := max(current, region.Start), min(end, region.End)
		if from < to {
			ranges = append(ranges, LanguageRange{
				LanguageID:     region.LanguageID,
				Start:          from,
				End:            to,
				AttributeValue: region.AttributeValue,
			})
		}
		current = max(current, to)
	}
	if current < end {
		ranges = append(ranges, LanguageRange{LanguageID: HostLanguage, Start: current, End: end})
	}
	return ranges
}
