package modes

import (
	"strings"

	"mosaic/internal/document"
	"mosaic/internal/format"
	"mosaic/internal/regions"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// rangeFormatter computes edits for the lines of the virtual document
// within [start, end) with top-level code indented at base.
type rangeFormatter func(start, end int, o format.Options, base int) ([]format.Edit, error)

// formatRange runs an engine formatter over rng of host.
//
// The embedded code is indented one level deeper than the first line of the
// range. When the range ends on a line holding only whitespace before the
// end position, typically the line of the closing tag, that line is left
// out of the engine's range and its indentation is reset to the level of
// the first line instead. Edits reaching outside the range are dropped.
func formatRange(host, virtual *document.Document, rng protocol.Range, opts protocol.FormattingOptions, run rangeFormatter) ([]protocol.TextEdit, error) {
	o := format.OptionsFrom(opts)
	initial := o.InitialIndentLevel(host.LineText(int(rng.Start.Line)))

	start := host.OffsetAt(rng.Start)
	end := host.OffsetAt(rng.End)
	var dangling *protocol.Range
	if rng.End.Line > rng.Start.Line {
		lineStart := host.LineStart(int(rng.End.Line))
		if lineStart <= end && strings.Trim(virtual.Slice(lineStart, end), " \t") == "" {
			end = lineStart
			dangling = &protocol.Range{
				Start: protocol.Position{Line: rng.End.Line, Character: 0},
				End:   rng.End,
			}
		}
	}

	edits, err := run(start, end, o, initial+1)
	if err != nil {
		return nil, err
	}

	result := make([]protocol.TextEdit, 0, len(edits)+1)
	for _, e := range edits {
		if e.Start >= start && e.End <= end {
			result = append(result, toTextEdit(host, e))
		}
	}
	if dangling != nil {
		result = append(result, protocol.TextEdit{Range: *dangling, NewText: o.Indent(initial)})
	}
	return result, nil
}

// blockStart returns the start of the languageID block holding offset, or
// 0 when offset lies in none. Formatters count nesting from there so that
// unbalanced code in an earlier block does not shift later ones.
func blockStart(r *regions.Regions, languageID string, offset int) int {
	for _, region := range r.All() {
		if region.LanguageID == languageID && !region.AttributeValue && region.Start <= offset && offset < region.End {
			return region.Start
		}
	}
	return 0
}
