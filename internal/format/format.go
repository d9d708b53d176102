// Package format holds the indentation helpers shared by the formatters of
// the embedded languages.
package format

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const defaultTabSize = 4

// Options are the editor formatting options that matter for indentation.
type Options struct {
	TabSize      int
	InsertSpaces bool
}

// OptionsFrom reads tab size and space insertion from LSP formatting
// options. JSON numbers arrive as float64.
func OptionsFrom(opts protocol.FormattingOptions) Options {
	o := Options{TabSize: defaultTabSize, InsertSpaces: true}
	switch v := opts[protocol.FormattingOptionTabSize].(type) {
	case float64:
		o.TabSize = int(v)
	case int:
		o.TabSize = v
	case uint32:
		o.TabSize = int(v)
	}
	if v, ok := opts[protocol.FormattingOptionInsertSpaces].(bool); ok {
		o.InsertSpaces = v
	}
	if o.TabSize <= 0 {
		o.TabSize = defaultTabSize
	}
	return o
}

// Unit returns one level of indentation.
func (o Options) Unit() string {
	if o.InsertSpaces {
		return strings.Repeat(" ", o.TabSize)
	}
	return "\t"
}

// Indent returns the indentation for level.
func (o Options) Indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat(o.Unit(), level)
}

// InitialIndentLevel computes the indentation level of the leading
// whitespace of line. Tabs count as TabSize columns.
func (o Options) InitialIndentLevel(line string) int {
	columns := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			columns++
		case '\t':
			columns += o.TabSize
		default:
			return columns / o.TabSize
		}
	}
	return columns / o.TabSize
}

// Edit replaces the bytes [Start, End) of a text with NewText.
type Edit struct {
	Start   int
	End     int
	NewText string
}

// Apply applies non-overlapping edits, sorted by Start, to text.
func Apply(text string, edits []Edit) string {
	var b strings.Builder
	last := 0
	for _, e := range edits {
		if e.Start < last {
			continue
		}
		b.WriteString(text[last:e.Start])
		b.WriteString(e.NewText)
		last = e.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// LeadingWhitespace returns the length of the indentation of the line
// starting at offset start.
func LeadingWhitespace(text string, start int) int {
	i := start
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return i - start
}

// Reindent produces edits replacing the indentation of each non-blank line
// in [start, end) with the indentation for its level. level is called with
// the offset of the first non-blank character of the line.
func Reindent(text string, start, end int, o Options, base int, level func(offset int) int) []Edit {
	var edits []Edit
	lineStart := start
	for lineStart < end {
		lineEnd := strings.IndexByte(text[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += lineStart
		}

		ws := LeadingWhitespace(text, lineStart)
		first := lineStart + ws
		if first < lineEnd && text[first] != '\r' {
			want := o.Indent(base + level(first))
			if text[lineStart:first] != want {
				edits = append(edits, Edit{Start: lineStart, End: first, NewText: want})
			}
		}
		lineStart = lineEnd + 1
	}
	return edits
}
