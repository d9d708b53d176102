// Package document holds the text model shared by the language modes: host
// documents owned by the editor and the virtual documents derived from them.
package document

import (
	"sort"
	"sync"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Document is an immutable snapshot of a text document at one version.
//
// Offsets are byte offsets into Text. Positions are LSP positions, whose
// character component counts UTF-16 code units.
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Text       string

	once  sync.Once
	lines []int
}

// New creates a document snapshot.
func New(uri, languageID string, version int32, text string) *Document {
	return &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		Text:       text,
	}
}

func (d *Document) lineStarts() []int {
	d.once.Do(func() {
		starts := []int{0}
		for i := 0; i < len(d.Text); i++ {
			if d.Text[i] == '\n' {
				starts = append(starts, i+1)
			}
		}
		d.lines = starts
	})
	return d.lines
}

// LineCount returns the number of lines. An empty document has one line.
func (d *Document) LineCount() int {
	return len(d.lineStarts())
}

// LineStart returns the byte offset of the first character of line.
func (d *Document) LineStart(line int) int {
	starts := d.lineStarts()
	switch {
	case line < 0:
		return 0
	case line >= len(starts):
		return len(d.Text)
	}
	return starts[line]
}

// lineEnd returns the offset of the end of line, excluding the line break.
func (d *Document) lineEnd(line int) int {
	starts := d.lineStarts()
	if line+1 >= len(starts) {
		return len(d.Text)
	}
	end := starts[line+1] - 1
	if end > starts[line] && d.Text[end-1] == '\r' {
		end--
	}
	return end
}

// LineText returns the content of line without its line break.
func (d *Document) LineText(line int) string {
	if line < 0 || line >= d.LineCount() {
		return ""
	}
	return d.Text[d.LineStart(line):d.lineEnd(line)]
}

// OffsetAt converts an LSP position into a byte offset. Positions past the
// end of a line clamp to the line end, positions past the last line clamp to
// the end of the document.
func (d *Document) OffsetAt(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= d.LineCount() {
		return len(d.Text)
	}
	offset := d.LineStart(line)
	end := d.lineEnd(line)

	var units uint32
	for offset < end {
		r, size := utf8.DecodeRuneInString(d.Text[offset:end])
		width := uint32(1)
		if r > 0xFFFF {
			width = 2
		}
		if units+width > pos.Character {
			break
		}
		units += width
		offset += size
	}
	return offset
}

// PositionAt converts a byte offset into an LSP position.
func (d *Document) PositionAt(offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Text) {
		offset = len(d.Text)
	}
	starts := d.lineStarts()
	line := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1

	var units uint32
	for _, r := range d.Text[starts[line]:offset] {
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: units}
}

// RangeAt converts a byte span into an LSP range.
func (d *Document) RangeAt(start, end int) protocol.Range {
	return protocol.Range{Start: d.PositionAt(start), End: d.PositionAt(end)}
}

// Slice returns the text between two byte offsets, clamped to the document.
func (d *Document) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(d.Text) {
		end = len(d.Text)
	}
	if start >= end {
		return ""
	}
	return d.Text[start:end]
}

// WordRangeAt returns the span of the identifier-like word touching offset.
func (d *Document) WordRangeAt(offset int, isWord func(byte) bool) (int, int) {
	if offset > len(d.Text) {
		offset = len(d.Text)
	}
	start, end := offset, offset
	for start > 0 && isWord(d.Text[start-1]) {
		start--
	}
	for end < len(d.Text) && isWord(d.Text[end]) {
		end++
	}
	return start, end
}
