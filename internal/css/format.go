package css

import (
	"sort"

	"mosaic/internal/format"

	sitter "github.com/smacker/go-tree-sitter"
)

// FormatOptions control Format. BaseLevel is the indentation level of
// top-level rules. Brace nesting is counted from Origin, the start of the
// block being formatted.
type FormatOptions struct {
	format.Options
	BaseLevel int
	Origin    int
}

// Format returns the edits that reformat the lines of sheet intersecting
// [start, end): indentation by nesting depth, one space after declaration
// colons and before rule blocks.
func (e *Engine) Format(sheet *Stylesheet, start, end int, opts FormatOptions) []format.Edit {
	text := sheet.Text
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}

	// a partial first line belongs to the host and keeps its layout
	first := lineStartOf(text, start)
	if first < start {
		first = nextLineStart(text, start)
	}

	depths := braceDepths(text, min(max(opts.Origin, 0), first))
	edits := format.Reindent(text, first, end, opts.Options, opts.BaseLevel, func(offset int) int {
		d := depths[offset]
		if text[offset] == '}' && d > 0 {
			d--
		}
		return d
	})

	walk(sheet.Root(), func(n *sitter.Node) bool {
		if int(n.EndByte()) < start || int(n.StartByte()) > end {
			return false
		}
		switch n.Type() {
		case "declaration":
			if colon := childOfType(n, ":"); colon != nil {
				edits = appendSpacing(edits, text, int(colon.EndByte()), " ", start, end)
				if name := childOfType(n, "property_name"); name != nil {
					edits = appendSpacingBetween(edits, text, int(name.EndByte()), int(colon.StartByte()), "", start, end)
				}
			}
		case "rule_set":
			sel, block := childOfType(n, "selectors"), childOfType(n, "block")
			if sel != nil && block != nil {
				edits = appendSpacingBetween(edits, text, int(sel.EndByte()), int(block.StartByte()), " ", start, end)
			}
		}
		return true
	})

	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })
	return edits
}

// appendSpacing normalizes the horizontal whitespace following offset.
func appendSpacing(edits []format.Edit, text string, offset int, want string, start, end int) []format.Edit {
	stop := offset
	for stop < len(text) && (text[stop] == ' ' || text[stop] == '\t') {
		stop++
	}
	if stop < len(text) && (text[stop] == '\n' || text[stop] == '\r' || text[stop] == ';') {
		return edits
	}
	return appendSpacingBetween(edits, text, offset, stop, want, start, end)
}

// appendSpacingBetween replaces text[from:to] with want when it is only
// horizontal whitespace and differs from want.
func appendSpacingBetween(edits []format.Edit, text string, from, to int, want string, start, end int) []format.Edit {
	if from < start || to > end || from > to {
		return edits
	}
	gap := text[from:to]
	for i := 0; i < len(gap); i++ {
		if gap[i] != ' ' && gap[i] != '\t' {
			return edits
		}
	}
	if gap == want {
		return edits
	}
	return append(edits, format.Edit{Start: from, End: to, NewText: want})
}

// braceDepths returns, for every offset from origin on, the brace nesting
// depth before it.
func braceDepths(text string, origin int) []int {
	depths := make([]int, len(text)+1)
	depth := 0
	inComment := false
	var quote byte
	for i := origin; i < len(text); i++ {
		depths[i] = depth
		c := text[i]
		switch {
		case inComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				inComment = false
				i++
				depths[i] = depth
			}
		case quote != 0:
			if c == '\\' {
				i++
				if i < len(text) {
					depths[i] = depth
				}
			} else if c == quote || c == '\n' {
				quote = 0
			}
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			inComment = true
		case c == '"' || c == '\'':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		}
	}
	depths[len(text)] = depth
	return depths
}

func lineStartOf(text string, offset int) int {
	for offset > 0 && text[offset-1] != '\n' {
		offset--
	}
	return offset
}

func nextLineStart(text string, offset int) int {
	for offset < len(text) && text[offset] != '\n' {
		offset++
	}
	if offset < len(text) {
		offset++
	}
	return offset
}
