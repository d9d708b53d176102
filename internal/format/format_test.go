package format_test

import (
	"testing"

	"mosaic/internal/format"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestInitialIndentLevel(t *testing.T) {
	o := format.Options{TabSize: 4, InsertSpaces: true}
	tests := []struct {
		line string
		want int
	}{
		{"", 0},
		{"x", 0},
		{"    x", 1},
		{"\tx", 1},
		{"\t  x", 1},
		{"\t    x", 2},
		{"       ", 1},
	}
	for _, tt := range tests {
		if got := o.InitialIndentLevel(tt.line); got != tt.want {
			t.Errorf("InitialIndentLevel(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestOptionsFrom(t *testing.T) {
	o := format.OptionsFrom(protocol.FormattingOptions{
		protocol.FormattingOptionTabSize:      float64(2),
		protocol.FormattingOptionInsertSpaces: false,
	})
	if o.TabSize != 2 || o.InsertSpaces {
		t.Fatalf("OptionsFrom = %+v", o)
	}
	if got := o.Indent(2); got != "\t\t" {
		t.Errorf("Indent(2) = %q", got)
	}

	def := format.OptionsFrom(nil)
	if def.TabSize != 4 || !def.InsertSpaces || def.Indent(1) != "    " {
		t.Fatalf("default options = %+v", def)
	}
}

func TestReindent(t *testing.T) {
	text := "a {\nb;\n   c;\n}\n"
	o := format.Options{TabSize: 2, InsertSpaces: true}
	levels := map[byte]int{'a': 0, 'b': 1, 'c': 1, '}': 0}

	edits := format.Reindent(text, 0, len(text), o, 1, func(offset int) int {
		return levels[text[offset]]
	})
	got := format.Apply(text, edits)
	want := "  a {\n    b;\n    c;\n  }\n"
	if got != want {
		t.Fatalf("Reindent produced %q, want %q", got, want)
	}
}
