package regions_test

import (
	"context"
	"strings"
	"testing"

	"mosaic/internal/document"
	"mosaic/internal/parser"
	"mosaic/internal/regions"
)

func newExtractor(t *testing.T) *regions.Extractor {
	t.Helper()
	pool, err := parser.NewPool(1, parser.HTML)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pool.Close() })
	e, err := regions.NewExtractor(pool)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

func parse(t *testing.T, text string) *regions.Regions {
	t.Helper()
	r, err := newExtractor(t).Parse(context.Background(), document.New("file:///a.html", "html", 1, text))
	if err != nil {
		t.Fatal(err)
	}
	return r
}

const page = `<html>
<head>
<style>
  .a { color: red; }
</style>
</head>
<body style="margin: 0" onload="init()">
<script>
  let x = 1;
</script>
<script type="text/template"><b>not js</b></script>
</body>
</html>`

func TestRegions(t *testing.T) {
	r := parse(t, page)

	var got []string
	for _, region := range r.All() {
		got = append(got, region.LanguageID+":"+page[region.Start:region.End])
	}
	want := []string{
		"css:\n  .a { color: red; }\n",
		"css:margin: 0",
		"javascript:init()",
		"javascript:\n  let x = 1;\n",
	}
	if len(got) != len(want) {
		t.Fatalf("regions = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("region %d = %q, want %q", i, got[i], want[i])
		}
	}

	if langs := r.LanguagesInDocument(); len(langs) != 2 || langs[0] != "css" || langs[1] != "javascript" {
		t.Errorf("LanguagesInDocument() = %v", langs)
	}
}

func TestLanguageAt(t *testing.T) {
	r := parse(t, page)

	tests := []struct {
		marker string
		want   string
	}{
		{"color: red", "css"},
		{"margin", "css"},
		{"init()", "javascript"},
		{"let x", "javascript"},
		{"<body", "html"},
		{"not js", "html"},
	}
	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			offset := strings.Index(page, tt.marker)
			if got := r.LanguageAt(offset); got != tt.want {
				t.Errorf("LanguageAt(%d) = %q, want %q", offset, got, tt.want)
			}
		})
	}
}

func TestEmbeddedTextPreservesOffsets(t *testing.T) {
	r := parse(t, page)

	css := r.EmbeddedText("css", false)
	if len(css) != len(page) {
		t.Fatalf("css text has length %d, host %d", len(css), len(page))
	}
	if strings.Count(css, "\n") != strings.Count(page, "\n") {
		t.Fatal("line breaks not preserved")
	}
	offset := strings.Index(page, ".a { color")
	if !strings.HasPrefix(css[offset:], ".a { color") {
		t.Errorf("style content moved: %q", css[offset:offset+10])
	}
	if !strings.Contains(css, "__{margin: 0}") {
		t.Errorf("style attribute not wrapped: %q", css)
	}
	if strings.Contains(css, "let x") {
		t.Error("script leaked into css text")
	}

	js := r.EmbeddedText("javascript", false)
	if !strings.Contains(js, "init();") {
		t.Errorf("script attribute not terminated: %q", js)
	}

	formatting := r.EmbeddedText("css", true)
	if strings.Contains(formatting, "margin") {
		t.Error("attribute value kept although ignored")
	}
}

func TestLanguageRanges(t *testing.T) {
	text := `<p>a</p><style>b{}</style><p>c</p>`
	r := parse(t, text)

	ranges := r.LanguageRanges(0, len(text))
	var got []string
	for _, lr := range ranges {
		got = append(got, lr.LanguageID+":"+text[lr.Start:lr.End])
	}
	want := []string{"html:<p>a</p><style>", "css:b{}", "html:</style><p>c</p>"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("LanguageRanges = %q, want %q", got, want)
	}

	inner := r.LanguageRanges(strings.Index(text, "b{"), strings.Index(text, "}")+1)
	if len(inner) != 1 || inner[0].LanguageID != "css" {
		t.Fatalf("LanguageRanges inside style = %+v", inner)
	}
}

func TestPlainStylesheet(t *testing.T) {
	e := newExtractor(t)
	doc := document.New("file:///a.css", "css", 1, "a { color: red }")
	r, err := e.Parse(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.EmbeddedText("css", false); got != doc.Text {
		t.Fatalf("EmbeddedText = %q, want the document text", got)
	}
	if r.LanguageAt(3) != "css" {
		t.Fatal("plain style sheet not covered by a css region")
	}
}
