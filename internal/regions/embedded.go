package regions

import (
	"mosaic/internal/document"
	"mosaic/internal/parser"
)

// Attribute values are wrapped so that they parse as a stand-alone fragment:
// a style attribute becomes a rule of the synthetic selector "__", a script
// attribute a terminated statement.
const (
	StyleAttributePrefix = "__{"
	StyleAttributeSuffix = "}"
	ScriptAttributeSuffix = ";"
)

func prefix(r Region) string {
	if r.AttributeValue && r.LanguageID == parser.CSS {
		return StyleAttributePrefix
	}
	return ""
}

func suffix(r Region) string {
	if !r.AttributeValue {
		return ""
	}
	switch r.LanguageID {
	case parser.CSS:
		return StyleAttributeSuffix
	case parser.JavaScript:
		return ScriptAttributeSuffix
	}
	return ""
}

// EmbeddedText returns the host text with everything outside the regions of
// languageID blanked out. The result has the same length as the host text
// and keeps every line break, so byte offsets and lines map 1:1.
func (r *Regions) EmbeddedText(languageID string, ignoreAttributeValues bool) string {
	text := r.text
	buf := make([]byte, len(text))

	current := 0
	lastSuffix := ""
	for _, region := range r.regions {
		if region.LanguageID != languageID || ignoreAttributeValues && region.AttributeValue {
			continue
		}
		if region.Start < current {
			continue
		}
		blank(buf, text, current, region.Start, lastSuffix, prefix(region))
		copy(buf[region.Start:region.End], text[region.Start:region.End])
		current = region.End
		lastSuffix = suffix(region)
	}
	blank(buf, text, current, len(text), lastSuffix, "")
	return string(buf)
}

// blank fills buf[start:end] with spaces, keeping line breaks. before is
// written right at start, after right before end, each only if it fits on
// the blanked line.
func blank(buf []byte, text string, start, end int, before, after string) {
	i := start
	for j := 0; j < len(before) && i < end && !isLineBreak(text[i]); j++ {
		buf[i] = before[j]
		i++
	}
	run := i
	for ; i < end; i++ {
		if isLineBreak(text[i]) {
			buf[i] = text[i]
			run = i + 1
		} else {
			buf[i] = ' '
		}
	}
	if after != "" && end-run >= len(after) {
		copy(buf[end-len(after):end], after)
	}
}

func isLineBreak(b byte) bool {
	return b == '\n' || b == '\r'
}

// EmbeddedDocument returns the virtual document of languageID for host.
// It shares the host's uri and version.
func (r *Regions) EmbeddedDocument(host *document.Document, languageID string, ignoreAttributeValues bool) *document.Document {
	return document.New(host.URI, languageID, host.Version, r.EmbeddedText(languageID, ignoreAttributeValues))
}
