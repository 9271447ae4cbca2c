// Package htmltext strips HTML content documents down to displayable text.
//
// Tags carry no meaning here: only character data survives, concatenated in
// document order. Named and numeric character references are kept literally
// (&amp; stays &amp;) so chapter text never depends on terminal charset
// handling. Images are replaced inline with a marker the reader can spot by
// pattern matching without re-parsing markup.
package htmltext

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ImageMarker matches the inline form `[img="<path>" "<alt>"]` emitted by
// Convert for every <img> element.
var ImageMarker = regexp.MustCompile(`\[img="([^"]+)" "([^"]*)"\]`)

// ImageRef is an image reference extracted from converted text.
type ImageRef struct {
	Path string
	Alt  string
}

// Convert reduces an HTML fragment to its visible text.
//
// When the fragment contains a <body> element only its content is converted,
// matching what content documents actually carry; fragments without one are
// converted whole. Malformed markup never fails: unknown or unclosed tags are
// skipped and whatever text was accumulated is returned.
func Convert(fragment []byte) string {
	var (
		b    strings.Builder
		z    = html.NewTokenizer(bytes.NewReader(fragment))
		body = bytes.Contains(bytes.ToLower(fragment), []byte("<body"))
		keep = !body
	)

	for {
		switch z.Next() {
		case html.ErrorToken:
			// EOF and tokenizer defects both end the stream; text
			// gathered so far is the best effort result.
			return b.String()

		case html.TextToken:
			if keep {
				// Raw bytes, not Text(): character references
				// must pass through undecoded.
				b.Write(z.Raw())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch atom.Lookup(name) {
			case atom.Body:
				keep = true
			case atom.Img:
				if keep {
					writeImageMarker(&b, z, hasAttr)
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if body && atom.Lookup(name) == atom.Body {
				return b.String()
			}
		}
	}
}

func writeImageMarker(b *strings.Builder, z *html.Tokenizer, hasAttr bool) {
	var src, alt string
	for hasAttr {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "src":
			src = string(val)
		case "alt":
			alt = string(val)
		}
		hasAttr = more
	}
	if src == "" {
		return
	}
	b.WriteString(`[img="`)
	b.WriteString(src)
	b.WriteString(`" "`)
	b.WriteString(alt)
	b.WriteString(`"]`)
}

// Lines splits converted text into display lines, word-wrapped to at most
// cols columns. cols <= 0 disables wrapping. Wrapping breaks on whitespace
// only; a single run with no break point wider than cols is emitted verbatim
// on its own line.
func Lines(text string, cols int) []string {
	if cols > 0 {
		text = wordwrap.String(text, cols)
	}
	return strings.Split(text, "\n")
}

// ImageRefs extracts every image marker present in the given lines, in order.
func ImageRefs(lines []string) []ImageRef {
	var refs []ImageRef
	for _, line := range lines {
		for _, m := range ImageMarker.FindAllStringSubmatch(line, -1) {
			refs = append(refs, ImageRef{Path: m[1], Alt: m[2]})
		}
	}
	return refs
}
