package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Tunable thresholds for the article heuristic. They are exported so tests can
// exercise boundary values directly instead of relying on inlined literals.
const (
	// NoiseThreshold is the minimum length, in bytes of normalized text, for a
	// paragraph fragment to count as content rather than boilerplate such as
	// bylines, captions, or UI labels.
	NoiseThreshold = 30

	// AcceptanceThreshold is the minimum total length of the joined fragments
	// for a candidate container to be accepted over trying further candidates.
	// It matches the analysis backend's own minimum text length, so an
	// accepted extraction is also sufficient for analysis.
	AcceptanceThreshold = 100

	// FallbackMaxFragments caps how many paragraphs the whole-document
	// fallback consumes, bounding output size on pathological pages.
	FallbackMaxFragments = 20
)

// candidateSelectors is tried in order; earlier entries are preferred when
// several match. The order is part of the contract: it models "most
// semantically specific container wins" across inconsistent publisher markup.
var candidateSelectors = []string{
	"article",
	`[role="article"]`,
	`[role="main"]`,
	".article-body",
	".article-content",
	".story-body",
	".post-content",
	".entry-content",
	"main",
	"#main-content",
}

// Document is a simplified representation of extracted page content.
type Document struct {
	Title string
	Text  string
}

// FromHTML parses raw HTML and extracts the article body text together with
// the page title. Malformed input that fails to parse yields a zero Document;
// a page with no qualifying text yields an empty Text, which callers must
// treat as the failure condition rather than an error from this package.
func FromHTML(input []byte) Document {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return Document{}
	}
	doc := goquery.NewDocumentFromNode(node)
	return Document{
		Title: strings.TrimSpace(doc.Find("head title").First().Text()),
		Text:  ArticleText(doc),
	}
}

// ArticleText walks the candidate selectors in priority order and returns the
// normalized join of qualifying paragraphs from the first container whose
// extraction clears AcceptanceThreshold. Containers that match but come up
// short do not stop the scan. When no candidate succeeds it degrades to
// scanning every paragraph in the document, bounded by FallbackMaxFragments.
//
// The walk is a pure read of the document snapshot: calling it twice on an
// unchanged document yields identical output.
func ArticleText(doc *goquery.Document) string {
	for _, sel := range candidateSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		text := joinFragments(paragraphFragments(container.Find("p"), 0))
		if len(text) >= AcceptanceThreshold {
			return text
		}
	}
	return joinFragments(paragraphFragments(doc.Find("p"), FallbackMaxFragments))
}

// paragraphFragments normalizes each paragraph's text and keeps those at
// least NoiseThreshold long, in document order. A positive max bounds how
// many qualifying fragments are consumed.
func paragraphFragments(paragraphs *goquery.Selection, max int) []string {
	var fragments []string
	paragraphs.EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := collapseWhitespace(p.Text())
		if len(text) < NoiseThreshold {
			return true
		}
		fragments = append(fragments, text)
		return max <= 0 || len(fragments) < max
	})
	return fragments
}

func joinFragments(fragments []string) string {
	return strings.Join(fragments, " ")
}

// collapseWhitespace reduces every run of whitespace, including embedded
// newlines and tabs, to a single space and trims the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
