package agent

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pagelens/pagelens/internal/extract"
	"github.com/pagelens/pagelens/internal/shared/wire"
)

// fallbackMaxLinks caps the unranked links the fallback extractor collects.
const fallbackMaxLinks = 10

var (
	stripPolicy = bluemonday.StrictPolicy()
	anchorRe    = regexp.MustCompile(`(?is)<a\s[^>]*?href\s*=\s*["']([^"']+)["'][^>]*>(.*?)</a>`)
	headRe      = regexp.MustCompile(`(?is)<head\b.*?</head>`)
)

// fallbackBundle produces a crude whole-body extraction when the pipeline
// cannot handle a page: sanitised text, the first few anchors in document
// order, and minimal metadata.
func fallbackBundle(page extract.Page, opts wire.ContextOptions) wire.ContextBundle {
	body := headRe.ReplaceAllString(page.HTML, "")
	text := strings.Join(strings.Fields(html.UnescapeString(stripPolicy.Sanitize(body))), " ")

	budget := opts.CharBudget()
	if budget > 0 && len(text) > budget {
		text = text[:budget]
	}

	links := []wire.Link{}
	if opts.LinksWanted() {
		for _, m := range anchorRe.FindAllStringSubmatch(page.HTML, fallbackMaxLinks) {
			linkText := strings.Join(strings.Fields(
				html.UnescapeString(stripPolicy.Sanitize(m[2]))), " ")
			if linkText == "" {
				continue
			}
			links = append(links, wire.Link{Text: linkText, Href: m[1]})
		}
	}

	wordCount := len(strings.Fields(text))
	return wire.ContextBundle{
		URL:     page.URL,
		Title:   page.Title,
		Content: text,
		Links:   links,
		Metadata: wire.BundleMetadata{
			WordCount:        wordCount,
			ReadingTime:      fallbackReadingTime(wordCount),
			ContentQuality:   "low",
			Format:           opts.Format,
			ExtractionMethod: wire.MethodFallback,
		},
	}
}

func fallbackReadingTime(wordCount int) string {
	if wordCount < 200 {
		return "< 1 min"
	}
	return fmt.Sprintf("%d min", (wordCount+199)/200)
}
