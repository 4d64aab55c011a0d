package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion.
const MaxHTMLSize = 10 * 1024 * 1024

// Page is one extraction input: a snapshot of the active document.
type Page struct {
	URL       string
	Title     string
	HTML      string
	Selection string
}

// Document wraps a parsed page with its base URL.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// Parse loads a page snapshot with automatic charset detection.
func Parse(page Page) (*Document, error) {
	if len(page.HTML) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if len(page.HTML) > MaxHTMLSize {
		return nil, fmt.Errorf("document exceeds maximum size of %d bytes", MaxHTMLSize)
	}

	doc, err := loadHTML(page.HTML)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		base = nil
	}
	return &Document{doc: doc, base: base}, nil
}

// Title returns the page title, falling back to <title> and og:title when
// the snapshot carries none.
func (d *Document) Title(snapshot string) string {
	if snapshot != "" {
		return snapshot
	}
	title := strings.TrimSpace(d.doc.Find("title").First().Text())
	if title == "" {
		title = d.doc.Find("meta[property='og:title']").AttrOr("content", "")
	}
	return title
}

// Resolve makes href absolute against the page URL. Returns "" when the
// reference cannot be resolved to an absolute URL.
func (d *Document) Resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if d.base != nil {
		ref = d.base.ResolveReference(ref)
	}
	if !ref.IsAbs() {
		return ""
	}
	return ref.String()
}

// Host returns the page's host, or "" when the URL did not parse.
func (d *Document) Host() string {
	if d.base == nil {
		return ""
	}
	return d.base.Host
}

// loadHTML parses HTML with charset detection, the same way the upstream
// scraping stack does: detect, transcode to UTF-8, fall back to a direct
// parse when the transcoder rejects the charset.
func loadHTML(htmlStr string) (*goquery.Document, error) {
	data := []byte(htmlStr)

	detected := "utf-8"
	if result, err := chardet.NewTextDetector().DetectBest(data); err == nil && result != nil {
		detected = strings.ToLower(result.Charset)
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(data), detected)
	if err != nil {
		return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	}
	return goquery.NewDocumentFromReader(utf8Reader)
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// nodeText walks text nodes below n, skipping subtrees rejected by skip,
// and joins trimmed node texts with single spaces.
func nodeText(n *html.Node, skip func(*html.Node) bool) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skip != nil && skip(n) {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, normalizeWhitespace(t))
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// contains reports whether ancestor contains node in the parsed tree.
func contains(ancestor, node *html.Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// nodeDepth returns the element depth of n below the document body.
func nodeDepth(n *html.Node) int {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			if p.Data == "body" || p.Data == "html" {
				break
			}
			depth++
		}
	}
	return depth
}
