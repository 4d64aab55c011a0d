package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// contentSelectors locate likely main-content containers, tried before the
// broad scan.
var contentSelectors = []string{
	"article", "main", "[role='main']",
	".content", ".main-content", ".article", ".post", ".story",
	".entry", ".text-content", ".prose", ".markdown",
	".documentation", ".guide",
}

// broadSelector is the fallback scan set, gated by a minimum score.
const broadSelector = "div, section, article, main, p, h1, h2, h3, h4, h5, h6"

// broadMinScore gates elements found only by the broad scan.
const broadMinScore = 50

// excludedSelector matches chrome, ads, navigation and other non-content
// regions. An element matching it, or with a parent matching it, is never
// scored.
const excludedSelector = "nav, aside, footer, header, form, " +
	"script, style, noscript, iframe, svg, canvas, " +
	".nav, .navbar, .navigation, .menu, .sidebar, .side-bar, " +
	".ad, .ads, .advert, .advertisement, .sponsored, .promo, " +
	".social, .share, .sharing, .comments, .comment-section, " +
	".popup, .modal, .overlay, .cookie, .cookie-banner, .cookie-notice, " +
	".toolbar, .breadcrumb, .pagination, " +
	".sr-only, .visually-hidden, .screen-reader-text, " +
	"[role='navigation'], [role='banner'], [role='complementary'], " +
	"[aria-hidden='true'], [hidden]"

// skipTags are never descended into during text-node walks.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"iframe": true, "svg": true, "canvas": true,
	"nav": true, "aside": true, "footer": true, "form": true,
}

// excluded reports whether sel or its parent matches the exclusion set.
func excluded(sel *goquery.Selection) bool {
	if sel.Is(excludedSelector) {
		return true
	}
	if parent := sel.Parent(); parent.Length() > 0 && parent.Is(excludedSelector) {
		return true
	}
	return false
}

// hiddenByStyle applies the visibility heuristics available on a static
// snapshot: inline style, the hidden attribute, and the aria-hidden chain.
// A browser-backed host would consult computed style instead; this is the
// documented seam.
func hiddenByStyle(sel *goquery.Selection) bool {
	// Visibility inherits, so the whole ancestor chain is consulted.
	for p := sel; p.Length() > 0; p = p.Parent() {
		if _, ok := p.Attr("hidden"); ok {
			return true
		}
		if p.AttrOr("aria-hidden", "") == "true" {
			return true
		}
		style := strings.ToLower(p.AttrOr("style", ""))
		if style == "" {
			continue
		}
		style = strings.ReplaceAll(style, " ", "")
		if strings.Contains(style, "display:none") ||
			strings.Contains(style, "visibility:hidden") ||
			strings.Contains(style, "opacity:0;") ||
			strings.HasSuffix(style, "opacity:0") {
			return true
		}
		if px, ok := fontSizePx(style); ok && px < 10 {
			return true
		}
	}
	return false
}

// fontSizePx pulls a pixel font-size out of a squeezed inline style.
func fontSizePx(style string) (float64, bool) {
	idx := strings.Index(style, "font-size:")
	if idx < 0 {
		return 0, false
	}
	rest := style[idx+len("font-size:"):]
	if end := strings.IndexAny(rest, ";}"); end >= 0 {
		rest = rest[:end]
	}
	if !strings.HasSuffix(rest, "px") {
		return 0, false
	}
	var px float64
	for _, r := range rest[:len(rest)-2] {
		if r >= '0' && r <= '9' {
			px = px*10 + float64(r-'0')
		} else if r == '.' {
			break
		} else {
			return 0, false
		}
	}
	return px, true
}

// skipNode is the text-walk rejection predicate: skip tags that never carry
// content and elements hidden from accessibility.
func skipNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if skipTags[n.Data] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "aria-hidden" && attr.Val == "true" {
			return true
		}
		if attr.Key == "hidden" {
			return true
		}
	}
	return false
}
