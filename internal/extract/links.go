package extract

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link text length bounds and the result cap.
const (
	linkTextMin = 5
	linkTextMax = 80
	maxLinks    = 10
)

// Link is a ranked outbound link.
type Link struct {
	Text  string
	Href  string
	Score float64
}

// Text patterns and URL patterns are kept as separate lists so a text
// pattern can never accidentally match a URL substring.
var (
	excludedTextPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(log\s?in|log\s?out|sign\s?in|sign\s?up|register|my\s?account|account|cart|checkout|search|home|menu|skip to|back to top|next|previous|prev)$`),
		regexp.MustCompile(`(?i)\b(facebook|twitter|instagram|linkedin|youtube|tiktok|pinterest|reddit|whatsapp|telegram)\b`),
		regexp.MustCompile(`(?i)^(click here|read more|see more|learn more|more info|continue reading|more)\W*$`),
		regexp.MustCompile(`^\W*$`),
		regexp.MustCompile(`^\d+$`),
	}

	excludedURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(mailto|tel|javascript):`),
		regexp.MustCompile(`(?i)\.(pdf|zip|exe|dmg|pkg|rar|tar|gz|7z|doc|docx|xls|xlsx|ppt|pptx|mp3|mp4|avi|mov)([?#]|$)`),
		regexp.MustCompile(`(?i)/(login|logout|signin|signup|sign-in|sign-up|register|account|cart|checkout|search)([/?#]|$)`),
		regexp.MustCompile(`(?i)//(www\.)?(facebook|twitter|x|instagram|linkedin|youtube|tiktok|pinterest|reddit)\.com`),
	}

	contentKeywords = []string{
		"article", "guide", "tutorial", "analysis", "review", "report",
		"research", "study", "documentation", "reference", "introduction",
		"explainer", "deep dive",
	}
	digitsOnly = regexp.MustCompile(`^\d+$`)

	genericWords = map[string]bool{
		"click": true, "here": true, "more": true, "this": true,
		"page": true, "link": true,
	}
)

// RankLinks enumerates anchors globally, filters chrome and junk, scores
// the remainder and returns the top ten.
func RankLinks(d *Document) []Link {
	var ranked []Link

	d.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if inExcludedRegion(sel) {
			return
		}

		text := normalizeWhitespace(sel.Text())
		if len(text) < linkTextMin || len(text) > linkTextMax {
			return
		}
		rawHref := sel.AttrOr("href", "")
		if matchesAny(excludedTextPatterns, text) || matchesAny(excludedURLPatterns, rawHref) {
			return
		}

		href := d.Resolve(rawHref)
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return
		}

		ranked = append(ranked, Link{
			Text:  text,
			Href:  href,
			Score: scoreLink(sel, text, href, d.Host()),
		})
	})

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > maxLinks {
		ranked = ranked[:maxLinks]
	}
	return ranked
}

// inExcludedRegion walks the ancestor chain for excluded containers.
func inExcludedRegion(sel *goquery.Selection) bool {
	for p := sel.Parent(); p.Length() > 0; p = p.Parent() {
		if p.Is(excludedSelector) {
			return true
		}
	}
	return hiddenByStyle(sel)
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// scoreLink combines descriptiveness, length, placement context, word
// count and URL quality.
func scoreLink(sel *goquery.Selection, text, href, pageHost string) float64 {
	score := descriptiveness(text) * 40
	score += lengthBand(len(text))
	score += contextScore(sel)
	score += wordCountBand(len(words(text)))
	score += urlQuality(href, pageHost)

	if digitsOnly.MatchString(text) || strings.EqualFold(text, "link") {
		score -= 30
	}
	return score
}

// descriptiveness estimates how much the text says about its target,
// in [0, 1].
func descriptiveness(text string) float64 {
	lower := strings.ToLower(text)
	weight := 0.5
	for _, kw := range contentKeywords {
		if strings.Contains(lower, kw) {
			weight += 0.4
			break
		}
	}
	for _, w := range words(lower) {
		if genericWords[strings.Trim(w, ".,;:!?")] {
			weight -= 0.3
			break
		}
	}
	ratio := properNounRatio(words(text))
	if ratio > 0.3 {
		ratio = 0.3
	}
	weight += ratio

	if weight < 0 {
		return 0
	}
	if weight > 1 {
		return 1
	}
	return weight
}

func lengthBand(n int) float64 {
	switch {
	case n >= 15 && n <= 40:
		return 35
	case n >= 8 && n <= 60:
		return 25
	default:
		return 10
	}
}

func wordCountBand(n int) float64 {
	switch {
	case n >= 2 && n <= 6:
		return 25
	case n >= 1 && n <= 10:
		return 15
	default:
		return 5
	}
}

// contentClassPattern spots content-ish class names on containers.
var contentClassPattern = regexp.MustCompile(`(?i)\b(content|article|post|entry|main|story|text|body)\b`)

func contextScore(sel *goquery.Selection) float64 {
	score := 0.0

	parent := sel.Parent()
	parentTag := goquery.NodeName(parent)
	switch {
	case parentTag == "p" || parentTag == "article" || parentTag == "main":
		score += 50
	case (parentTag == "section" || parentTag == "div") &&
		contentClassPattern.MatchString(parent.AttrOr("class", "")):
		score += 45
	case headingLevel(parentTag) > 0:
		score += 35
	case parentTag == "li":
		score += 30
	}

	inChrome := false
	inContent := false
	for p := sel.Parent(); p.Length() > 0; p = p.Parent() {
		tag := goquery.NodeName(p)
		if tag == "nav" || tag == "footer" || tag == "aside" ||
			strings.Contains(strings.ToLower(p.AttrOr("class", "")), "sidebar") {
			inChrome = true
		}
		if tag == "main" || tag == "article" || contentClassPattern.MatchString(p.AttrOr("class", "")) {
			inContent = true
		}
	}
	if inChrome {
		score -= 40
	}
	if inContent {
		score += 20
	}
	return score
}

func urlQuality(href, pageHost string) float64 {
	u, err := url.Parse(href)
	if err != nil {
		return -20
	}

	score := 0.0
	if pageHost != "" {
		if u.Host == pageHost {
			score -= 5
		} else {
			score += 10
		}
	}

	segments := 0
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segments++
		}
	}
	if segments >= 1 && segments <= 4 {
		score += 10
	}

	if u.Scheme == "https" {
		score += 5
	}
	if len(href) > 120 || len(u.RawQuery) > 40 {
		score -= 15
	}

	host := strings.ToLower(u.Host)
	if strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".gov") ||
		strings.HasSuffix(host, ".org") {
		score += 15
	}
	return score
}
