package extract

import (
	"context"
	"runtime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Role classifies a content block.
type Role string

const (
	RoleHeading   Role = "heading"
	RoleParagraph Role = "paragraph"
	RoleList      Role = "list"
	RoleCode      Role = "code"
	RoleText      Role = "text"
)

// Candidate is a scored content region. Candidates live only for the
// duration of one extraction.
type Candidate struct {
	sel  *goquery.Selection
	node *html.Node

	Tag   string
	Text  string
	Score float64
}

// ScanLimits bounds the element scan.
type ScanLimits struct {
	MaxElements int
	MaxDepth    int
	BatchSize   int
}

// DefaultScanLimits returns the standard scan bounds.
func DefaultScanLimits() ScanLimits {
	return ScanLimits{MaxElements: 1000, MaxDepth: 10, BatchSize: 50}
}

func (l ScanLimits) normalized() ScanLimits {
	if l.MaxElements <= 0 {
		l.MaxElements = 1000
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = 10
	}
	if l.BatchSize <= 0 {
		l.BatchSize = 50
	}
	return l
}

// minTextLength discards elements with less trimmed text than this.
const minTextLength = 100

// scanCandidates scores candidate elements. The content-selector set is
// tried first; when it yields nothing scoreable the broad set is scanned
// with a minimum-score gate.
func scanCandidates(ctx context.Context, d *Document, limits ScanLimits) ([]Candidate, error) {
	limits = limits.normalized()

	sel := d.doc.Find(strings.Join(contentSelectors, ", "))
	candidates, err := scoreSelection(ctx, sel, limits, 0)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 {
		return candidates, nil
	}

	return scoreSelection(ctx, d.doc.Find(broadSelector), limits, broadMinScore)
}

// scoreSelection scores each element of sel, yielding to the scheduler
// between batches so a large page cannot monopolise the loop.
func scoreSelection(ctx context.Context, sel *goquery.Selection, limits ScanLimits, minScore float64) ([]Candidate, error) {
	var candidates []Candidate
	seen := make(map[*html.Node]bool)

	nodes := sel.Nodes
	if len(nodes) > limits.MaxElements {
		nodes = nodes[:limits.MaxElements]
	}

	for i, node := range nodes {
		if i > 0 && i%limits.BatchSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			runtime.Gosched()
		}
		if seen[node] || nodeDepth(node) > limits.MaxDepth {
			continue
		}
		seen[node] = true

		one := sel.Eq(i)
		if excluded(one) || hiddenByStyle(one) {
			continue
		}

		cand, ok := scoreElement(one, node)
		if !ok || cand.Score < minScore {
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// scoreElement computes the content score for a single element. The result
// is clamped at zero; elements under the minimum text length are discarded
// outright.
func scoreElement(sel *goquery.Selection, node *html.Node) (Candidate, bool) {
	text := nodeText(node, skipNode)
	textLen := len(text)
	if textLen < minTextLength {
		return Candidate{}, false
	}

	innerHTML, err := sel.Html()
	if err != nil || len(innerHTML) == 0 {
		return Candidate{}, false
	}

	score := 0.0

	// Text density: prose-heavy markup scores up, markup-heavy scores down.
	density := float64(textLen) / float64(len(innerHTML))
	if density >= 0.4 {
		score += min2(50, density*100)
	} else {
		score -= (0.4 - density) * 30
	}

	// Link density: navigation chrome is mostly anchor text.
	anchorLen := 0
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		anchorLen += len(strings.TrimSpace(a.Text()))
	})
	linkDensity := float64(anchorLen) / float64(textLen)
	if linkDensity > 0.2 {
		excess := linkDensity - 0.2
		score -= min2(60, excess*excess*300)
	}

	// Length sweet spot.
	switch {
	case textLen >= 200 && textLen <= 2000:
		score += 20
	case textLen > 100:
		score += 10
	}

	// Paragraph coherence.
	paragraphs := sel.Find("p").Length()
	if paragraphs >= 1 && textLen > 500 {
		perParagraph := float64(textLen) / float64(paragraphs) / 100
		score += min2(15, perParagraph*15)
	}

	tag := goquery.NodeName(sel)
	score += semanticBonus(sel, tag)
	score += kindBonus(tag)

	if score < 0 {
		score = 0
	}

	return Candidate{sel: sel, node: node, Tag: tag, Text: text, Score: score}, true
}

// semanticBonus rewards elements whose tag, role, class or id advertise
// main content.
func semanticBonus(sel *goquery.Selection, tag string) float64 {
	classID := strings.ToLower(sel.AttrOr("class", "") + " " + sel.AttrOr("id", ""))

	if tag == "article" || sel.AttrOr("role", "") == "main" ||
		containsAny(classID, "content", "article", "post", "entry", "main") {
		return 30
	}
	if tag == "main" || tag == "section" || containsAny(classID, "text", "body", "story") {
		return 20
	}
	if tag == "div" || tag == "span" {
		return 10
	}
	return 0
}

// kindBonus rewards elements whose tag already implies a content role.
func kindBonus(tag string) float64 {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return 20
	case "p":
		return 15
	case "ul", "ol", "dl":
		return 12
	}
	return 0
}

// roleFor maps a tag to its block role.
func roleFor(tag string) Role {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return RoleHeading
	case "p":
		return RoleParagraph
	case "ul", "ol", "dl":
		return RoleList
	case "pre", "code":
		return RoleCode
	default:
		return RoleText
	}
}

// HeadingLevel returns the level of an hN tag, or 0 for other tags.
func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
