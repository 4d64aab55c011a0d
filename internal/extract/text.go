package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Block separators. Section-level regions get a visible rule so the peer
// can tell distinct page regions apart.
const (
	blockSeparator   = "\n\n"
	sectionSeparator = "\n\n---\n\n"
)

// blockSelector lists the structural elements a selected region is
// decomposed into.
const blockSelector = "h1, h2, h3, h4, h5, h6, p, ul, ol, dl, pre, blockquote"

// ContentBlock is one extracted block of a selected region.
type ContentBlock struct {
	Role         Role
	Tag          string
	HeadingLevel int
	Text         string
}

// extractBlocks decomposes a selected candidate into content blocks. A
// region with no structural children becomes a single text block.
func extractBlocks(cand Candidate) []ContentBlock {
	var blocks []ContentBlock

	structural := cand.sel.Find(blockSelector)
	if structural.Length() == 0 {
		if cand.Text != "" {
			blocks = append(blocks, ContentBlock{
				Role:         roleFor(cand.Tag),
				Tag:          cand.Tag,
				HeadingLevel: headingLevel(cand.Tag),
				Text:         cand.Text,
			})
		}
		return blocks
	}

	structural.Each(func(_ int, sel *goquery.Selection) {
		if len(sel.Nodes) == 0 {
			return
		}
		node := sel.Nodes[0]
		// Nested structural elements (a p inside a blockquote) are
		// covered by their outermost container.
		if hasStructuralAncestor(node, cand.node) {
			return
		}
		if excluded(sel) || hiddenByStyle(sel) {
			return
		}
		text := nodeText(node, skipNode)
		if text == "" {
			return
		}
		tag := goquery.NodeName(sel)
		blocks = append(blocks, ContentBlock{
			Role:         roleFor(tag),
			Tag:          tag,
			HeadingLevel: headingLevel(tag),
			Text:         text,
		})
	})
	return blocks
}

// structuralTags mirrors blockSelector for ancestry checks.
var structuralTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "ul": true, "ol": true, "dl": true, "pre": true, "blockquote": true,
}

func hasStructuralAncestor(node, stop *html.Node) bool {
	for p := node.Parent; p != nil && p != stop; p = p.Parent {
		if p.Type == html.ElementNode && structuralTags[p.Data] {
			return true
		}
	}
	return false
}

// assembleText joins the blocks of the selected regions. Blocks within a
// region are separated by a blank line; region boundaries between
// article/section candidates get the section rule instead.
func assembleText(regions []Candidate, blocksPer [][]ContentBlock) string {
	var sb strings.Builder
	for i, blocks := range blocksPer {
		if len(blocks) == 0 {
			continue
		}
		if sb.Len() > 0 {
			if isSectionTag(regions[i].Tag) || (i > 0 && isSectionTag(regions[i-1].Tag)) {
				sb.WriteString(sectionSeparator)
			} else {
				sb.WriteString(blockSeparator)
			}
		}
		for j, block := range blocks {
			if j > 0 {
				sb.WriteString(blockSeparator)
			}
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

func isSectionTag(tag string) bool {
	return tag == "article" || tag == "section"
}
