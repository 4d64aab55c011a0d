package extract

import (
	"context"
	"fmt"
)

// Output formats.
const (
	FormatText       = "text"
	FormatStructured = "structured"
	FormatBoth       = "both"
)

// Options tunes one pipeline run.
type Options struct {
	Format            string
	CharBudget        int
	IncludeLinks      bool
	IncludeSelection  bool
	PreserveStructure bool
	MaxContextLength  int
	ScanLimits        ScanLimits
}

// Result is the complete output of one extraction.
type Result struct {
	URL       string
	Title     string
	Content   string
	Links     []Link
	Selection Selection
	Metadata  Metadata
	Chunks    []Chunk
	Blocks    []ContentBlock
}

// Run executes the full pipeline: scan, score, pick, extract, summarise,
// enrich, and (for structured formats) chunk. The context bounds the scan;
// everything downstream is pure computation on the scanned result.
func Run(ctx context.Context, page Page, opts Options) (*Result, error) {
	doc, err := Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	candidates, err := scanCandidates(ctx, doc, opts.ScanLimits)
	if err != nil {
		return nil, err
	}

	selected := pickCandidates(candidates)
	if len(selected) == 0 {
		// Nothing cleared the score gates (short or unusual pages).
		// Fall back to the whole body; block decomposition still strips
		// excluded regions.
		if body := doc.doc.Find("body").First(); body.Length() > 0 {
			node := body.Nodes[0]
			selected = []Candidate{{
				sel:  body,
				node: node,
				Tag:  "body",
				Text: nodeText(node, skipNode),
			}}
		}
	}
	blocksPer := make([][]ContentBlock, len(selected))
	var allBlocks []ContentBlock
	var headings []string
	for i, cand := range selected {
		blocks := extractBlocks(cand)
		blocksPer[i] = blocks
		allBlocks = append(allBlocks, blocks...)
		for _, b := range blocks {
			if b.Role == RoleHeading {
				headings = append(headings, b.Text)
			}
		}
	}

	title := doc.Title(page.Title)
	content := assembleText(selected, blocksPer)

	if opts.CharBudget > 0 && len(content) > opts.CharBudget {
		content = Summarize(SummaryInput{
			Text:              content,
			Title:             title,
			Headings:          headings,
			CharBudget:        opts.CharBudget,
			PreserveStructure: opts.PreserveStructure,
		})
		if len(content) > opts.CharBudget {
			content = hardCut(content, opts.CharBudget)
		}
	}

	result := &Result{
		URL:     page.URL,
		Title:   title,
		Content: content,
		Blocks:  allBlocks,
	}

	if opts.IncludeLinks {
		result.Links = RankLinks(doc)
	}
	if opts.IncludeSelection {
		ancestor := ""
		if body := doc.doc.Find("body"); body.Length() > 0 {
			ancestor = nodeText(body.Nodes[0], skipNode)
		}
		result.Selection = CaptureSelection(page.Selection, ancestor, opts.MaxContextLength)
	}

	result.Metadata = Enrich(EnrichInput{
		Content:   content,
		Title:     title,
		Blocks:    allBlocks,
		LinkCount: len(result.Links),
	})

	if opts.Format == FormatStructured || opts.Format == FormatBoth {
		result.Chunks = ChunkText(content, ChunkOptions{
			PreserveStructure: opts.PreserveStructure,
		})
	}

	return result, nil
}
