package extract

import (
	"regexp"
	"strings"
)

// Chunker defaults: chunk size window and overlap carried between chunks.
const (
	chunkTarget  = 500
	chunkMin     = 100
	chunkMax     = 1000
	chunkOverlap = 50
)

// Boundary strengths by line-kind transition. Sentence-final lines add a
// separate bonus so cuts land on sentence ends when possible.
const (
	strengthHeading   = 2.0
	strengthCode      = 2.5
	strengthListText  = 1.5
	strengthParagraph = 2.5
	strengthSentence  = 3.0
)

// Chunk is one chunk of the text with its character span in the source.
// Start accounts for the overlap prefix borrowed from the previous chunk.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// ChunkOptions tunes the chunker. Zero values pick the defaults; a
// negative Overlap disables the carried prefix entirely.
type ChunkOptions struct {
	Target            int
	Min               int
	Max               int
	Overlap           int
	PreserveStructure bool
}

func (o ChunkOptions) normalized() ChunkOptions {
	if o.Target <= 0 {
		o.Target = chunkTarget
	}
	if o.Min <= 0 {
		o.Min = chunkMin
	}
	if o.Max <= 0 {
		o.Max = chunkMax
	}
	switch {
	case o.Overlap == 0:
		o.Overlap = chunkOverlap
	case o.Overlap < 0:
		o.Overlap = 0
	}
	return o
}

type lineKind int

const (
	lineText lineKind = iota
	lineHeading
	lineList
	lineCode
	lineEmpty
)

var (
	headingLine = regexp.MustCompile(`^(#{1,6}\s+\S|[A-Z][^a-z]{0,78}$)`)
	listLine    = regexp.MustCompile(`^\s*([-*+]|\d+[.)])\s+`)
	fenceLine   = regexp.MustCompile("^```")
)

// boundary is a candidate cut point between two lines.
type boundary struct {
	offset   int // byte offset into the text
	strength float64
}

// ChunkText splits text into overlapping chunks at semantic boundaries.
// Text at or under the minimum size is returned as a single chunk.
func ChunkText(text string, opts ChunkOptions) []Chunk {
	opts = opts.normalized()
	if len(text) <= opts.Max {
		if text == "" {
			return nil
		}
		return []Chunk{{Text: text, Start: 0, End: len(text)}}
	}

	boundaries := scanBoundaries(text)
	var spans [][2]int
	if opts.PreserveStructure {
		spans = structureSpans(text, boundaries, opts)
	} else {
		spans = boundarySpans(text, boundaries, opts)
	}

	chunks := make([]Chunk, 0, len(spans))
	for i, span := range spans {
		start, end := span[0], span[1]
		body := text[start:end]
		if i > 0 && opts.Overlap > 0 {
			prevEnd := spans[i-1][1]
			overlapStart := prevEnd - opts.Overlap
			if overlapStart < spans[i-1][0] {
				overlapStart = spans[i-1][0]
			}
			body = text[overlapStart:prevEnd] + body
			start = overlapStart
		}
		chunks = append(chunks, Chunk{Text: body, Start: start, End: end})
	}
	return chunks
}

// scanBoundaries classifies lines and emits boundaries at kind transitions.
func scanBoundaries(text string) []boundary {
	var boundaries []boundary

	offset := 0
	prevKind := lineEmpty
	prevSentenceEnd := false
	inFence := false
	first := true

	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		trimmed := strings.TrimRight(line, "\n")
		kind := classifyLine(trimmed, &inFence)

		if !first && kind != prevKind {
			strength := transitionStrength(prevKind, kind)
			if prevSentenceEnd {
				strength += strengthSentence
			}
			if strength > 0 {
				boundaries = append(boundaries, boundary{offset: offset, strength: strength})
			}
		}

		prevSentenceEnd = endsWithSentence(trimmed)
		prevKind = kind
		first = false
		offset += len(line)
	}
	return boundaries
}

func classifyLine(line string, inFence *bool) lineKind {
	if fenceLine.MatchString(line) {
		*inFence = !*inFence
		return lineCode
	}
	if *inFence {
		return lineCode
	}
	if strings.TrimSpace(line) == "" {
		return lineEmpty
	}
	if headingLine.MatchString(line) {
		return lineHeading
	}
	if listLine.MatchString(line) {
		return lineList
	}
	return lineText
}

func transitionStrength(from, to lineKind) float64 {
	switch {
	case from == lineCode || to == lineCode:
		return strengthCode
	case from == lineHeading || to == lineHeading:
		return strengthHeading
	case from == lineEmpty || to == lineEmpty:
		// A blank line is a paragraph break.
		return strengthParagraph
	case (from == lineList && to == lineText) || (from == lineText && to == lineList):
		return strengthListText
	default:
		return 0
	}
}

func endsWithSentence(line string) bool {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return false
	}
	switch line[len(line)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// boundarySpans walks a cursor forward, cutting at the strongest boundary
// within [cursor+min, cursor+max], or at cursor+target when no boundary
// lands in the window.
func boundarySpans(text string, boundaries []boundary, opts ChunkOptions) [][2]int {
	var spans [][2]int
	cursor := 0
	bi := 0

	for cursor < len(text) {
		remaining := len(text) - cursor
		if remaining <= opts.Max {
			spans = append(spans, [2]int{cursor, len(text)})
			break
		}

		lo, hi := cursor+opts.Min, cursor+opts.Max
		best, bestStrength := -1, 0.0
		for i := bi; i < len(boundaries); i++ {
			b := boundaries[i]
			if b.offset < lo {
				continue
			}
			if b.offset > hi {
				break
			}
			// Ties go to the later boundary, keeping chunks near target.
			if b.strength >= bestStrength {
				best, bestStrength = b.offset, b.strength
			}
		}

		cut := cursor + opts.Target
		if best >= 0 {
			cut = best
		}
		spans = append(spans, [2]int{cursor, cut})
		cursor = cut
		for bi < len(boundaries) && boundaries[bi].offset <= cursor {
			bi++
		}
	}
	return spans
}

// structureSpans groups whole sections (runs between boundaries) until the
// next section would push the chunk past max.
func structureSpans(text string, boundaries []boundary, opts ChunkOptions) [][2]int {
	cuts := make([]int, 0, len(boundaries)+2)
	cuts = append(cuts, 0)
	for _, b := range boundaries {
		cuts = append(cuts, b.offset)
	}
	cuts = append(cuts, len(text))

	var spans [][2]int
	start := 0
	for i := 1; i < len(cuts); i++ {
		sectionEnd := cuts[i]
		if sectionEnd-start > opts.Max && cuts[i-1] > start {
			spans = append(spans, [2]int{start, cuts[i-1]})
			start = cuts[i-1]
		}
		// A single oversized section falls back to boundary-free cuts.
		for sectionEnd-start > opts.Max {
			spans = append(spans, [2]int{start, start + opts.Target})
			start += opts.Target
		}
	}
	if start < len(text) {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}
