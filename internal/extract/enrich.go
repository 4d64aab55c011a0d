package extract

import (
	"fmt"
	"math"
	"regexp"
	"sort"
)

// Quality bands and their thresholds on the composite score.
const (
	QualityVeryLow = "very_low"
	QualityLow     = "low"
	QualityMedium  = "medium"
	QualityHigh    = "high"
)

// Reading-level bands by Flesch-Kincaid grade.
const (
	LevelElementary = "elementary"
	LevelHighSchool = "high_school"
	LevelCollege    = "college"
	LevelGraduate   = "graduate"
)

// Content-type tags.
const (
	TypeArticle       = "article"
	TypeDocumentation = "documentation"
	TypeEcommerce     = "ecommerce"
	TypeSocial        = "social"
	TypeGeneral       = "general"
)

// Structure describes the shape of the extracted content.
type Structure struct {
	HasHeadings    bool
	HasSubheadings bool
	HasLists       bool
	HasLinks       bool
	HasCode        bool
	HeadingLevels  []int
	ListTypes      []string
	LinkCount      int
}

// Metadata is the enrichment result. It is deterministic in its inputs.
type Metadata struct {
	WordCount    int
	ReadingTime  string
	QualityScore float64
	Quality      string
	ContentType  string
	ReadingLevel string
	Structure    Structure
}

// EnrichInput carries everything the enricher looks at.
type EnrichInput struct {
	Content   string
	Title     string
	Blocks    []ContentBlock
	LinkCount int
}

// Enrich computes content metadata from the assembled text and the block
// structure of the selected regions.
func Enrich(in EnrichInput) Metadata {
	ws := words(in.Content)
	structure := buildStructure(in.Blocks, in.LinkCount)

	quality := qualityScore(in.Content, ws, structure)

	return Metadata{
		WordCount:    len(ws),
		ReadingTime:  formatReadingTime(len(ws)),
		QualityScore: quality,
		Quality:      qualityBand(quality),
		ContentType:  detectContentType(in.Content, in.Title, structure),
		ReadingLevel: readingLevel(in.Content, ws),
		Structure:    structure,
	}
}

// formatReadingTime renders minutes at 200 words per minute.
func formatReadingTime(wordCount int) string {
	if wordCount < 200 {
		return "< 1 min"
	}
	minutes := int(math.Ceil(float64(wordCount) / 200))
	return fmt.Sprintf("%d min", minutes)
}

func buildStructure(blocks []ContentBlock, linkCount int) Structure {
	s := Structure{LinkCount: linkCount, HasLinks: linkCount > 0}
	levelSet := map[int]bool{}
	listSet := map[string]bool{}

	for _, b := range blocks {
		switch b.Role {
		case RoleHeading:
			s.HasHeadings = true
			if b.HeadingLevel >= 2 {
				s.HasSubheadings = true
			}
			levelSet[b.HeadingLevel] = true
		case RoleList:
			s.HasLists = true
			switch b.Tag {
			case "ol":
				listSet["ordered"] = true
			case "dl":
				listSet["definition"] = true
			default:
				listSet["unordered"] = true
			}
		case RoleCode:
			s.HasCode = true
		}
	}

	for level := range levelSet {
		s.HeadingLevels = append(s.HeadingLevels, level)
	}
	sort.Ints(s.HeadingLevels)
	for t := range listSet {
		s.ListTypes = append(s.ListTypes, t)
	}
	sort.Strings(s.ListTypes)
	return s
}

// qualityScore is the weighted composite: length 0.2, readability 0.3,
// structure 0.2, relevance 0.3. Each factor is normalised to [0, 1].
func qualityScore(content string, ws []string, structure Structure) float64 {
	length := lengthScore(len(content))
	readability := readabilityScore(content, ws)
	structural := structureScore(structure)
	relevance := relevanceScore(content, ws)

	return 0.2*length + 0.3*readability + 0.2*structural + 0.3*relevance
}

// lengthScore peaks at the optimal content length and falls off either side.
func lengthScore(chars int) float64 {
	const optimal = 500
	if chars == 0 {
		return 0
	}
	if chars <= optimal {
		return float64(chars) / optimal
	}
	// Gentle decay past the optimum; never below 0.3 for real content.
	score := float64(optimal) / float64(chars)
	if score < 0.3 {
		score = 0.3
	}
	return score
}

// readabilityScore is the Flesch-inspired composite of sentence length,
// complex-word ratio and syllables per word, normalised to [0, 1].
func readabilityScore(content string, ws []string) float64 {
	sentences := splitSentences(content)
	if len(sentences) == 0 || len(ws) == 0 {
		return 0
	}

	wordsPerSentence := float64(len(ws)) / float64(len(sentences))

	totalSyllables := 0
	complexWords := 0
	for _, w := range ws {
		syl := syllables(w)
		totalSyllables += syl
		if syl >= 3 {
			complexWords++
		}
	}
	syllablesPerWord := float64(totalSyllables) / float64(len(ws))
	complexRatio := float64(complexWords) / float64(len(ws))

	// Flesch reading ease, then squashed to [0, 1]. The complex-word
	// ratio drags hard technical prose down a band.
	flesch := 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
	flesch -= complexRatio * 20
	score := flesch / 100
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// structureScore sums presence weights: headings .2, lists .15, links .1,
// code .15, normalised by the attainable total.
func structureScore(s Structure) float64 {
	score := 0.0
	if s.HasHeadings {
		score += 0.2
	}
	if s.HasLists {
		score += 0.15
	}
	if s.HasLinks {
		score += 0.1
	}
	if s.HasCode {
		score += 0.15
	}
	return score / 0.6
}

// relevanceScore blends a density signal, the keyword hit rate and a crude
// coherence measure (sentence-to-sentence word carry-over).
func relevanceScore(content string, ws []string) float64 {
	if len(ws) == 0 {
		return 0
	}

	// Density: unique-to-total word ratio rewards information-dense prose.
	unique := wordSet(content)
	density := float64(len(unique)) / float64(len(ws))
	if density > 1 {
		density = 1
	}

	keywords := topKeywords(content, keywordLimit)
	hits := 0
	for w := range unique {
		if keywords[w] {
			hits++
		}
	}
	hitRate := 0.0
	if len(keywords) > 0 {
		hitRate = float64(hits) / float64(len(keywords))
	} else {
		// Short texts have no repeating keywords; treat them as neutral
		// rather than irrelevant.
		hitRate = 0.5
	}

	coherence := coherenceScore(content)

	return 0.4*density + 0.3*hitRate + 0.3*coherence
}

func coherenceScore(content string) float64 {
	sentences := splitSentences(content)
	if len(sentences) < 2 {
		return 0.5
	}
	carry := 0.0
	for i := 1; i < len(sentences); i++ {
		carry += jaccard(wordSet(sentences[i-1].Text), wordSet(sentences[i].Text))
	}
	avg := carry / float64(len(sentences)-1)
	// Some overlap means flow; total overlap means repetition.
	if avg > 0.5 {
		avg = 1 - avg
	}
	return 0.5 + avg
}

func qualityBand(score float64) string {
	switch {
	case score < 0.2:
		return QualityVeryLow
	case score < 0.5:
		return QualityLow
	case score < 0.8:
		return QualityMedium
	default:
		return QualityHigh
	}
}

// Content-type signal patterns, weighted. The highest scoring type above
// the floor wins; otherwise the content is tagged general.
var contentTypeSignals = map[string][]struct {
	pattern *regexp.Regexp
	weight  float64
}{
	TypeArticle: {
		{regexp.MustCompile(`(?i)\b(published|author|byline|editor|opinion)\b`), 1.0},
		{regexp.MustCompile(`(?i)\b(reported|according to|interview)\b`), 0.8},
		{regexp.MustCompile(`(?i)\b(minutes? read|continue reading)\b`), 0.6},
	},
	TypeDocumentation: {
		{regexp.MustCompile(`(?i)\b(api|function|parameter|returns?|example|usage|install)\b`), 1.0},
		{regexp.MustCompile(`(?i)\b(configuration|deprecated|version|changelog)\b`), 0.8},
		{regexp.MustCompile("```|\\bcode\\b"), 0.6},
	},
	TypeEcommerce: {
		{regexp.MustCompile(`(?i)\b(price|add to cart|buy now|in stock|shipping|checkout)\b`), 1.2},
		{regexp.MustCompile(`(?i)(\$|€|£)\d`), 0.8},
		{regexp.MustCompile(`(?i)\b(reviews?|ratings?|stars?)\b`), 0.4},
	},
	TypeSocial: {
		{regexp.MustCompile(`(?i)\b(likes?|shares?|followers?|retweet|upvote)\b`), 1.0},
		{regexp.MustCompile(`(?i)\b(posted by|commented|replies)\b`), 0.8},
	},
}

// contentTypeOrder fixes the evaluation order so tied scores always
// resolve the same way.
var contentTypeOrder = []string{TypeArticle, TypeDocumentation, TypeEcommerce, TypeSocial}

func detectContentType(content, title string, structure Structure) string {
	haystack := title + " " + content

	best, bestScore := TypeGeneral, 0.0
	for _, tag := range contentTypeOrder {
		score := 0.0
		for _, sig := range contentTypeSignals[tag] {
			if sig.pattern.MatchString(haystack) {
				score += sig.weight
			}
		}
		if tag == TypeDocumentation && structure.HasCode {
			score += 0.6
		}
		if score > bestScore {
			best, bestScore = tag, score
		}
	}

	if bestScore < 0.8 {
		return TypeGeneral
	}
	return best
}

// readingLevel bands the Flesch-Kincaid grade level.
func readingLevel(content string, ws []string) string {
	sentences := splitSentences(content)
	if len(sentences) == 0 || len(ws) == 0 {
		return LevelElementary
	}

	totalSyllables := 0
	for _, w := range ws {
		totalSyllables += syllables(w)
	}

	grade := 0.39*(float64(len(ws))/float64(len(sentences))) +
		11.8*(float64(totalSyllables)/float64(len(ws))) - 15.59

	switch {
	case grade <= 8:
		return LevelElementary
	case grade <= 12:
		return LevelHighSchool
	case grade <= 16:
		return LevelCollege
	default:
		return LevelGraduate
	}
}
