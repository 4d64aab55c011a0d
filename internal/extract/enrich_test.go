package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatReadingTime(t *testing.T) {
	assert.Equal(t, "< 1 min", formatReadingTime(0))
	assert.Equal(t, "< 1 min", formatReadingTime(150))
	assert.Equal(t, "1 min", formatReadingTime(200))
	assert.Equal(t, "2 min", formatReadingTime(350))
	assert.Equal(t, "5 min", formatReadingTime(1000))
}

func TestBuildStructure(t *testing.T) {
	blocks := []ContentBlock{
		{Role: RoleHeading, Tag: "h2", HeadingLevel: 2, Text: "A"},
		{Role: RoleHeading, Tag: "h1", HeadingLevel: 1, Text: "B"},
		{Role: RoleList, Tag: "ul", Text: "C"},
		{Role: RoleCode, Tag: "pre", Text: "D"},
		{Role: RoleParagraph, Tag: "p", Text: "E"},
	}

	s := buildStructure(blocks, 3)
	assert.True(t, s.HasHeadings)
	assert.True(t, s.HasSubheadings)
	assert.True(t, s.HasLists)
	assert.True(t, s.HasCode)
	assert.True(t, s.HasLinks)
	assert.Equal(t, []int{1, 2}, s.HeadingLevels)
	assert.Equal(t, []string{"unordered"}, s.ListTypes)
	assert.Equal(t, 3, s.LinkCount)
}

func TestQualityBands(t *testing.T) {
	assert.Equal(t, QualityVeryLow, qualityBand(0.1))
	assert.Equal(t, QualityLow, qualityBand(0.3))
	assert.Equal(t, QualityMedium, qualityBand(0.6))
	assert.Equal(t, QualityHigh, qualityBand(0.9))
}

func TestLengthScore(t *testing.T) {
	assert.Equal(t, 0.0, lengthScore(0))
	assert.InDelta(t, 0.5, lengthScore(250), 1e-9)
	assert.InDelta(t, 1.0, lengthScore(500), 1e-9)
	assert.InDelta(t, 0.5, lengthScore(1000), 1e-9)
	// Floor for very long content.
	assert.InDelta(t, 0.3, lengthScore(100000), 1e-9)
}

func TestStructureScore(t *testing.T) {
	assert.Equal(t, 0.0, structureScore(Structure{}))
	assert.InDelta(t, 1.0, structureScore(Structure{
		HasHeadings: true, HasLists: true, HasLinks: true, HasCode: true,
	}), 1e-9)
}

func TestReadingLevelBands(t *testing.T) {
	simple := strings.TrimSpace(strings.Repeat("The cat sat on the mat. ", 10))
	assert.Equal(t, LevelElementary, readingLevel(simple, words(simple)))

	dense := strings.TrimSpace(strings.Repeat(
		"Sophisticated organisational methodologies necessitate comprehensive institutional"+
			" documentation frameworks alongside interdepartmental authorisation hierarchies"+
			" governing operational responsibilities throughout distributed administrative"+
			" infrastructures and collaborative evaluation. ", 5))
	assert.Equal(t, LevelGraduate, readingLevel(dense, words(dense)))
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    bool
		want    string
	}{
		{
			name: "documentation",
			content: "The install function takes a parameter and returns a handle. " +
				"See the API usage example and configuration reference.",
			code: true,
			want: TypeDocumentation,
		},
		{
			name: "ecommerce",
			content: "Price $49 with free shipping, add to cart now while in stock. " +
				"Read reviews from verified buyers before checkout.",
			want: TypeEcommerce,
		},
		{
			name: "article",
			content: "Published yesterday, the author and editor reported on the " +
				"findings. According to the interview, nothing is settled.",
			want: TypeArticle,
		},
		{
			name:    "general fallback",
			content: "Plain prose with nothing characteristic about it at all.",
			want:    TypeGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectContentType(tt.content, "", Structure{HasCode: tt.code})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectContentTypeStable(t *testing.T) {
	// "published" and "api" score article and documentation identically;
	// the winner must not depend on evaluation order run to run.
	content := "The published api reference."

	first := detectContentType(content, "", Structure{})
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, detectContentType(content, "", Structure{}))
	}
	assert.Equal(t, TypeArticle, first)
}

func TestEnrichComposite(t *testing.T) {
	content := "Garbage collection in modern runtimes balances pause time against throughput. " +
		"The collector marks reachable objects and sweeps the rest. " +
		"Concurrent collectors trade some throughput for shorter pauses. " +
		"Generational collectors exploit the observation that most objects die young."
	blocks := []ContentBlock{
		{Role: RoleHeading, Tag: "h2", HeadingLevel: 2, Text: "Garbage collection"},
		{Role: RoleParagraph, Tag: "p", Text: content},
	}

	meta := Enrich(EnrichInput{Content: content, Title: "Garbage collection", Blocks: blocks, LinkCount: 2})

	require.Equal(t, len(words(content)), meta.WordCount)
	assert.Equal(t, "< 1 min", meta.ReadingTime)
	assert.GreaterOrEqual(t, meta.QualityScore, 0.0)
	assert.LessOrEqual(t, meta.QualityScore, 1.0)
	assert.NotEmpty(t, meta.Quality)
	assert.NotEmpty(t, meta.ReadingLevel)
	assert.True(t, meta.Structure.HasHeadings)
	assert.Equal(t, 2, meta.Structure.LinkCount)
}
