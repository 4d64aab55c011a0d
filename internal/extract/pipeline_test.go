package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanArticleHTML = `<html><head><title>Greeting</title></head><body>
	<nav><a href="/home">Home</a><a href="/about">About</a></nav>
	<article><h1>Hello</h1><p>One. Two. Three.</p></article>
	<footer>Copyright footer text</footer>
</body></html>`

func TestRunCleanArticle(t *testing.T) {
	result, err := Run(context.Background(), Page{
		URL:  "https://example.com/greeting",
		HTML: cleanArticleHTML,
	}, Options{CharBudget: 200})
	require.NoError(t, err)

	assert.Contains(t, result.Content, "Hello\n\nOne. Two. Three.")
	assert.NotContains(t, result.Content, "Home")
	assert.NotContains(t, result.Content, "Copyright")
	assert.Equal(t, 4, result.Metadata.WordCount)
	assert.Contains(t, []string{QualityMedium, QualityHigh}, result.Metadata.Quality)
	assert.Equal(t, "Greeting", result.Title)
}

func TestRunSummarisesOverBudget(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body><article>")
	for i := 0; i < 60; i++ {
		sb.WriteString("<p>Lorem ipsum dolor sit amet, consectetur adipiscing elit. " +
			"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. " +
			"Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris.</p>")
	}
	sb.WriteString("</article></body></html>")

	result, err := Run(context.Background(), Page{
		URL:  "https://example.com/lorem",
		HTML: sb.String(),
	}, Options{CharBudget: 800})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(result.Content), 800)
	assert.NotEmpty(t, result.Content)
	if idx := lastSentenceEnd(result.Content); idx >= 0 {
		// A boundary inside the last fifth of the budget ends the content.
		assert.True(t, strings.HasSuffix(result.Content, ".") ||
			idx < int(float64(800)*boundaryCutRatio))
	}
}

func TestRunIncludesLinksOnRequest(t *testing.T) {
	html := `<html><body><main>
		<p>` + proseParagraph + `</p>
		<p><a href="/guide/gc">A practical guide to garbage collection</a></p>
	</main></body></html>`

	withLinks, err := Run(context.Background(), Page{URL: "https://example.com", HTML: html},
		Options{IncludeLinks: true})
	require.NoError(t, err)
	require.NotEmpty(t, withLinks.Links)
	assert.Equal(t, "https://example.com/guide/gc", withLinks.Links[0].Href)

	withoutLinks, err := Run(context.Background(), Page{URL: "https://example.com", HTML: html},
		Options{})
	require.NoError(t, err)
	assert.Empty(t, withoutLinks.Links)
}

func TestRunCapturesSelection(t *testing.T) {
	html := `<html><body><article><p>` + proseParagraph + `</p></article></body></html>`

	result, err := Run(context.Background(), Page{
		URL:       "https://example.com",
		HTML:      html,
		Selection: "marks every object",
	}, Options{IncludeSelection: true, MaxContextLength: 100})
	require.NoError(t, err)

	assert.True(t, result.Selection.HasSelection)
	assert.Equal(t, "marks every object", result.Selection.Text)
	assert.Contains(t, result.Selection.SurroundingContext, "marks every object")
}

func TestRunStructuredFormatChunks(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body><article>")
	for i := 0; i < 40; i++ {
		sb.WriteString("<p>" + proseParagraph + "</p>")
	}
	sb.WriteString("</article></body></html>")

	result, err := Run(context.Background(), Page{URL: "https://example.com", HTML: sb.String()},
		Options{Format: FormatStructured})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Chunks)

	textOnly, err := Run(context.Background(), Page{URL: "https://example.com", HTML: sb.String()},
		Options{Format: FormatText})
	require.NoError(t, err)
	assert.Empty(t, textOnly.Chunks)
}

func TestRunEmptyBody(t *testing.T) {
	result, err := Run(context.Background(), Page{
		URL:  "https://example.com",
		HTML: "<html><body></body></html>",
	}, Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Content)
	assert.Equal(t, 0, result.Metadata.WordCount)
}
