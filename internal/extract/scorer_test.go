package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const proseParagraph = "The collector walks the heap in two phases. It first marks " +
	"every object reachable from the roots, then sweeps the unmarked remainder " +
	"back onto the free lists. Pause times stay short because both phases run " +
	"concurrently with the mutator."

func TestScanCandidatesPrefersContentRegions(t *testing.T) {
	doc := mustParse(t, "https://example.com", `<html><body>
		<nav><a href="/a">Home</a><a href="/b">About</a><a href="/c">Contact</a></nav>
		<article><p>`+proseParagraph+`</p></article>
	</body></html>`)

	candidates, err := scanCandidates(context.Background(), doc, DefaultScanLimits())
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	for _, c := range candidates {
		assert.Equal(t, "article", c.Tag)
		assert.Greater(t, c.Score, 0.0)
		assert.Contains(t, c.Text, "collector")
	}
}

func TestScanSkipsHiddenAndExcluded(t *testing.T) {
	doc := mustParse(t, "https://example.com", `<html><body>
		<article style="display:none"><p>`+proseParagraph+`</p></article>
		<nav class="content"><p>`+proseParagraph+`</p></nav>
	</body></html>`)

	candidates, err := scanCandidates(context.Background(), doc, DefaultScanLimits())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestScanHonoursCancellation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 20; i++ {
		sb.WriteString(`<article><p>` + proseParagraph + `</p></article>`)
	}
	sb.WriteString("</body></html>")
	doc := mustParse(t, "https://example.com", sb.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scanCandidates(ctx, doc, ScanLimits{BatchSize: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreElementDiscardsShortText(t *testing.T) {
	doc := mustParse(t, "https://example.com",
		`<html><body><p id="short">Too short.</p></body></html>`)

	sel := doc.doc.Find("#short")
	_, ok := scoreElement(sel, sel.Nodes[0])
	assert.False(t, ok)
}

func TestScoreElementLinkDensityPenalty(t *testing.T) {
	doc := mustParse(t, "https://example.com", `<html><body>
		<div id="prose"><p>`+proseParagraph+`</p></div>
		<div id="farm">
			<a href="/1">`+proseParagraph[:60]+`</a>
			<a href="/2">`+proseParagraph[60:120]+`</a>
			<a href="/3">`+proseParagraph[120:180]+`</a>
			<a href="/4">`+proseParagraph[180:]+`</a>
		</div>
	</body></html>`)

	proseSel := doc.doc.Find("#prose")
	prose, ok := scoreElement(proseSel, proseSel.Nodes[0])
	require.True(t, ok)

	farmSel := doc.doc.Find("#farm")
	farm, ok := scoreElement(farmSel, farmSel.Nodes[0])
	if ok {
		assert.Greater(t, prose.Score, farm.Score)
	}
}

func TestSemanticBonus(t *testing.T) {
	doc := mustParse(t, "https://example.com", `<html><body>
		<article id="a">x</article>
		<main id="m">x</main>
		<div id="c" class="post-content">x</div>
		<div id="d">x</div>
		<p id="p">x</p>
	</body></html>`)

	assert.Equal(t, 30.0, semanticBonus(doc.doc.Find("#a"), "article"))
	assert.Equal(t, 20.0, semanticBonus(doc.doc.Find("#m"), "main"))
	assert.Equal(t, 30.0, semanticBonus(doc.doc.Find("#c"), "div"))
	assert.Equal(t, 10.0, semanticBonus(doc.doc.Find("#d"), "div"))
	assert.Equal(t, 0.0, semanticBonus(doc.doc.Find("#p"), "p"))
}

func TestKindBonus(t *testing.T) {
	assert.Equal(t, 20.0, kindBonus("h2"))
	assert.Equal(t, 15.0, kindBonus("p"))
	assert.Equal(t, 12.0, kindBonus("ul"))
	assert.Equal(t, 0.0, kindBonus("div"))
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, headingLevel("h1"))
	assert.Equal(t, 6, headingLevel("h6"))
	assert.Equal(t, 0, headingLevel("p"))
	assert.Equal(t, 0, headingLevel("h7"))
}
