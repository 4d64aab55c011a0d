package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankLinksFiltersChromeAndJunk(t *testing.T) {
	doc := mustParse(t, "https://example.com/post", `<html><body><main><p>
		<a href="javascript:void(0)">Click here</a>
		<a href="https://example.org/2024/memory-safety">Read the full 2024 analysis of memory safety</a>
		<a href="/login">Login</a>
	</p></main></body></html>`)

	links := RankLinks(doc)
	require.Len(t, links, 1)
	assert.Equal(t, "Read the full 2024 analysis of memory safety", links[0].Text)
	assert.Equal(t, "https://example.org/2024/memory-safety", links[0].Href)
	assert.Greater(t, links[0].Score, 0.0)
}

func TestRankLinksSkipsExcludedRegions(t *testing.T) {
	doc := mustParse(t, "https://example.com", `<html><body>
		<nav><a href="/guide/one">A perfectly descriptive guide title</a></nav>
		<footer><a href="/guide/two">Another perfectly descriptive guide</a></footer>
		<main><p><a href="/guide/three">The kept descriptive guide link</a></p></main>
	</body></html>`)

	links := RankLinks(doc)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/guide/three", links[0].Href)
}

func TestRankLinksLengthBounds(t *testing.T) {
	long := strings.Repeat("w", linkTextMax+1)
	doc := mustParse(t, "https://example.com", fmt.Sprintf(`<html><body><main><p>
		<a href="/a">abcd</a>
		<a href="/b">%s</a>
		<a href="/c">A descriptive article about runtimes</a>
	</p></main></body></html>`, long))

	links := RankLinks(doc)
	require.Len(t, links, 1)
	assert.Equal(t, "A descriptive article about runtimes", links[0].Text)
}

func TestRankLinksCapsAtTen(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body><main><p>")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&sb, `<a href="/article/%d">Descriptive article number %d overview</a>`, i, i)
	}
	sb.WriteString("</p></main></body></html>")
	doc := mustParse(t, "https://example.com", sb.String())

	links := RankLinks(doc)
	assert.Len(t, links, maxLinks)
}

func TestRankLinksSortedByScore(t *testing.T) {
	doc := mustParse(t, "https://example.com", `<html><body>
		<main><p><a href="https://journal.org/deep-dive">An in-depth analysis of escape behaviour</a></p></main>
		<div><a href="/x7k2">zqxv bnmt wkjh pqrs dfgl</a></div>
	</body></html>`)

	links := RankLinks(doc)
	require.GreaterOrEqual(t, len(links), 2)
	for i := 1; i < len(links); i++ {
		assert.GreaterOrEqual(t, links[i-1].Score, links[i].Score)
	}
	assert.Contains(t, links[0].Text, "analysis")
}

func TestScoreLinkContext(t *testing.T) {
	doc := mustParse(t, "https://example.com", `<html><body>
		<main><p><a id="inmain" href="/a">A descriptive research article overview</a></p></main>
		<div class="sidebar widget"><a id="inchrome" href="/b">A descriptive research article overview</a></div>
	</body></html>`)

	main := doc.doc.Find("#inmain")
	chrome := doc.doc.Find("#inchrome")
	text := "A descriptive research article overview"

	mainScore := scoreLink(main, text, "https://example.com/a", "example.com")
	chromeScore := scoreLink(chrome, text, "https://example.com/b", "example.com")
	assert.Greater(t, mainScore, chromeScore)
}

func TestDescriptiveness(t *testing.T) {
	assert.Greater(t, descriptiveness("A thorough analysis of allocator behaviour"),
		descriptiveness("click this page here"))

	// Clamped to [0, 1].
	assert.GreaterOrEqual(t, descriptiveness("here more click this"), 0.0)
	assert.LessOrEqual(t, descriptiveness("Detailed Research Analysis Guide Tutorial"), 1.0)
}

func TestURLQuality(t *testing.T) {
	// Cross-host beats same-host.
	assert.Greater(t,
		urlQuality("https://other.org/post", "example.com"),
		urlQuality("https://example.com/post", "example.com"))

	// Authoritative TLDs get a bump.
	assert.Greater(t,
		urlQuality("https://stanford.edu/paper", "example.com"),
		urlQuality("https://random.io/paper", "example.com"))
}
