package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func fakeCandidate(text string, score float64) Candidate {
	return Candidate{
		node:  &html.Node{Type: html.ElementNode, Data: "div"},
		Tag:   "div",
		Text:  text,
		Score: score,
	}
}

func TestPickCandidatesOrdersByScore(t *testing.T) {
	candidates := []Candidate{
		fakeCandidate("alpha "+strings.Repeat("a", 100), 10),
		fakeCandidate("beta "+strings.Repeat("b", 100), 90),
		fakeCandidate("gamma "+strings.Repeat("c", 100), 50),
	}

	picked := pickCandidates(candidates)
	require.Len(t, picked, 3)
	assert.Equal(t, 90.0, picked[0].Score)
	assert.Equal(t, 50.0, picked[1].Score)
	assert.Equal(t, 10.0, picked[2].Score)
}

func TestPickCandidatesCapsSurvivors(t *testing.T) {
	var candidates []Candidate
	letters := "abcdefgh"
	for i := 0; i < 8; i++ {
		candidates = append(candidates,
			fakeCandidate(strings.Repeat(string(letters[i]), 120), float64(i)))
	}

	picked := pickCandidates(candidates)
	assert.Len(t, picked, maxSurvivors)
}

func TestPickCandidatesDropsContainedNodes(t *testing.T) {
	doc := mustParse(t, "https://example.com", `<html><body>
		<article id="outer"><div id="inner"><p>text</p></div></article>
	</body></html>`)

	outer := doc.doc.Find("#outer")
	inner := doc.doc.Find("#inner")
	candidates := []Candidate{
		{sel: outer, node: outer.Nodes[0], Tag: "article", Text: "x", Score: 80},
		{sel: inner, node: inner.Nodes[0], Tag: "div", Text: "y", Score: 40},
	}

	picked := pickCandidates(candidates)
	require.Len(t, picked, 1)
	assert.Equal(t, "article", picked[0].Tag)
}

func TestPickCandidatesDropsSharedText(t *testing.T) {
	shared := strings.Repeat("the quick brown fox jumps over the lazy dog ", 10)
	candidates := []Candidate{
		fakeCandidate(shared+" first region tail", 70),
		fakeCandidate(shared+" second region tail", 60),
	}

	picked := pickCandidates(candidates)
	require.Len(t, picked, 1)
	assert.Equal(t, 70.0, picked[0].Score)
}

func TestPickCandidatesKeepsBestWhenAllOverlap(t *testing.T) {
	doc := mustParse(t, "https://example.com", `<html><body>
		<div id="a"><div id="b">x</div></div>
	</body></html>`)

	a := doc.doc.Find("#a")
	b := doc.doc.Find("#b")
	candidates := []Candidate{
		{sel: a, node: a.Nodes[0], Tag: "div", Text: "x", Score: 5},
		{sel: b, node: b.Nodes[0], Tag: "div", Text: "x", Score: 3},
	}

	picked := pickCandidates(candidates)
	require.Len(t, picked, 1)
	assert.Equal(t, 5.0, picked[0].Score)
}

func TestTextOverlap(t *testing.T) {
	long := strings.Repeat("shared sentence fragment ", 20)
	assert.True(t, textOverlap(long, long+" suffix"))
	assert.False(t, textOverlap("short", "also short"))
	assert.False(t, textOverlap(long, strings.Repeat("different words here ", 20)))
}
