package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("One. Two! Three? Tail without end")
	require.Len(t, sentences, 4)
	assert.Equal(t, "One.", sentences[0].Text)
	assert.Equal(t, "Two!", sentences[1].Text)
	assert.Equal(t, "Three?", sentences[2].Text)
	assert.Equal(t, "Tail without end", sentences[3].Text)
	assert.Equal(t, 3, sentences[3].Position)
}

func TestJaccard(t *testing.T) {
	a := wordSet("the quick brown fox")
	b := wordSet("the quick red fox")
	assert.InDelta(t, 0.6, jaccard(a, b), 1e-9)
	assert.Equal(t, 0.0, jaccard(a, map[string]bool{}))
	assert.Equal(t, 1.0, jaccard(a, a))
}

func TestTopKeywordsFiltersStopwordsAndRareWords(t *testing.T) {
	text := "garbage collector garbage collector heap heap heap the the the once"
	keywords := topKeywords(text, 20)

	assert.True(t, keywords["garbage"])
	assert.True(t, keywords["collector"])
	assert.True(t, keywords["heap"])
	assert.False(t, keywords["the"], "stopword")
	assert.False(t, keywords["once"], "appears once")
}

func TestProperNounRatio(t *testing.T) {
	assert.Equal(t, 0.0, properNounRatio(words("Single")))
	assert.InDelta(t, 0.5, properNounRatio(words("visited Paris and London today")), 1e-9)
}

func TestSyllables(t *testing.T) {
	tests := map[string]int{
		"cat":        1,
		"window":     2,
		"beautiful":  3,
		"take":       1,
		"a":          1,
		"rhythmical": 3,
	}
	for word, want := range tests {
		assert.Equal(t, want, syllables(word), word)
	}
}
