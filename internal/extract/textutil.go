package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// Sentence is one sentence of a text with its original position.
type Sentence struct {
	Text     string
	Position int
}

// splitSentences splits text on terminal punctuation, keeping that
// punctuation attached to the sentence.
func splitSentences(text string) []Sentence {
	var sentences []Sentence
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[start:loc[1]])
		if s != "" {
			sentences = append(sentences, Sentence{Text: s, Position: len(sentences)})
		}
		start = loc[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, Sentence{Text: tail, Position: len(sentences)})
	}
	return sentences
}

// words splits on whitespace, dropping empty fields.
func words(text string) []string {
	return strings.Fields(text)
}

// wordSet lowercases and de-punctuates words into a set for similarity.
func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range words(text) {
		w = strings.ToLower(strings.Trim(w, ".,;:!?\"'()[]{}"))
		if w != "" {
			set[w] = true
		}
	}
	return set
}

// jaccard computes the Jaccard similarity of two word sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// stopwords is the small English set used for keyword selection.
var stopwords = map[string]bool{
	"the": true, "and": true, "that": true, "have": true, "for": true,
	"not": true, "with": true, "you": true, "this": true, "but": true,
	"his": true, "from": true, "they": true, "say": true, "her": true,
	"she": true, "will": true, "one": true, "all": true, "would": true,
	"there": true, "their": true, "what": true, "out": true, "about": true,
	"who": true, "get": true, "which": true, "when": true, "make": true,
	"can": true, "like": true, "time": true, "just": true, "him": true,
	"know": true, "take": true, "into": true, "your": true, "some": true,
	"could": true, "them": true, "than": true, "then": true, "its": true,
	"also": true, "after": true, "other": true, "how": true, "our": true,
	"well": true, "way": true, "even": true, "because": true, "any": true,
	"these": true, "most": true, "was": true, "were": true, "been": true,
	"has": true, "had": true, "are": true, "more": true, "such": true,
	"over": true, "only": true, "very": true, "where": true, "while": true,
}

// topKeywords returns the most frequent non-stopword words of length > 3
// appearing at least twice, capped at limit.
func topKeywords(text string, limit int) map[string]bool {
	freq := make(map[string]int)
	for _, w := range words(text) {
		w = strings.ToLower(strings.Trim(w, ".,;:!?\"'()[]{}"))
		if len(w) > 3 && !stopwords[w] {
			freq[w]++
		}
	}

	type kv struct {
		word  string
		count int
	}
	var ranked []kv
	for w, c := range freq {
		if c >= 2 {
			ranked = append(ranked, kv{w, c})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	keywords := make(map[string]bool, len(ranked))
	for _, kv := range ranked {
		keywords[kv.word] = true
	}
	return keywords
}

// properNounRatio is the fraction of non-initial words that look like
// proper nouns (capitalised, rest lowercase).
func properNounRatio(ws []string) float64 {
	if len(ws) <= 1 {
		return 0
	}
	count := 0
	for _, w := range ws[1:] {
		runes := []rune(strings.Trim(w, ".,;:!?\"'()[]{}"))
		if len(runes) >= 2 && unicode.IsUpper(runes[0]) && unicode.IsLower(runes[1]) {
			count++
		}
	}
	return float64(count) / float64(len(ws)-1)
}

// hasDigit reports whether the text carries any decimal digit.
func hasDigit(text string) bool {
	return strings.ContainsAny(text, "0123456789")
}

// syllables estimates the syllable count of a word by vowel groups, with
// the usual silent-e adjustment. A rough count is all the readability
// composite needs.
func syllables(word string) int {
	word = strings.ToLower(strings.Trim(word, ".,;:!?\"'()[]{}"))
	if word == "" {
		return 0
	}
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}
