package extract

import (
	"sort"
	"strings"
)

// Summariser tuning. Target size is a ratio of the original bounded to a
// fixed window; the final character cap is enforced separately.
const (
	summaryRatio    = 0.3
	summaryMinWords = 100
	summaryMaxWords = 500
	minSentenceLen  = 5 // words
	keywordLimit    = 20

	// boundaryCutRatio: a trailing sentence boundary within the last 20%
	// of the cap is preferred over an absolute cut.
	boundaryCutRatio = 0.8
)

// SummaryInput carries the context the sentence scorer uses.
type SummaryInput struct {
	Text              string
	Title             string
	Headings          []string
	CharBudget        int
	PreserveStructure bool
}

// Summarize reduces text to an extractive summary within the character
// budget. Text already inside the budget is returned unchanged.
func Summarize(in SummaryInput) string {
	if in.CharBudget <= 0 || len(in.Text) <= in.CharBudget {
		return in.Text
	}

	sentences := splitSentences(in.Text)
	scored := scoreSentences(sentences, in)
	if len(scored) == 0 {
		return hardCut(in.Text, in.CharBudget)
	}

	// Greedy pick by descending score until the word target.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	target := targetWords(len(words(in.Text)), in.CharBudget)
	var picked []scoredSentence
	total := 0
	for _, s := range scored {
		if total >= target {
			break
		}
		picked = append(picked, s)
		total += len(words(s.Text))
	}

	if in.PreserveStructure {
		sort.Slice(picked, func(i, j int) bool {
			return picked[i].Position < picked[j].Position
		})
	}

	parts := make([]string, len(picked))
	for i, s := range picked {
		parts[i] = s.Text
	}
	summary := strings.Join(parts, " ")

	if len(summary) > in.CharBudget {
		summary = hardCut(summary, in.CharBudget)
	}
	return summary
}

type scoredSentence struct {
	Sentence
	score float64
}

// scoreSentences applies the weighted sentence heuristics: position,
// length band, keyword hits, title/heading similarity, proper nouns and
// digits. Sentences under the minimum word count are dropped.
func scoreSentences(sentences []Sentence, in SummaryInput) []scoredSentence {
	keywords := topKeywords(in.Text, keywordLimit)
	titleSet := wordSet(in.Title)
	headingSet := wordSet(strings.Join(in.Headings, " "))

	var scored []scoredSentence
	for _, s := range sentences {
		ws := words(s.Text)
		if len(ws) < minSentenceLen {
			continue
		}

		score := 0.0
		if s.Position == 0 {
			score += 1.5
		}
		if s.Position == len(sentences)-1 {
			score += 1.2
		}
		if len(ws) >= 10 && len(ws) <= 25 {
			score += 1.0
		}

		set := wordSet(s.Text)
		hits := 0
		for w := range set {
			if keywords[w] {
				hits++
			}
		}
		score += float64(hits) * 0.5

		if jaccard(set, titleSet) > 0.3 {
			score += 3.0
		}
		if jaccard(set, headingSet) > 0.3 {
			score += 2.5
		}

		score += properNounRatio(ws)
		if hasDigit(s.Text) {
			score += 0.5
		}

		scored = append(scored, scoredSentence{Sentence: s, score: score})
	}
	return scored
}

func targetWords(originalWords, charBudget int) int {
	target := int(float64(originalWords) * summaryRatio)
	upper := charBudget / CharsPerTokenApprox
	if upper > summaryMaxWords {
		upper = summaryMaxWords
	}
	if target > upper {
		target = upper
	}
	if target < summaryMinWords {
		target = summaryMinWords
	}
	return target
}

// CharsPerTokenApprox mirrors the wire-level token-to-character budget.
const CharsPerTokenApprox = 4

// hardCut enforces the character cap, preferring a sentence boundary in
// the last fifth of the budget over a mid-sentence cut.
func hardCut(text string, cap int) string {
	if len(text) <= cap {
		return text
	}
	cut := text[:cap]
	if idx := lastSentenceEnd(cut); idx >= int(float64(cap)*boundaryCutRatio) {
		return strings.TrimSpace(cut[:idx+1])
	}
	return strings.TrimSpace(cut)
}

// lastSentenceEnd returns the index of the final terminal-punctuation rune.
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			return i
		}
	}
	return -1
}
