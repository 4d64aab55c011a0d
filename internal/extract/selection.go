package extract

import (
	"strings"
	"unicode/utf8"
)

// Selection is the captured user selection with its surrounding window.
type Selection struct {
	Text               string
	SurroundingContext string
	HasSelection       bool
}

// CaptureSelection locates the selection inside the text of its common
// ancestor and returns a context window centred on it. The total window
// never exceeds twice maxContextLength. When the selection cannot be found
// as a substring, only the selection itself is returned.
func CaptureSelection(selected, ancestorText string, maxContextLength int) Selection {
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return Selection{}
	}
	if maxContextLength <= 0 {
		maxContextLength = 500
	}

	ancestorText = normalizeWhitespace(ancestorText)
	needle := normalizeWhitespace(selected)
	idx := strings.Index(ancestorText, needle)
	if idx < 0 {
		return Selection{Text: selected, HasSelection: true}
	}

	// Split the surrounding budget evenly around the selection. The
	// offsets are byte counts, so each cut backs up or advances to the
	// nearest rune boundary.
	start := idx - maxContextLength/2
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(ancestorText[start]) {
		start--
	}
	end := idx + len(needle) + maxContextLength/2
	if end > len(ancestorText) {
		end = len(ancestorText)
	}
	for end < len(ancestorText) && !utf8.RuneStart(ancestorText[end]) {
		end++
	}

	// Cap the total window, but never cut into the selection itself.
	if limit := start + 2*maxContextLength; end > limit {
		if floor := idx + len(needle); limit < floor {
			limit = floor
		}
		for limit < len(ancestorText) && !utf8.RuneStart(ancestorText[limit]) {
			limit++
		}
		end = limit
	}
	window := ancestorText[start:end]

	return Selection{
		Text:               selected,
		SurroundingContext: window,
		HasSelection:       true,
	}
}
