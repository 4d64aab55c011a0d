package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCaptureSelectionEmpty(t *testing.T) {
	got := CaptureSelection("", "some ancestor text", 500)
	assert.False(t, got.HasSelection)
	assert.Empty(t, got.Text)
	assert.Empty(t, got.SurroundingContext)
}

func TestCaptureSelectionWithContext(t *testing.T) {
	ancestor := "Hello there reader. The selected phrase sits here. And the text goes on."
	got := CaptureSelection("selected phrase", ancestor, 20)

	assert.True(t, got.HasSelection)
	assert.Equal(t, "selected phrase", got.Text)
	assert.Contains(t, got.SurroundingContext, "selected phrase")
	assert.LessOrEqual(t, len(got.SurroundingContext), len("selected phrase")+20)
}

func TestCaptureSelectionNotFound(t *testing.T) {
	got := CaptureSelection("missing phrase", "completely unrelated ancestor text", 100)

	assert.True(t, got.HasSelection)
	assert.Equal(t, "missing phrase", got.Text)
	assert.Empty(t, got.SurroundingContext)
}

func TestCaptureSelectionNormalizesWhitespace(t *testing.T) {
	ancestor := "Hello   there\n\treader of the  page."
	got := CaptureSelection("there reader", ancestor, 50)

	assert.True(t, got.HasSelection)
	assert.Contains(t, got.SurroundingContext, "there reader")
}

func TestCaptureSelectionWindowCapped(t *testing.T) {
	ancestor := strings.Repeat("a", 5000) + " needle " + strings.Repeat("b", 5000)
	got := CaptureSelection("needle", ancestor, 400)

	assert.LessOrEqual(t, len(got.SurroundingContext), 2*400)
}

func TestCaptureSelectionMultiByteWindowEdges(t *testing.T) {
	// Two-byte runes on both sides put the raw byte offsets mid-rune.
	ancestor := strings.Repeat("é", 300) + " needle " + strings.Repeat("é", 300)
	got := CaptureSelection("needle", ancestor, 401)

	assert.True(t, got.HasSelection)
	assert.True(t, utf8.ValidString(got.SurroundingContext))
	assert.Contains(t, got.SurroundingContext, "needle")
}

func TestCaptureSelectionKeepsSelectionWhenCapIsSmaller(t *testing.T) {
	needle := strings.Repeat("selected words ", 10)
	needle = strings.TrimSpace(needle)
	ancestor := strings.Repeat("x", 1000) + " " + needle + " " + strings.Repeat("y", 1000)

	got := CaptureSelection(needle, ancestor, 10)
	assert.Contains(t, got.SurroundingContext, needle)
}
