package wire

import "fmt"

// Default option values for get_context.
const (
	DefaultMaxTokens        = 2000
	DefaultMaxContextLength = 500

	// CharsPerToken is the character budget granted per token. Content
	// length is bounded by MaxTokens * CharsPerToken.
	CharsPerToken = 4
)

// ContextOptions carries the per-request extraction options. All fields are
// optional on the wire; Normalized fills defaults.
type ContextOptions struct {
	Format            string `json:"format,omitempty"`
	MaxTokens         int    `json:"maxTokens,omitempty"`
	IncludeLinks      *bool  `json:"includeLinks,omitempty"`
	IncludeSelection  *bool  `json:"includeSelection,omitempty"`
	PreserveStructure bool   `json:"preserveStructure,omitempty"`
	MaxContextLength  int    `json:"maxContextLength,omitempty"`
}

// Normalized returns a copy with defaults applied. Unknown formats fall back
// to text rather than failing the request.
func (o ContextOptions) Normalized() ContextOptions {
	switch o.Format {
	case FormatText, FormatStructured, FormatBoth:
	default:
		o.Format = FormatText
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.IncludeLinks == nil {
		t := true
		o.IncludeLinks = &t
	}
	if o.IncludeSelection == nil {
		t := true
		o.IncludeSelection = &t
	}
	if o.MaxContextLength <= 0 {
		o.MaxContextLength = DefaultMaxContextLength
	}
	return o
}

// CharBudget returns the content character cap implied by the token budget.
func (o ContextOptions) CharBudget() int {
	n := o.MaxTokens
	if n <= 0 {
		n = DefaultMaxTokens
	}
	return n * CharsPerToken
}

// LinksWanted reports whether the response should include ranked links.
func (o ContextOptions) LinksWanted() bool {
	return o.IncludeLinks == nil || *o.IncludeLinks
}

// SelectionWanted reports whether the response should include the selection.
func (o ContextOptions) SelectionWanted() bool {
	return o.IncludeSelection == nil || *o.IncludeSelection
}

// Fingerprint returns a canonical cache key component for the options.
// Fields are emitted in a fixed order after normalisation, so two logically
// equal option sets always produce the same key regardless of the JSON field
// order the peer happened to send.
func (o ContextOptions) Fingerprint() string {
	n := o.Normalized()
	return fmt.Sprintf("f=%s;t=%d;l=%t;s=%t;p=%t;c=%d",
		n.Format, n.MaxTokens, n.LinksWanted(), n.SelectionWanted(), n.PreserveStructure, n.MaxContextLength)
}
