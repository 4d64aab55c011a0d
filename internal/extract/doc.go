// Package extract implements the page-content extraction pipeline.
//
// The pipeline is a chain of stages, leaves first:
//   - scorer: scores candidate elements by text density, link density,
//     length, paragraph coherence and semantic hints
//   - picker: selects the top non-overlapping candidates
//   - text: decomposes selected regions into content blocks and assembles
//     plain text with block separators
//   - summarize: extractive summarisation when text exceeds the token budget
//   - chunk: semantic chunking with overlap for structured output
//   - links: global outbound-link ranking
//   - selection: selection plus surrounding-context capture
//   - enrich: metadata (word count, reading time, quality, content type,
//     reading level, structure flags)
//
// Built on goquery with charset-aware HTML loading. The scorer and the
// text stages work on the parsed document; the summariser, chunker and
// enricher are DOM-free and operate on plain strings.
package extract
