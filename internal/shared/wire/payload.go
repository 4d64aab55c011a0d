package wire

// Output formats for get_context.
const (
	FormatText       = "text"
	FormatStructured = "structured"
	FormatBoth       = "both"
)

// Extraction method tags carried in bundle metadata.
const (
	MethodPipeline = "pipeline"
	MethodFallback = "fallback"
)

// Link is a ranked outbound link.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Chunk is one structured content block of a chunked bundle.
type Chunk struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// BundleMetadata is the compact metadata block of a context bundle.
type BundleMetadata struct {
	WordCount        int    `json:"wordCount"`
	ReadingTime      string `json:"readingTime"`
	ContentQuality   string `json:"contentQuality"`
	Format           string `json:"format"`
	ExtractionMethod string `json:"extractionMethod,omitempty"`
}

// ContextBundle is the success payload of get_context and get_content.
type ContextBundle struct {
	URL       string         `json:"url"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Links     []Link         `json:"links"`
	Selection string         `json:"selection"`
	Metadata  BundleMetadata `json:"metadata"`
	Chunks    []Chunk        `json:"chunks,omitempty"`
}

// LinksPayload is the success payload of get_links.
type LinksPayload struct {
	Links []Link `json:"links"`
}

// SelectionPayload is the success payload of get_selection.
type SelectionPayload struct {
	Selection          string `json:"selection"`
	SurroundingContext string `json:"surroundingContext"`
	HasSelection       bool   `json:"hasSelection"`
	ExtractionMethod   string `json:"extractionMethod,omitempty"`
}

// StructureInfo describes the document structure of extracted content.
type StructureInfo struct {
	HasHeadings    bool     `json:"hasHeadings"`
	HasSubheadings bool     `json:"hasSubheadings"`
	HasLists       bool     `json:"hasLists"`
	HasLinks       bool     `json:"hasLinks"`
	HasCode        bool     `json:"hasCode"`
	HeadingLevels  []int    `json:"headingLevels"`
	ListTypes      []string `json:"listTypes"`
	LinkCount      int      `json:"linkCount"`
}

// MetadataPayload is the success payload of get_metadata.
type MetadataPayload struct {
	WordCount        int           `json:"wordCount"`
	ReadingTime      string        `json:"readingTime"`
	Quality          string        `json:"quality"`
	ContentType      string        `json:"contentType"`
	ReadingLevel     string        `json:"readingLevel"`
	Structure        StructureInfo `json:"structure"`
	ExtractionMethod string        `json:"extractionMethod,omitempty"`
}
