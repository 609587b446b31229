package models

// ChunkType tags a decoded stream line.
type ChunkType string

const (
	ChunkTool      ChunkType = "tool"
	ChunkTextDelta ChunkType = "text-delta"
	// ChunkRaw marks a line that was not JSON and is forwarded verbatim.
	ChunkRaw ChunkType = "raw"
)

// StreamChunk is one decoded line of a chunked upstream response.
type StreamChunk struct {
	Type  ChunkType `json:"type"`
	Value string    `json:"value"`
}

// ResearchResult is one case-law record extracted from tool output.
type ResearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      string `json:"source"`
	Excerpts    string `json:"excerpts"`
}

// ResearchQuery holds the inputs of a case-law research session.
type ResearchQuery struct {
	Query           string `json:"query"`
	Jurisdiction    string `json:"jurisdiction"`
	TimeFrame       string `json:"timeFrame"`
	Sources         string `json:"sources"`
	IncludeKeywords string `json:"includeKeywords"`
	ExcludeKeywords string `json:"excludeKeywords"`
}

// DocumentRequest holds the inputs of a generated legal document.
type DocumentRequest struct {
	DocName string `json:"docName"`
	Purpose string `json:"purpose"`
	Law     string `json:"law"`
}

// DocumentReview is the outcome of reviewing a document for one party.
type DocumentReview struct {
	Party  string `json:"party"`
	Review string `json:"review"`
}
