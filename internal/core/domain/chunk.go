package domain

import "time"

// Chunk is a retrievable unit of document content with its relevance score
// and a token estimate for generation budgeting.
type Chunk struct {
	DocumentID string            `json:"document_id"`
	SemanticID string            `json:"semantic_identifier"`
	Content    string            `json:"content"`
	Link       string            `json:"link,omitempty"`
	SourceType string            `json:"source_type,omitempty"`
	Score      float64           `json:"score"`
	TokenCount int               `json:"token_count"`
	IgnoreForQA bool             `json:"ignore_for_qa,omitempty"`
	UpdatedAt  *time.Time        `json:"updated_at,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// RankedChunks splits index results into chunks that passed the relevance
// threshold and those returned below it. Slice order is the ranking order.
type RankedChunks struct {
	Ranked   []Chunk
	Unranked []Chunk
}

// SearchDoc is the display view of a retrieved chunk.
type SearchDoc struct {
	DocumentID string  `json:"document_id"`
	SemanticID string  `json:"semantic_identifier"`
	Link       string  `json:"link,omitempty"`
	SourceType string  `json:"source_type,omitempty"`
	Blurb      string  `json:"blurb,omitempty"`
	Score      float64 `json:"score"`
}

const searchDocBlurbLimit = 200

// ChunksToSearchDocs maps chunks to their display view, preserving order.
func ChunksToSearchDocs(chunks []Chunk) []SearchDoc {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]SearchDoc, 0, len(chunks))
	for _, chunk := range chunks {
		blurb := chunk.Content
		if len(blurb) > searchDocBlurbLimit {
			blurb = blurb[:searchDocBlurbLimit]
		}
		docs = append(docs, SearchDoc{
			DocumentID: chunk.DocumentID,
			SemanticID: chunk.SemanticID,
			Link:       chunk.Link,
			SourceType: chunk.SourceType,
			Blurb:      blurb,
			Score:      chunk.Score,
		})
	}
	return docs
}
