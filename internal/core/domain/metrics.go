package domain

import "time"

// ChunkRank records where a single chunk landed during retrieval or rerank.
type ChunkRank struct {
	DocumentID string
	Rank       int
	Score      float64
}

// RetrievalMetrics is the instrumentation payload emitted by the document
// index after first-stage retrieval.
type RetrievalMetrics struct {
	Chunks   []ChunkRank
	Duration time.Duration
}

// RerankMetrics is emitted after the reranking pass.
type RerankMetrics struct {
	Chunks   []ChunkRank
	Duration time.Duration
}

// LLMMetrics is emitted by a generative model call. Token counts are
// estimates when the provider does not report usage.
type LLMMetrics struct {
	PromptTokens   int
	ResponseTokens int
	Duration       time.Duration
}
