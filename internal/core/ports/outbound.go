package ports

import (
	"context"
	"time"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

// SearchCallbacks are optional instrumentation hooks invoked synchronously
// by the document index. Their absence or failure never changes control flow.
type SearchCallbacks struct {
	Retrieval func(domain.RetrievalMetrics)
	Rerank    func(domain.RerankMetrics)
}

// DocumentIndex performs ranked retrieval over the indexed corpus.
type DocumentIndex interface {
	Search(ctx context.Context, req domain.SearchRequest, callbacks SearchCallbacks) (domain.RankedChunks, error)
}

// AccessResolver computes the access-control list for a caller identity.
// An empty user ID denotes an anonymous/system context and yields an
// unrestricted (nil) list.
type AccessResolver interface {
	ResolveACL(ctx context.Context, userID string) ([]string, error)
}

// TimeFilterExtractor derives an optional time cutoff and a favor-recent
// hint from the query text.
type TimeFilterExtractor interface {
	Extract(query string) (*time.Time, bool)
}

// QueryEventStore persists the audit trail of queries and their retrieved
// documents.
type QueryEventStore interface {
	CreateEvent(ctx context.Context, query string, mode domain.SearchMode, userID string) (string, error)
	UpdateRetrieved(ctx context.Context, eventID string, documentIDs []string, userID string) error
}

// QAModel answers a question from the supplied chunks.
type QAModel interface {
	AnswerQuestion(ctx context.Context, query string, chunks []domain.Chunk, metricsCallback func(domain.LLMMetrics)) (*domain.GeneratedAnswer, error)
}

// ModelProvider acquires a configured generative model handle. Acquisition
// fails with domain.ErrUnknownModel or domain.ErrMissingCredential.
type ModelProvider interface {
	Acquire(timeout time.Duration, realTime bool) (QAModel, error)
}

// AnswerValidator judges whether a generated answer is responsive to the
// query (reflexion pass).
type AnswerValidator interface {
	Validate(ctx context.Context, query, answer string) (bool, error)
}

// IntentModel produces per-class probabilities for the query intent.
type IntentModel interface {
	ClassProbabilities(ctx context.Context, query string) (domain.IntentProbabilities, error)
}

// Tokenizer is the reference tokenizer used for lexical heuristics. Tokens
// the tokenizer cannot represent map to UnknownToken.
type Tokenizer interface {
	Tokenize(text string) []string
	UnknownToken() string
}

// StopwordFilter removes stop words from a word list.
type StopwordFilter interface {
	Remove(words []string) []string
}

// DeferredQueue carries questions answered outside the real-time flow.
type DeferredQueue interface {
	PublishQuestion(ctx context.Context, job domain.DeferredQuestion) error
	SubscribeQuestions(ctx context.Context, handler func(context.Context, domain.DeferredQuestion) error) error
}

// Embedder builds the query vector for semantic retrieval.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
