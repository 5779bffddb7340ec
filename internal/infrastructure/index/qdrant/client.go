package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
	"github.com/mkovalev/qa-assistant/internal/core/ports"
)

const (
	denseVectorName  = "content"
	sparseVectorName = "content-sparse"

	defaultCandidateLimit = 50
	defaultRerankTopN     = 15

	recencyDecayPerYear = 0.5
)

// Config tunes retrieval depth and the size of the reranked head.
type Config struct {
	Collection string
	Limit      int
	RerankTopN int
	RRFK       int
}

// Client searches a Qdrant collection holding one point per document chunk,
// with a dense vector for semantic retrieval and a hashed sparse vector for
// keyword retrieval.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	embedder   ports.Embedder

	limit      int
	rerankTopN int
	rrfK       int
	now        func() time.Time
}

func New(baseURL string, cfg Config, embedder ports.Embedder) *Client {
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}
	topN := cfg.RerankTopN
	if topN <= 0 {
		topN = defaultRerankTopN
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: cfg.Collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		embedder:   embedder,
		limit:      limit,
		rerankTopN: topN,
		rrfK:       cfg.RRFK,
		now:        time.Now,
	}
}

// Search runs keyword or semantic retrieval per the request mode. Keyword
// mode is a single sparse pass; semantic mode fuses dense and sparse
// candidates and reranks the head. Callbacks fire after each stage.
func (c *Client) Search(
	ctx context.Context,
	req domain.SearchRequest,
	callbacks ports.SearchCallbacks,
) (domain.RankedChunks, error) {
	filter := buildFilter(req.Filters)

	started := c.now()
	candidates, err := c.firstStage(ctx, req, filter)
	if err != nil {
		return domain.RankedChunks{}, err
	}
	if req.FavorRecent {
		c.applyRecencyBoost(candidates)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})
	}
	candidates = trimCandidates(candidates, c.limit)
	emitRetrievalMetrics(callbacks, candidates, c.now().Sub(started))

	if req.Mode == domain.SearchModeKeyword {
		return domain.RankedChunks{Ranked: candidates}, nil
	}

	rerankStart := c.now()
	ranked, unranked := c.rerankHead(req.Query, candidates)
	emitRerankMetrics(callbacks, ranked, c.now().Sub(rerankStart))

	return domain.RankedChunks{Ranked: ranked, Unranked: unranked}, nil
}

func (c *Client) firstStage(ctx context.Context, req domain.SearchRequest, filter map[string]any) ([]domain.Chunk, error) {
	sparse, err := c.searchSparse(ctx, req.Query, filter)
	if err != nil {
		return nil, err
	}
	if req.Mode == domain.SearchModeKeyword {
		return sparse, nil
	}

	vector, err := c.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	dense, err := c.searchDense(ctx, vector, filter)
	if err != nil {
		return nil, err
	}
	return fuseCandidatesRRF(dense, sparse, c.rrfK), nil
}

func (c *Client) rerankHead(query string, candidates []domain.Chunk) (ranked, unranked []domain.Chunk) {
	if len(candidates) == 0 {
		return nil, nil
	}
	topN := c.rerankTopN
	if topN > len(candidates) {
		topN = len(candidates)
	}

	inputs := make([]rerankInput, topN)
	for i, chunk := range candidates[:topN] {
		inputs[i] = rerankInput{Score: chunk.Score, Content: chunk.Content, SemanticID: chunk.SemanticID}
	}
	order, scores := rerankCandidates(query, inputs)

	ranked = make([]domain.Chunk, 0, topN)
	for _, idx := range order {
		chunk := candidates[idx]
		chunk.Score = scores[idx]
		ranked = append(ranked, chunk)
	}
	if topN < len(candidates) {
		unranked = append(unranked, candidates[topN:]...)
	}
	return ranked, unranked
}

func (c *Client) applyRecencyBoost(chunks []domain.Chunk) {
	now := c.now()
	for i := range chunks {
		if chunks[i].UpdatedAt == nil {
			continue
		}
		ageYears := now.Sub(*chunks[i].UpdatedAt).Hours() / (24 * 365)
		if ageYears < 0 {
			ageYears = 0
		}
		chunks[i].Score /= 1 + recencyDecayPerYear*ageYears
	}
}

func (c *Client) searchDense(ctx context.Context, vector []float32, filter map[string]any) ([]domain.Chunk, error) {
	body := map[string]any{
		"vector":       map[string]any{"name": denseVectorName, "vector": vector},
		"limit":        c.limit,
		"with_payload": true,
	}
	if filter != nil {
		body["filter"] = filter
	}
	return c.searchPoints(ctx, body)
}

func (c *Client) searchSparse(ctx context.Context, query string, filter map[string]any) ([]domain.Chunk, error) {
	sparse := encodeSparseQuery(query)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}
	body := map[string]any{
		"vector":       map[string]any{"name": sparseVectorName, "vector": sparse},
		"limit":        c.limit,
		"with_payload": true,
	}
	if filter != nil {
		body["filter"] = filter
	}
	return c.searchPoints(ctx, body)
}

func (c *Client) searchPoints(ctx context.Context, reqBody map[string]any) ([]domain.Chunk, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.Chunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, payloadToChunk(r.Payload, r.Score))
	}
	return out, nil
}

func buildFilter(filters domain.Filters) map[string]any {
	must := make([]map[string]any, 0, 4)
	if len(filters.SourceTypes) > 0 {
		must = append(must, map[string]any{
			"key":   "source_type",
			"match": map[string]any{"any": filters.SourceTypes},
		})
	}
	if len(filters.DocumentSets) > 0 {
		must = append(must, map[string]any{
			"key":   "document_sets",
			"match": map[string]any{"any": filters.DocumentSets},
		})
	}
	if filters.AccessControlList != nil {
		must = append(must, map[string]any{
			"key":   "access",
			"match": map[string]any{"any": filters.AccessControlList},
		})
	}
	if filters.TimeCutoff != nil {
		must = append(must, map[string]any{
			"key":   "updated_at_ts",
			"range": map[string]any{"gte": filters.TimeCutoff.Unix()},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func payloadToChunk(payload map[string]any, score float64) domain.Chunk {
	chunk := domain.Chunk{
		DocumentID: getStringPayload(payload, "document_id"),
		SemanticID: getStringPayload(payload, "semantic_id"),
		Content:    getStringPayload(payload, "content"),
		Link:       getStringPayload(payload, "link"),
		SourceType: getStringPayload(payload, "source_type"),
		Score:      score,
	}
	if v, ok := payload["token_count"].(float64); ok && v > 0 {
		chunk.TokenCount = int(v)
	} else {
		// Rough character heuristic when the indexer did not store a count.
		chunk.TokenCount = len(chunk.Content) / 4
	}
	if v, ok := payload["ignore_for_qa"].(bool); ok {
		chunk.IgnoreForQA = v
	}
	if raw := getStringPayload(payload, "updated_at"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			chunk.UpdatedAt = &t
		}
	}
	if meta, ok := payload["metadata"].(map[string]any); ok && len(meta) > 0 {
		chunk.Metadata = make(map[string]string, len(meta))
		for k, v := range meta {
			if s, ok := v.(string); ok {
				chunk.Metadata[k] = s
			}
		}
	}
	return chunk
}

func emitRetrievalMetrics(callbacks ports.SearchCallbacks, chunks []domain.Chunk, elapsed time.Duration) {
	if callbacks.Retrieval == nil {
		return
	}
	callbacks.Retrieval(domain.RetrievalMetrics{Chunks: chunkRanks(chunks), Duration: elapsed})
}

func emitRerankMetrics(callbacks ports.SearchCallbacks, chunks []domain.Chunk, elapsed time.Duration) {
	if callbacks.Rerank == nil {
		return
	}
	callbacks.Rerank(domain.RerankMetrics{Chunks: chunkRanks(chunks), Duration: elapsed})
}

func chunkRanks(chunks []domain.Chunk) []domain.ChunkRank {
	out := make([]domain.ChunkRank, 0, len(chunks))
	for i, chunk := range chunks {
		out = append(out, domain.ChunkRank{DocumentID: chunk.DocumentID, Rank: i, Score: chunk.Score})
	}
	return out
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
