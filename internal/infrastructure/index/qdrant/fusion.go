package qdrant

import (
	"fmt"
	"sort"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

type fusedCandidate struct {
	chunk domain.Chunk
	score float64
}

// fuseCandidatesRRF merges a dense and a sparse candidate list with
// reciprocal-rank fusion. Ties break on identity fields so the result is
// deterministic regardless of map iteration order.
func fuseCandidatesRRF(dense, sparse []domain.Chunk, rrfK int) []domain.Chunk {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]fusedCandidate, len(dense)+len(sparse))
	order := make([]string, 0, len(dense)+len(sparse))
	addList := func(chunks []domain.Chunk) {
		for rank, chunk := range chunks {
			key := chunkKey(chunk)
			candidate, seen := acc[key]
			if !seen {
				order = append(order, key)
				candidate.chunk = chunk
			}
			candidate.score += 1.0 / float64(rrfK+rank+1)
			acc[key] = candidate
		}
	}

	addList(dense)
	addList(sparse)

	out := make([]domain.Chunk, 0, len(acc))
	for _, key := range order {
		c := acc[key]
		chunk := c.chunk
		chunk.Score = c.score
		out = append(out, chunk)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].SemanticID < out[j].SemanticID
	})

	return out
}

func trimCandidates(chunks []domain.Chunk, limit int) []domain.Chunk {
	if limit <= 0 || len(chunks) <= limit {
		return chunks
	}
	return chunks[:limit]
}

func chunkKey(chunk domain.Chunk) string {
	if chunk.DocumentID != "" && chunk.SemanticID != "" {
		return fmt.Sprintf("%s:%s", chunk.DocumentID, chunk.SemanticID)
	}
	return fmt.Sprintf("%s|%s|%s", chunk.DocumentID, chunk.SemanticID, chunk.Content)
}
