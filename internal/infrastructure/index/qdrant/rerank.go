package qdrant

import (
	"sort"
	"strings"
)

// rerankScores computes a blended relevance score per candidate from the
// normalized first-stage score, query/content token overlap, and a title hit.
// Input order is the first-stage ranking; output is the reranked order of the
// same candidates expressed as indices into the input.
type rerankInput struct {
	Score      float64
	Content    string
	SemanticID string
}

func rerankCandidates(question string, candidates []rerankInput) ([]int, []float64) {
	if len(candidates) == 0 {
		return nil, nil
	}
	queryTokens := toTokenSet(question)

	minScore := candidates[0].Score
	maxScore := candidates[0].Score
	for _, c := range candidates[1:] {
		if c.Score < minScore {
			minScore = c.Score
		}
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	rangeScore := maxScore - minScore
	normalize := func(v float64) float64 {
		if rangeScore <= 0 {
			if v > 0 {
				return 1
			}
			return 0
		}
		return (v - minScore) / rangeScore
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		overlap := tokenOverlap(queryTokens, toTokenSet(c.Content))
		titleBoost := titleTokenHit(queryTokens, c.SemanticID)
		scores[i] = 0.60*normalize(c.Score) + 0.30*overlap + 0.10*titleBoost
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})
	return order, scores
}

func tokenOverlap(query, chunk map[string]struct{}) float64 {
	if len(query) == 0 || len(chunk) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := chunk[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func titleTokenHit(query map[string]struct{}, semanticID string) float64 {
	if len(query) == 0 || semanticID == "" {
		return 0
	}
	semanticID = strings.ToLower(semanticID)
	for token := range query {
		if token == "" {
			continue
		}
		if strings.Contains(semanticID, token) {
			return 1
		}
	}
	return 0
}

func toTokenSet(s string) map[string]struct{} {
	tokens := tokenizeAlphaNum(s)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}
