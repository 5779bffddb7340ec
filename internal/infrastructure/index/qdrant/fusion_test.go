package qdrant

import (
	"testing"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

func chunk(docID, semanticID string, score float64) domain.Chunk {
	return domain.Chunk{DocumentID: docID, SemanticID: semanticID, Content: "text " + docID, Score: score}
}

func TestFuseCandidatesRRFPrefersOverlap(t *testing.T) {
	dense := []domain.Chunk{chunk("d1", "c1", 0.9), chunk("d2", "c2", 0.8)}
	sparse := []domain.Chunk{chunk("d3", "c3", 5.0), chunk("d1", "c1", 4.0)}

	fused := fuseCandidatesRRF(dense, sparse, 60)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused candidates, got %d", len(fused))
	}
	if fused[0].DocumentID != "d1" {
		t.Fatalf("expected d1 first, got %s", fused[0].DocumentID)
	}
}

func TestFuseCandidatesRRFIsDeterministic(t *testing.T) {
	dense := []domain.Chunk{chunk("d1", "c1", 0.9), chunk("d2", "c2", 0.8)}
	sparse := []domain.Chunk{chunk("d3", "c3", 5.0), chunk("d4", "c4", 4.0)}

	first := fuseCandidatesRRF(dense, sparse, 60)
	for i := 0; i < 20; i++ {
		again := fuseCandidatesRRF(dense, sparse, 60)
		for j := range first {
			if again[j].DocumentID != first[j].DocumentID {
				t.Fatalf("run %d: order changed at %d: %s vs %s", i, j, again[j].DocumentID, first[j].DocumentID)
			}
		}
	}
}

func TestTrimCandidates(t *testing.T) {
	chunks := []domain.Chunk{chunk("d1", "c1", 1), chunk("d2", "c2", 2), chunk("d3", "c3", 3)}
	if got := trimCandidates(chunks, 2); len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got := trimCandidates(chunks, 0); len(got) != 3 {
		t.Fatalf("expected unlimited to keep all, got %d", len(got))
	}
}

func TestRerankCandidatesBoostsContentOverlap(t *testing.T) {
	inputs := []rerankInput{
		{Score: 1.0, Content: "completely unrelated text", SemanticID: "misc.txt"},
		{Score: 0.95, Content: "kafka consumer lag runbook steps", SemanticID: "kafka-runbook"},
	}
	order, scores := rerankCandidates("kafka consumer lag", inputs)
	if len(order) != 2 {
		t.Fatalf("expected 2 results, got %d", len(order))
	}
	if order[0] != 1 {
		t.Fatalf("expected overlapping candidate promoted, got order %v scores %v", order, scores)
	}
}

func TestRerankCandidatesKeepsOrderWithoutSignal(t *testing.T) {
	inputs := []rerankInput{
		{Score: 1.0, Content: "alpha", SemanticID: "a"},
		{Score: 0.5, Content: "beta", SemanticID: "b"},
	}
	order, _ := rerankCandidates("zzz qqq", inputs)
	if order[0] != 0 || order[1] != 1 {
		t.Fatalf("expected stable order, got %v", order)
	}
}
