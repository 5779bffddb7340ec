package usecase

import (
	"testing"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

func chunkWithTokens(id string, tokens int) domain.Chunk {
	return domain.Chunk{DocumentID: id, SemanticID: id, TokenCount: tokens}
}

func TestSelectUsableChunksStopsAtFirstOverflow(t *testing.T) {
	chunks := []domain.Chunk{
		chunkWithTokens("a", 100),
		chunkWithTokens("b", 200),
		chunkWithTokens("c", 500),
		chunkWithTokens("d", 50),
	}

	usable := SelectUsableChunks(chunks, 400, 0)
	if len(usable) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(usable))
	}
	if usable[0].DocumentID != "a" || usable[1].DocumentID != "b" {
		t.Fatalf("expected prefix [a b], got %v", usable)
	}
}

func TestSelectUsableChunksDoesNotSkipAheadToSmallerChunk(t *testing.T) {
	chunks := []domain.Chunk{
		chunkWithTokens("a", 300),
		chunkWithTokens("b", 500),
		chunkWithTokens("c", 10),
	}

	usable := SelectUsableChunks(chunks, 400, 0)
	if len(usable) != 1 || usable[0].DocumentID != "a" {
		t.Fatalf("expected strict prefix [a], got %v", usable)
	}
}

func TestSelectUsableChunksReturnsOversizedFirstChunk(t *testing.T) {
	chunks := []domain.Chunk{
		chunkWithTokens("big", 9000),
		chunkWithTokens("small", 10),
	}

	usable := SelectUsableChunks(chunks, 400, 0)
	if len(usable) != 1 || usable[0].DocumentID != "big" {
		t.Fatalf("expected oversized first chunk alone, got %v", usable)
	}
}

func TestSelectUsableChunksHonorsOffset(t *testing.T) {
	chunks := []domain.Chunk{
		chunkWithTokens("a", 100),
		chunkWithTokens("b", 100),
		chunkWithTokens("c", 100),
	}

	usable := SelectUsableChunks(chunks, 400, 1)
	if len(usable) != 2 {
		t.Fatalf("expected 2 chunks after offset, got %d", len(usable))
	}
	if usable[0].DocumentID != "b" || usable[1].DocumentID != "c" {
		t.Fatalf("expected [b c], got %v", usable)
	}
}

func TestSelectUsableChunksOffsetPastEndIsEmpty(t *testing.T) {
	chunks := []domain.Chunk{chunkWithTokens("a", 100)}

	if usable := SelectUsableChunks(chunks, 400, 1); usable != nil {
		t.Fatalf("expected nil, got %v", usable)
	}
	if usable := SelectUsableChunks(nil, 400, 0); usable != nil {
		t.Fatalf("expected nil for empty input, got %v", usable)
	}
}

func TestSelectUsableChunksIsDeterministic(t *testing.T) {
	chunks := []domain.Chunk{
		chunkWithTokens("a", 100),
		chunkWithTokens("b", 350),
		chunkWithTokens("c", 100),
	}

	first := SelectUsableChunks(chunks, 400, 0)
	second := SelectUsableChunks(chunks, 400, 0)
	if len(first) != len(second) {
		t.Fatalf("expected identical outputs, got %v and %v", first, second)
	}
	for i := range first {
		if first[i].DocumentID != second[i].DocumentID {
			t.Fatalf("expected identical outputs, got %v and %v", first, second)
		}
	}
}
