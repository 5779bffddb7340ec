package usecase

import "github.com/mkovalev/qa-assistant/internal/core/domain"

// SelectUsableChunks picks the maximal ordered prefix of chunks, starting at
// offset, whose cumulative token count fits tokenLimit. Strict prefix policy:
// the walk stops at the first chunk that would exceed the limit, it never
// skips ahead to a smaller chunk that would fit.
//
// When the first eligible chunk alone exceeds the limit it is returned
// anyway, so generation always receives at least one chunk when any are
// available past the offset.
func SelectUsableChunks(chunks []domain.Chunk, tokenLimit, offset int) []domain.Chunk {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(chunks) {
		return nil
	}

	eligible := chunks[offset:]
	total := 0
	usable := make([]domain.Chunk, 0, len(eligible))
	for _, chunk := range eligible {
		if total+chunk.TokenCount > tokenLimit {
			break
		}
		total += chunk.TokenCount
		usable = append(usable, chunk)
	}

	if len(usable) == 0 {
		return eligible[:1]
	}
	return usable
}
