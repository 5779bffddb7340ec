package ollama

import (
	"fmt"
	"strings"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

func buildAnswerPrompt(question string, chunks []domain.Chunk) string {
	var contextBuilder strings.Builder
	for idx, chunk := range chunks {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] source=%s title=%s\n%s\n\n",
			idx+1,
			chunk.SourceType,
			chunk.SemanticID,
			chunk.Content,
		))
	}

	return fmt.Sprintf(`Answer the user question using only the context below.
Return a strict JSON object with keys:
answer (string, or "?" if the context is insufficient),
quotes (array of verbatim strings copied from the context that support the answer).
No markdown, no extra keys.

Question:
%s

Context:
%s
`, question, contextBuilder.String())
}

func buildIntentPrompt(query string) string {
	return `Classify the user query into retrieval intents.
Return a strict JSON object with integer percentage keys that sum to 100:
keyword (short lookup phrased as search terms),
semantic (conceptual search phrased in natural language),
question_answer (a direct question expecting an answer).
No markdown, no extra keys.

Query:
` + query
}

func buildValidationPrompt(query, answer string) string {
	return fmt.Sprintf(`Judge whether the answer actually addresses the question.
Return a strict JSON object with a single boolean key: valid.
No markdown, no extra keys.

Question:
%s

Answer:
%s
`, query, answer)
}
