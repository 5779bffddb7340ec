package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

const noAnswerMarker = "?"

// AnswerModel answers questions through the OpenAI chat completion API.
type AnswerModel struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	now     func() time.Time
}

func NewAnswerModel(apiKey, model string, timeout time.Duration) *AnswerModel {
	return &AnswerModel{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
		now:     time.Now,
	}
}

func (m *AnswerModel) AnswerQuestion(
	ctx context.Context,
	query string,
	chunks []domain.Chunk,
	metricsCallback func(domain.LLMMetrics),
) (*domain.GeneratedAnswer, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	started := m.now()
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(query, chunks)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if metricsCallback != nil {
		metrics := domain.LLMMetrics{Duration: m.now().Sub(started)}
		if err == nil {
			metrics.PromptTokens = resp.Usage.PromptTokens
			metrics.ResponseTokens = resp.Usage.CompletionTokens
		}
		metricsCallback(metrics)
	}
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat completion: empty choices")
	}

	var parsed struct {
		Answer string   `json:"answer"`
		Quotes []string `json:"quotes"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse answer json: %w", err)
	}

	result := &domain.GeneratedAnswer{
		Quotes: matchQuotesToChunks(parsed.Quotes, chunks),
	}
	answer := strings.TrimSpace(parsed.Answer)
	if answer != "" && answer != noAnswerMarker {
		result.Answer = &answer
	}
	return result, nil
}

const systemPrompt = `You answer questions using only the provided context.
Respond with a strict JSON object:
answer (string, or "?" if the context is insufficient),
quotes (array of verbatim strings copied from the context).`

func buildUserPrompt(query string, chunks []domain.Chunk) string {
	var b strings.Builder
	b.WriteString("Question:\n")
	b.WriteString(query)
	b.WriteString("\n\nContext:\n")
	for idx, chunk := range chunks {
		fmt.Fprintf(&b, "[%d] source=%s title=%s\n%s\n\n", idx+1, chunk.SourceType, chunk.SemanticID, chunk.Content)
	}
	return b.String()
}

func matchQuotesToChunks(quotes []string, chunks []domain.Chunk) []domain.Quote {
	out := make([]domain.Quote, 0, len(quotes))
	for _, quote := range quotes {
		quote = strings.TrimSpace(quote)
		if quote == "" {
			continue
		}
		for _, chunk := range chunks {
			if !strings.Contains(chunk.Content, quote) {
				continue
			}
			out = append(out, domain.Quote{
				Quote:      quote,
				DocumentID: chunk.DocumentID,
				SemanticID: chunk.SemanticID,
				Link:       chunk.Link,
				SourceType: chunk.SourceType,
			})
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
