package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

const noAnswerMarker = "?"

// AnswerModel generates an answer with supporting quotes from retrieved
// chunks.
type AnswerModel struct {
	client  *Client
	timeout time.Duration
	now     func() time.Time
}

func NewAnswerModel(client *Client, timeout time.Duration) *AnswerModel {
	return &AnswerModel{client: client, timeout: timeout, now: time.Now}
}

func (m *AnswerModel) AnswerQuestion(
	ctx context.Context,
	query string,
	chunks []domain.Chunk,
	metricsCallback func(domain.LLMMetrics),
) (*domain.GeneratedAnswer, error) {
	started := m.now()
	raw, stats, err := m.client.generateJSON(ctx, buildAnswerPrompt(query, chunks), m.timeout)
	if metricsCallback != nil {
		metricsCallback(domain.LLMMetrics{
			PromptTokens:   stats.PromptTokens,
			ResponseTokens: stats.ResponseTokens,
			Duration:       m.now().Sub(started),
		})
	}
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Answer string   `json:"answer"`
		Quotes []string `json:"quotes"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
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

// matchQuotesToChunks attributes each model quote to the first chunk whose
// content contains it. Quotes the model invented are dropped.
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

// Classifier asks the generative model for intent class percentages.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) ClassProbabilities(ctx context.Context, query string) (domain.IntentProbabilities, error) {
	raw, _, err := c.client.generateJSON(ctx, buildIntentPrompt(query), 0)
	if err != nil {
		return domain.IntentProbabilities{}, err
	}

	var result domain.IntentProbabilities
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &result); err != nil {
		return domain.IntentProbabilities{}, fmt.Errorf("parse intent json: %w", err)
	}
	return result, nil
}

// Validator runs the reflexion pass over a generated answer.
type Validator struct {
	client *Client
}

func NewValidator(client *Client) *Validator {
	return &Validator{client: client}
}

func (v *Validator) Validate(ctx context.Context, query, answer string) (bool, error) {
	raw, _, err := v.client.generateJSON(ctx, buildValidationPrompt(query, answer), 0)
	if err != nil {
		return false, err
	}

	var result struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &result); err != nil {
		return false, fmt.Errorf("parse validation json: %w", err)
	}
	return result.Valid, nil
}
