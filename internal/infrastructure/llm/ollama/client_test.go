package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

func TestAnswerQuestionParsesAnswerAndAttributesQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		body := map[string]any{
			"response":          `{"answer":"Rotate the key quarterly.","quotes":["keys must be rotated every quarter","made up text"]}`,
			"prompt_eval_count": 120,
			"eval_count":        25,
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	model := NewAnswerModel(New(server.URL, "gen", "embed", nil), 0)
	chunks := []domain.Chunk{{
		DocumentID: "doc-1",
		SemanticID: "security-policy",
		Content:    "All keys must be rotated every quarter without exception.",
	}}

	var metrics *domain.LLMMetrics
	answer, err := model.AnswerQuestion(context.Background(), "how often do we rotate keys?", chunks, func(m domain.LLMMetrics) {
		metrics = &m
	})
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if answer.Answer == nil || *answer.Answer != "Rotate the key quarterly." {
		t.Fatalf("unexpected answer: %v", answer.Answer)
	}
	if len(answer.Quotes) != 1 || answer.Quotes[0].DocumentID != "doc-1" {
		t.Fatalf("expected one attributed quote, got %v", answer.Quotes)
	}
	if metrics == nil || metrics.PromptTokens != 120 || metrics.ResponseTokens != 25 {
		t.Fatalf("unexpected metrics: %v", metrics)
	}
}

func TestAnswerQuestionTreatsQuestionMarkAsNoAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"{\"answer\":\"?\",\"quotes\":[]}"}`))
	}))
	defer server.Close()

	model := NewAnswerModel(New(server.URL, "gen", "embed", nil), 0)
	answer, err := model.AnswerQuestion(context.Background(), "irrelevant?", nil, nil)
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if answer.Answer != nil {
		t.Fatalf("expected nil answer, got %q", *answer.Answer)
	}
}

func TestAnswerPromptIncludesQuestionAndChunks(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"{\"answer\":\"ok\",\"quotes\":[]}"}`))
	}))
	defer server.Close()

	model := NewAnswerModel(New(server.URL, "gen", "embed", nil), 0)
	_, err := model.AnswerQuestion(context.Background(), "what is the oncall rotation?", []domain.Chunk{
		{SemanticID: "oncall-doc", Content: "rotation is weekly"},
	}, nil)
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if !strings.Contains(capturedPrompt, "what is the oncall rotation?") || !strings.Contains(capturedPrompt, "rotation is weekly") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
}

func TestClassifierParsesPercentages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"{\"keyword\":10,\"semantic\":15,\"question_answer\":75}"}`))
	}))
	defer server.Close()

	classifier := NewClassifier(New(server.URL, "gen", "embed", nil))
	probs, err := classifier.ClassProbabilities(context.Background(), "how do I reset my password?")
	if err != nil {
		t.Fatalf("ClassProbabilities() error = %v", err)
	}
	if probs.QuestionAnswer != 75 || probs.Keyword != 10 || probs.Semantic != 15 {
		t.Fatalf("unexpected probabilities: %+v", probs)
	}
}

func TestValidatorParsesVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"{\"valid\":false}"}`))
	}))
	defer server.Close()

	validator := NewValidator(New(server.URL, "gen", "embed", nil))
	valid, err := validator.Validate(context.Background(), "q", "a")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if valid {
		t.Fatalf("expected invalid verdict")
	}
}

func TestEmbedQueryIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed", nil))
	_, err := embedder.EmbedQuery(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
