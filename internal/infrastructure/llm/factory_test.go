package llm

import (
	"testing"
	"time"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
	"github.com/mkovalev/qa-assistant/internal/infrastructure/llm/ollama"
)

func TestAcquireUnknownProvider(t *testing.T) {
	factory := NewFactory(Config{Provider: "mystery"}, nil)

	_, err := factory.Acquire(time.Second, true)
	if !domain.IsKind(err, domain.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestAcquireOpenAIWithoutKey(t *testing.T) {
	factory := NewFactory(Config{Provider: ProviderOpenAI, RealTimeModel: "gpt-4o-mini"}, nil)

	_, err := factory.Acquire(time.Second, true)
	if !domain.IsKind(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestAcquireOpenAIWithKey(t *testing.T) {
	factory := NewFactory(Config{
		Provider:      ProviderOpenAI,
		RealTimeModel: "gpt-4o-mini",
		BatchModel:    "gpt-4o",
		OpenAIKey:     "sk-test",
	}, nil)

	model, err := factory.Acquire(time.Second, false)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if model == nil {
		t.Fatalf("expected model")
	}
}

func TestAcquireOllama(t *testing.T) {
	client := ollama.New("http://localhost:11434", "llama3", "nomic-embed-text", nil)
	factory := NewFactory(Config{Provider: ProviderOllama}, client)

	model, err := factory.Acquire(time.Second, true)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if model == nil {
		t.Fatalf("expected model")
	}
}

func TestAcquireOllamaWithoutClient(t *testing.T) {
	factory := NewFactory(Config{Provider: ProviderOllama}, nil)

	_, err := factory.Acquire(time.Second, true)
	if !domain.IsKind(err, domain.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}
