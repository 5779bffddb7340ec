package llm

import (
	"errors"
	"fmt"
	"time"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
	"github.com/mkovalev/qa-assistant/internal/core/ports"
	"github.com/mkovalev/qa-assistant/internal/infrastructure/llm/ollama"
	"github.com/mkovalev/qa-assistant/internal/infrastructure/llm/openai"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config selects the generative backend. RealTimeModel serves interactive
// requests, BatchModel the deferred queue; either may name the same model.
type Config struct {
	Provider      string
	RealTimeModel string
	BatchModel    string
	OpenAIKey     string
}

// Factory hands out configured answer models. Acquisition fails with
// domain.ErrUnknownModel for an unrecognized provider and
// domain.ErrMissingCredential when the provider needs a key that is absent.
type Factory struct {
	cfg    Config
	ollama *ollama.Client
}

func NewFactory(cfg Config, ollamaClient *ollama.Client) *Factory {
	return &Factory{cfg: cfg, ollama: ollamaClient}
}

func (f *Factory) Acquire(timeout time.Duration, realTime bool) (ports.QAModel, error) {
	model := f.cfg.BatchModel
	if realTime {
		model = f.cfg.RealTimeModel
	}

	switch f.cfg.Provider {
	case ProviderOllama:
		if f.ollama == nil {
			return nil, domain.WrapError(domain.ErrUnknownModel, "acquire model", errors.New("ollama backend not configured"))
		}
		return ollama.NewAnswerModel(f.ollama, timeout), nil
	case ProviderOpenAI:
		if f.cfg.OpenAIKey == "" {
			return nil, domain.WrapError(domain.ErrMissingCredential, "acquire model", errors.New("openai api key not set"))
		}
		return openai.NewAnswerModel(f.cfg.OpenAIKey, model, timeout), nil
	default:
		return nil, domain.WrapError(domain.ErrUnknownModel, "acquire model", fmt.Errorf("provider %q", f.cfg.Provider))
	}
}
