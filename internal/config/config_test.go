package config

import (
	"testing"
	"time"
)

func TestLoadPipelineDefaults(t *testing.T) {
	t.Setenv("DISABLE_GENERATION", "")
	t.Setenv("GENERATION_TIMEOUT", "")
	t.Setenv("ANSWER_TOKEN_BUDGET", "")
	t.Setenv("REFLEXION_ENABLED", "")
	t.Setenv("MAX_STOPWORD_PERCENT", "")

	cfg := Load()
	if cfg.DisableGeneration {
		t.Fatalf("expected generation enabled by default")
	}
	if cfg.GenerationTimeout != 30*time.Second {
		t.Fatalf("expected default generation timeout 30s, got %v", cfg.GenerationTimeout)
	}
	if cfg.AnswerTokenBudget != 1536 {
		t.Fatalf("expected default token budget 1536, got %d", cfg.AnswerTokenBudget)
	}
	if !cfg.ReflexionEnabled {
		t.Fatalf("expected reflexion enabled by default")
	}
	if cfg.MaxStopwordPercent != 0.30 {
		t.Fatalf("expected default stopword percent 0.30, got %f", cfg.MaxStopwordPercent)
	}
}

func TestLoadParsesPipelineOverrides(t *testing.T) {
	t.Setenv("DISABLE_GENERATION", "true")
	t.Setenv("GENERATION_TIMEOUT", "45s")
	t.Setenv("ANSWER_TOKEN_BUDGET", "2048")
	t.Setenv("SEARCH_RERANK_TOP_N", "8")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")

	cfg := Load()
	if !cfg.DisableGeneration {
		t.Fatalf("expected generation disabled")
	}
	if cfg.GenerationTimeout != 45*time.Second {
		t.Fatalf("expected generation timeout 45s, got %v", cfg.GenerationTimeout)
	}
	if cfg.AnswerTokenBudget != 2048 {
		t.Fatalf("expected token budget 2048, got %d", cfg.AnswerTokenBudget)
	}
	if cfg.SearchRerankTopN != 8 {
		t.Fatalf("expected rerank top n 8, got %d", cfg.SearchRerankTopN)
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %f", cfg.RateLimitPerSecond)
	}
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("GENERATION_TIMEOUT", "soon")
	t.Setenv("ANSWER_TOKEN_BUDGET", "many")

	cfg := Load()
	if cfg.GenerationTimeout != 30*time.Second {
		t.Fatalf("expected fallback timeout, got %v", cfg.GenerationTimeout)
	}
	if cfg.AnswerTokenBudget != 1536 {
		t.Fatalf("expected fallback budget, got %d", cfg.AnswerTokenBudget)
	}
}
