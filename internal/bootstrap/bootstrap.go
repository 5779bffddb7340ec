package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkovalev/qa-assistant/internal/config"
	"github.com/mkovalev/qa-assistant/internal/core/ports"
	"github.com/mkovalev/qa-assistant/internal/core/usecase"
	"github.com/mkovalev/qa-assistant/internal/infrastructure/index/qdrant"
	"github.com/mkovalev/qa-assistant/internal/infrastructure/llm"
	"github.com/mkovalev/qa-assistant/internal/infrastructure/llm/ollama"
	"github.com/mkovalev/qa-assistant/internal/infrastructure/nlp"
	"github.com/mkovalev/qa-assistant/internal/infrastructure/queue/nats"
	"github.com/mkovalev/qa-assistant/internal/infrastructure/repository/postgres"
	"github.com/mkovalev/qa-assistant/internal/infrastructure/resilience"
	"github.com/mkovalev/qa-assistant/internal/observability/logging"
)

type App struct {
	Config config.Config

	Queue    *nats.Queue
	AnswerUC *usecase.AnswerUseCase
	Advisor  ports.SearchAdvisor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	events := postgres.NewQueryEventRepository(db)
	if err := events.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure query event schema: %w", err)
	}
	access := postgres.NewAccessRepository(db)
	if err := access.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure access schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init deferred queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	intentModel := ollama.NewClassifier(ollamaClient)
	validator := ollama.NewValidator(ollamaClient)

	index := qdrant.New(cfg.QdrantURL, qdrant.Config{
		Collection: cfg.QdrantCollection,
		Limit:      cfg.SearchCandidates,
		RerankTopN: cfg.SearchRerankTopN,
		RRFK:       cfg.SearchFusionRRFK,
	}, embedder)

	models := llm.NewFactory(llm.Config{
		Provider:      cfg.LLMProvider,
		RealTimeModel: cfg.LLMRealTimeModel,
		BatchModel:    cfg.LLMBatchModel,
		OpenAIKey:     cfg.OpenAIAPIKey,
	}, ollamaClient)

	tokenizer, err := loadTokenizer(cfg.VocabFile)
	if err != nil {
		return nil, err
	}
	stopwords, err := loadStopwords(cfg.StopwordFile)
	if err != nil {
		return nil, err
	}

	classifier := usecase.NewIntentClassifier(intentModel)
	advisor := usecase.NewSearchAdvisor(classifier, tokenizer, stopwords, cfg.MaxStopwordPercent)

	answerUC := usecase.NewAnswerUseCase(
		nlp.NewTimeFilterExtractor(),
		events,
		usecase.NewRetrievalOrchestrator(index, access),
		classifier,
		models,
		validator,
		usecase.AnswerConfig{
			DisableGeneration: cfg.DisableGeneration,
			GenerationTimeout: cfg.GenerationTimeout,
			TokenBudget:       cfg.AnswerTokenBudget,
		},
	)

	return &App{
		Config:   cfg,
		Queue:    queue,
		AnswerUC: answerUC,
		Advisor:  advisor,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func loadTokenizer(path string) (*nlp.VocabTokenizer, error) {
	if path == "" {
		return nlp.NewVocabTokenizer(), nil
	}
	tokenizer, err := nlp.LoadVocabTokenizer(path)
	if err != nil {
		return nil, fmt.Errorf("load vocab: %w", err)
	}
	return tokenizer, nil
}

func loadStopwords(path string) (*nlp.StopwordSet, error) {
	if path == "" {
		return nlp.NewStopwordSet(), nil
	}
	set, err := nlp.LoadStopwordFilter(path)
	if err != nil {
		return nil, fmt.Errorf("load stopwords: %w", err)
	}
	return set, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
