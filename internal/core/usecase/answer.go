package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
	"github.com/mkovalev/qa-assistant/internal/core/ports"
)

// llmErrorPrefix marks a soft generation failure in QAResponse.ErrorMsg.
const llmErrorPrefix = "Error occurred in call to LLM - "

// AnswerConfig is the pipeline-level configuration surface.
type AnswerConfig struct {
	DisableGeneration bool
	GenerationTimeout time.Duration
	TokenBudget       int
}

// AnswerOptions vary per invocation: the API answers in the real-time flow,
// the deferred worker runs with RealTime=false and reflexion enabled.
type AnswerOptions struct {
	RealTime        bool
	EnableReflexion bool
	Callbacks       AnswerCallbacks
}

// AnswerCallbacks are optional side-channel instrumentation hooks. They are
// invoked synchronously and can never alter the pipeline outcome; a panicking
// callback is recovered and logged.
type AnswerCallbacks struct {
	Retrieval func(domain.RetrievalMetrics)
	Rerank    func(domain.RerankMetrics)
	LLM       func(domain.LLMMetrics)
}

// AnswerUseCase sequences time-filter extraction, query-event recording,
// retrieval, generation, and reflexion validation into one QAResponse. Every
// degraded path (no results, generation disabled, model unavailable, LLM
// failure) still yields a fully-formed response; only retrieval, event
// recording, and access resolution failures propagate as hard errors.
type AnswerUseCase struct {
	timeFilters ports.TimeFilterExtractor
	events      ports.QueryEventStore
	retriever   *RetrievalOrchestrator
	intent      *IntentClassifier
	models      ports.ModelProvider
	validator   ports.AnswerValidator
	cfg         AnswerConfig
}

func NewAnswerUseCase(
	timeFilters ports.TimeFilterExtractor,
	events ports.QueryEventStore,
	retriever *RetrievalOrchestrator,
	intent *IntentClassifier,
	models ports.ModelProvider,
	validator ports.AnswerValidator,
	cfg AnswerConfig,
) *AnswerUseCase {
	return &AnswerUseCase{
		timeFilters: timeFilters,
		events:      events,
		retriever:   retriever,
		intent:      intent,
		models:      models,
		validator:   validator,
		cfg:         cfg,
	}
}

func (uc *AnswerUseCase) Answer(
	ctx context.Context,
	req domain.QuestionRequest,
	userID string,
	opts AnswerOptions,
) (*domain.QAResponse, error) {
	query := req.Query
	slog.Info("received qa query", "query", query, "mode", req.SearchMode, "offset", req.Offset)

	timeCutoff, favorRecent := uc.timeFilters.Extract(query)
	filters := req.Filters
	filters.TimeCutoff = timeCutoff

	eventID, err := uc.events.CreateEvent(ctx, query, req.SearchMode, userID)
	if err != nil {
		return nil, fmt.Errorf("create query event: %w", err)
	}

	predictedSearch, predictedFlow := uc.predictIntent(ctx, query)

	searchFavorRecent := true
	if req.FavorRecent != nil {
		searchFavorRecent = *req.FavorRecent
	}

	callbacks := ports.SearchCallbacks{
		Retrieval: guardRetrievalCallback(opts.Callbacks.Retrieval),
		Rerank:    guardRerankCallback(opts.Callbacks.Rerank),
	}
	result, err := uc.retriever.Retrieve(ctx, query, filters, req.SearchMode, searchFavorRecent, userID, callbacks)
	if err != nil {
		return nil, err
	}

	resp := &domain.QAResponse{
		PredictedFlow:   predictedFlow,
		PredictedSearch: predictedSearch,
		QueryEventID:    eventID,
		TimeCutoff:      timeCutoff,
		FavorRecent:     favorRecent,
	}

	// Absence of results is a valid empty outcome, not an error.
	if len(result.Ranked) == 0 {
		return resp, nil
	}

	topDocs := domain.ChunksToSearchDocs(result.Ranked)
	lowerDocs := domain.ChunksToSearchDocs(result.Unranked)
	resp.TopRankedDocs = topDocs
	resp.LowerRankedDocs = lowerDocs

	docIDs := make([]string, 0, len(topDocs))
	for _, doc := range topDocs {
		docIDs = append(docIDs, doc.DocumentID)
	}
	if err := uc.events.UpdateRetrieved(ctx, eventID, docIDs, userID); err != nil {
		return nil, fmt.Errorf("record retrieved documents: %w", err)
	}

	if uc.cfg.DisableGeneration {
		slog.Debug("skipping answer generation, generative model disabled")
		// Force the search flow so a caller never offers QA over more
		// documents while answering is disabled.
		resp.PredictedFlow = domain.FlowSearch
		return resp, nil
	}

	model, err := uc.models.Acquire(uc.cfg.GenerationTimeout, opts.RealTime)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnknownModel) || domain.IsKind(err, domain.ErrMissingCredential) {
			msg := err.Error()
			resp.ErrorMsg = &msg
			return resp, nil
		}
		return nil, fmt.Errorf("acquire answer model: %w", err)
	}

	// Chunks flagged as unusable for QA stay in the document lists for
	// display but are excluded from the generation input.
	eligible := make([]domain.Chunk, 0, len(result.Ranked))
	for _, chunk := range result.Ranked {
		if chunk.IgnoreForQA {
			continue
		}
		eligible = append(eligible, chunk)
	}
	usable := SelectUsableChunks(eligible, uc.cfg.TokenBudget, req.Offset)
	slog.Debug("chunks fed to llm", "chunks", semanticIDs(usable))

	answer, genErr := model.AnswerQuestion(ctx, query, usable, guardLLMCallback(opts.Callbacks.LLM))
	if genErr != nil {
		// Generation is the least reliable external call; it is the only
		// state where a failure is converted into a soft error.
		slog.Warn("llm answer generation failed", "error", genErr)
		msg := llmErrorPrefix + genErr.Error()
		resp.ErrorMsg = &msg
		answer = nil
	}
	if answer != nil {
		resp.Answer = answer.Answer
		resp.Quotes = answer.Quotes
	}

	if !opts.RealTime && opts.EnableReflexion && answer != nil {
		valid := false
		if answer.Answer != nil {
			v, err := uc.validator.Validate(ctx, query, *answer.Answer)
			if err != nil {
				slog.Warn("answer validation failed", "error", err)
			} else {
				valid = v
			}
		}
		resp.EvalResValid = &valid
	}

	return resp, nil
}

// predictIntent annotates the response with the model's mode/flow guess.
// Classifier failure must never block retrieval or answering.
func (uc *AnswerUseCase) predictIntent(ctx context.Context, query string) (domain.SearchMode, domain.QueryFlow) {
	mode, flow, err := uc.intent.Classify(ctx, query)
	if err != nil {
		slog.Warn("query intent prediction failed", "error", err)
		return domain.SearchModeSemantic, domain.FlowSearch
	}
	return mode, flow
}

func semanticIDs(chunks []domain.Chunk) []string {
	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		ids = append(ids, chunk.SemanticID)
	}
	return ids
}

func guardRetrievalCallback(cb func(domain.RetrievalMetrics)) func(domain.RetrievalMetrics) {
	if cb == nil {
		return nil
	}
	return func(m domain.RetrievalMetrics) {
		defer recoverCallbackPanic("retrieval")
		cb(m)
	}
}

func guardRerankCallback(cb func(domain.RerankMetrics)) func(domain.RerankMetrics) {
	if cb == nil {
		return nil
	}
	return func(m domain.RerankMetrics) {
		defer recoverCallbackPanic("rerank")
		cb(m)
	}
}

func guardLLMCallback(cb func(domain.LLMMetrics)) func(domain.LLMMetrics) {
	if cb == nil {
		return nil
	}
	return func(m domain.LLMMetrics) {
		defer recoverCallbackPanic("llm")
		cb(m)
	}
}

func recoverCallbackPanic(kind string) {
	if r := recover(); r != nil {
		slog.Warn("metrics callback panicked", "callback", kind, "panic", r)
	}
}
