package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
	"github.com/mkovalev/qa-assistant/internal/core/ports"
	"github.com/mkovalev/qa-assistant/internal/core/usecase"
	"github.com/mkovalev/qa-assistant/internal/observability/metrics"
)

type Router struct {
	answerUC *usecase.AnswerUseCase
	advisor  ports.SearchAdvisor
	queue    ports.DeferredQueue
	opts     Options
}

type Options struct {
	Metrics *metrics.HTTPServerMetrics
	Service string

	RateLimitRPS    float64
	RateLimitBurst  int
	MaxInFlight     int
	MaxInFlightWait time.Duration
}

func NewRouter(
	answerUC *usecase.AnswerUseCase,
	advisor ports.SearchAdvisor,
	queue ports.DeferredQueue,
	opts Options,
) *Router {
	if opts.MaxInFlightWait <= 0 {
		opts.MaxInFlightWait = 2 * time.Second
	}
	return &Router{
		answerUC: answerUC,
		advisor:  advisor,
		queue:    queue,
		opts:     opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/qa/answer", rt.answerQuestion)
	mux.HandleFunc("/v1/qa/search-intent", rt.searchIntent)
	mux.HandleFunc("/v1/qa/defer", rt.deferQuestion)

	var handler http.Handler = mux
	if rt.opts.Metrics != nil {
		mux.Handle("/metrics", rt.opts.Metrics.Handler())
		handler = rt.opts.Metrics.Middleware(rt.opts.Service, handler)
	}
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.MaxInFlightWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type questionPayload struct {
	Query       string `json:"query"`
	SearchMode  string `json:"search_mode"`
	Offset      int    `json:"offset"`
	FavorRecent *bool  `json:"favor_recent"`
	Filters     struct {
		SourceTypes  []string `json:"source_types"`
		DocumentSets []string `json:"document_sets"`
	} `json:"filters"`
}

// toRequest builds the domain request. Access control entries never come
// from the payload; the pipeline resolves them from the caller identity.
func (p questionPayload) toRequest() (domain.QuestionRequest, error) {
	mode, err := domain.ParseSearchMode(p.SearchMode)
	if err != nil {
		return domain.QuestionRequest{}, err
	}
	return domain.QuestionRequest{
		Query:       p.Query,
		SearchMode:  mode,
		Offset:      p.Offset,
		FavorRecent: p.FavorRecent,
		Filters: domain.Filters{
			SourceTypes:  p.Filters.SourceTypes,
			DocumentSets: p.Filters.DocumentSets,
		},
	}, nil
}

func decodeQuestion(r *http.Request) (domain.QuestionRequest, bool, string) {
	var payload questionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return domain.QuestionRequest{}, false, "invalid json"
	}
	if strings.TrimSpace(payload.Query) == "" {
		return domain.QuestionRequest{}, false, "query is required"
	}
	req, err := payload.toRequest()
	if err != nil {
		return domain.QuestionRequest{}, false, err.Error()
	}
	return req, true, ""
}

func (rt *Router) answerQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok, errMsg := decodeQuestion(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}
	userID := strings.TrimSpace(r.Header.Get(userIDHeader))

	started := time.Now()
	resp, err := rt.answerUC.Answer(r.Context(), req, userID, usecase.AnswerOptions{
		RealTime:  true,
		Callbacks: rt.answerCallbacks(),
	})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if m := rt.opts.Metrics; m != nil {
		m.RecordPipelineRun(rt.opts.Service, "answer", len(resp.TopRankedDocs), time.Since(started))
		m.RecordIntent(rt.opts.Service, string(resp.PredictedSearch), string(resp.PredictedFlow))
		if resp.ErrorMsg != nil {
			m.RecordGenerationFailure(rt.opts.Service, "llm")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) searchIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var payload struct {
		Query      string `json:"query"`
		SearchMode string `json:"search_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(payload.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	mode, err := domain.ParseSearchMode(payload.SearchMode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	advice := rt.advisor.Recommend(r.Context(), payload.Query, mode)
	writeJSON(w, http.StatusOK, advice)
}

func (rt *Router) deferQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok, errMsg := decodeQuestion(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	job := domain.DeferredQuestion{
		Request: req,
		UserID:  strings.TrimSpace(r.Header.Get(userIDHeader)),
	}
	if err := rt.queue.PublishQuestion(r.Context(), job); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (rt *Router) answerCallbacks() usecase.AnswerCallbacks {
	m := rt.opts.Metrics
	if m == nil {
		return usecase.AnswerCallbacks{}
	}
	service := rt.opts.Service
	return usecase.AnswerCallbacks{
		Retrieval: func(stage domain.RetrievalMetrics) {
			m.RecordStageDuration(service, "retrieval", stage.Duration)
		},
		Rerank: func(stage domain.RerankMetrics) {
			m.RecordStageDuration(service, "rerank", stage.Duration)
		},
		LLM: func(stage domain.LLMMetrics) {
			m.RecordStageDuration(service, "generation", stage.Duration)
			m.RecordTokenUsage(service, stage.PromptTokens, stage.ResponseTokens)
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
