package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
	"github.com/mkovalev/qa-assistant/internal/core/ports"
)

// Decision thresholds for the intent table. Percentages, not ratios.
const (
	qaSignalCutoff  = 20.0
	certaintyCutoff = 70.0
)

type intentRule struct {
	matches func(p domain.IntentProbabilities) bool
	mode    domain.SearchMode
	flow    domain.QueryFlow
}

// intentRules is evaluated top-down with early exit; ordering carries the
// precedence. A non-trivial QA signal wins unless keyword or semantic is
// near-certain.
var intentRules = []intentRule{
	{
		matches: func(p domain.IntentProbabilities) bool {
			return p.QuestionAnswer > qaSignalCutoff && p.Keyword > certaintyCutoff
		},
		mode: domain.SearchModeKeyword,
		flow: domain.FlowSearch,
	},
	{
		matches: func(p domain.IntentProbabilities) bool {
			return p.QuestionAnswer > qaSignalCutoff && p.Semantic > certaintyCutoff
		},
		mode: domain.SearchModeSemantic,
		flow: domain.FlowSearch,
	},
	{
		matches: func(p domain.IntentProbabilities) bool {
			return p.QuestionAnswer > qaSignalCutoff
		},
		mode: domain.SearchModeSemantic,
		flow: domain.FlowQuestionAnswer,
	},
	{
		matches: func(p domain.IntentProbabilities) bool {
			return p.Keyword > p.Semantic
		},
		mode: domain.SearchModeKeyword,
		flow: domain.FlowSearch,
	},
}

// decideIntent maps class probabilities onto a (mode, flow) pair. Pure.
func decideIntent(p domain.IntentProbabilities) (domain.SearchMode, domain.QueryFlow) {
	for _, rule := range intentRules {
		if rule.matches(p) {
			return rule.mode, rule.flow
		}
	}
	return domain.SearchModeSemantic, domain.FlowSearch
}

// IntentClassifier wraps the trained intent model and converts its class
// probabilities into a search mode and flow decision.
type IntentClassifier struct {
	model ports.IntentModel
}

func NewIntentClassifier(model ports.IntentModel) *IntentClassifier {
	return &IntentClassifier{model: model}
}

func (c *IntentClassifier) Classify(ctx context.Context, query string) (domain.SearchMode, domain.QueryFlow, error) {
	probs, err := c.model.ClassProbabilities(ctx, query)
	if err != nil {
		return "", "", fmt.Errorf("intent model: %w", err)
	}
	mode, flow := decideIntent(probs)
	return mode, flow, nil
}

const (
	reasonUnknownTokens     = "Unknown tokens in query."
	reasonStopwords         = "Stopwords in query"
	reasonModelSaidSemantic = "Intent model classified Semantic Search"
	reasonModelSaidKeyword  = "Intent model classified Keyword Search."
)

// SearchAdvisorUseCase layers lexical heuristics over the intent classifier
// to recommend a search mode with a human-readable rationale.
type SearchAdvisorUseCase struct {
	classifier          *IntentClassifier
	tokenizer           ports.Tokenizer
	stopwords           ports.StopwordFilter
	maxPercentStopwords float64
}

func NewSearchAdvisor(
	classifier *IntentClassifier,
	tokenizer ports.Tokenizer,
	stopwords ports.StopwordFilter,
	maxPercentStopwords float64,
) *SearchAdvisorUseCase {
	if maxPercentStopwords <= 0 || maxPercentStopwords >= 1 {
		maxPercentStopwords = 0.30
	}
	return &SearchAdvisorUseCase{
		classifier:          classifier,
		tokenizer:           tokenizer,
		stopwords:           stopwords,
		maxPercentStopwords: maxPercentStopwords,
	}
}

// Recommend resolves the mode/flow for a query. Heuristic overrides win over
// the model's mode; the flow always comes from the model. If the intent model
// is unreachable the advisor degrades to the caller-declared mode with an
// empty rationale.
func (a *SearchAdvisorUseCase) Recommend(ctx context.Context, query string, declaredMode domain.SearchMode) domain.SearchFlowAdvice {
	var reasons []string
	var heuristicMode domain.SearchMode

	// Unknown tokens usually mean proper nouns or codes that exact-match
	// search handles better.
	if a.countUnknownTokens(query) > 0 && declaredMode == domain.SearchModeSemantic {
		heuristicMode = domain.SearchModeKeyword
		reasons = append(reasons, reasonUnknownTokens)
	}

	// A query dominated by function words reads as a natural-language
	// statement. Zero words skips the check entirely.
	words := strings.Fields(query)
	if len(words) > 0 {
		nonStopwords := a.stopwords.Remove(words)
		nonStopwordPercent := float64(len(nonStopwords)) / float64(len(words))
		if nonStopwordPercent < 1-a.maxPercentStopwords && declaredMode == domain.SearchModeKeyword {
			heuristicMode = domain.SearchModeSemantic
			reasons = append(reasons, reasonStopwords)
		}
	}

	modelMode, flow, err := a.classifier.Classify(ctx, query)
	if err != nil {
		slog.Warn("intent classification unavailable, using declared mode", "error", err)
		return domain.SearchFlowAdvice{SearchMode: declaredMode, Flow: domain.FlowSearch}
	}

	if len(reasons) == 0 {
		if modelMode == domain.SearchModeSemantic && declaredMode == domain.SearchModeKeyword {
			reasons = append(reasons, reasonModelSaidSemantic)
		}
		if modelMode == domain.SearchModeKeyword && declaredMode == domain.SearchModeSemantic {
			reasons = append(reasons, reasonModelSaidKeyword)
		}
	}

	resolved := modelMode
	if heuristicMode != "" {
		resolved = heuristicMode
	}
	return domain.SearchFlowAdvice{SearchMode: resolved, Flow: flow, Reasons: reasons}
}

func (a *SearchAdvisorUseCase) countUnknownTokens(query string) int {
	unknown := a.tokenizer.UnknownToken()
	count := 0
	for _, token := range a.tokenizer.Tokenize(query) {
		if token == unknown {
			count++
		}
	}
	return count
}
