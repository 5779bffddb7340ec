package domain

import "fmt"

// SearchMode is the retrieval strategy used against the document index.
type SearchMode string

const (
	SearchModeKeyword  SearchMode = "keyword"
	SearchModeSemantic SearchMode = "semantic"
)

// QueryFlow is the interaction mode suggested to the caller: plain search
// results or question answering with a generated answer.
type QueryFlow string

const (
	FlowSearch         QueryFlow = "search"
	FlowQuestionAnswer QueryFlow = "question-answer"
)

func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(s) {
	case SearchModeKeyword:
		return SearchModeKeyword, nil
	case SearchModeSemantic, "":
		return SearchModeSemantic, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse search mode", fmt.Errorf("unknown mode %q", s))
	}
}

// IntentProbabilities holds per-class percentages (0-100, summing to ~100)
// produced by the intent classification model.
type IntentProbabilities struct {
	Keyword        float64 `json:"keyword"`
	Semantic       float64 `json:"semantic"`
	QuestionAnswer float64 `json:"question_answer"`
}

// SearchFlowAdvice is the advisor outcome: the resolved mode/flow plus
// human-readable rationale for any override or disagreement.
type SearchFlowAdvice struct {
	SearchMode SearchMode `json:"search_mode"`
	Flow       QueryFlow  `json:"flow"`
	Reasons    []string   `json:"reasons,omitempty"`
}
