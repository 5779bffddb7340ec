package domain

import "time"

// Quote is a verbatim excerpt backing a generated answer.
type Quote struct {
	Quote      string `json:"quote"`
	DocumentID string `json:"document_id,omitempty"`
	SemanticID string `json:"semantic_identifier,omitempty"`
	Link       string `json:"link,omitempty"`
	SourceType string `json:"source_type,omitempty"`
}

// GeneratedAnswer is the generative model output. Answer is nil when the
// model declined to answer from the provided context.
type GeneratedAnswer struct {
	Answer *string `json:"answer"`
	Quotes []Quote `json:"quotes,omitempty"`
}

// QAResponse is the full outcome record of one pipeline run. Every terminal
// path produces a fully-formed response; callers branch on which fields are
// present.
type QAResponse struct {
	Answer          *string     `json:"answer"`
	Quotes          []Quote     `json:"quotes"`
	TopRankedDocs   []SearchDoc `json:"top_ranked_docs"`
	LowerRankedDocs []SearchDoc `json:"lower_ranked_docs"`
	PredictedFlow   QueryFlow   `json:"predicted_flow"`
	PredictedSearch SearchMode  `json:"predicted_search"`
	// EvalResValid is set only when the reflexion gate ran; absent otherwise.
	EvalResValid *bool      `json:"eval_res_valid,omitempty"`
	QueryEventID string     `json:"query_event_id"`
	TimeCutoff   *time.Time `json:"time_cutoff"`
	FavorRecent  bool       `json:"favor_recent"`
	ErrorMsg     *string    `json:"error_msg,omitempty"`
}
