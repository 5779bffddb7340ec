package domain

import "time"

// Filters narrows retrieval. AccessControlList is always resolved server-side
// from the caller identity; values supplied by callers are discarded before
// the index is queried.
type Filters struct {
	SourceTypes       []string   `json:"source_types,omitempty"`
	DocumentSets      []string   `json:"document_sets,omitempty"`
	TimeCutoff        *time.Time `json:"time_cutoff,omitempty"`
	AccessControlList []string   `json:"-"`
}

// QuestionRequest is a single user query as accepted by the pipeline.
type QuestionRequest struct {
	Query       string     `json:"query"`
	SearchMode  SearchMode `json:"search_mode"`
	Offset      int        `json:"offset"`
	Filters     Filters    `json:"filters"`
	FavorRecent *bool      `json:"favor_recent,omitempty"`
}

// SearchRequest is the fully-resolved query handed to the document index,
// with server-computed access filters already merged in.
type SearchRequest struct {
	Query       string
	Mode        SearchMode
	Filters     Filters
	FavorRecent bool
}

// DeferredQuestion is a question queued for non-real-time answering.
type DeferredQuestion struct {
	Request QuestionRequest `json:"request"`
	UserID  string          `json:"user_id,omitempty"`
}
