package ports

import (
	"context"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

// SearchAdvisor recommends a search mode and flow for a query. It never
// fails: classifier errors degrade to the caller-declared mode.
type SearchAdvisor interface {
	Recommend(ctx context.Context, query string, declaredMode domain.SearchMode) domain.SearchFlowAdvice
}
