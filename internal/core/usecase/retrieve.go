package usecase

import (
	"context"
	"fmt"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
	"github.com/mkovalev/qa-assistant/internal/core/ports"
)

// RetrievalOrchestrator builds the final filtered search request and invokes
// the document index. The access-control list is always resolved server-side
// from the caller identity; anything a caller put into Filters is discarded.
// No retry, no caching: index failures propagate as-is.
type RetrievalOrchestrator struct {
	index  ports.DocumentIndex
	access ports.AccessResolver
}

func NewRetrievalOrchestrator(index ports.DocumentIndex, access ports.AccessResolver) *RetrievalOrchestrator {
	return &RetrievalOrchestrator{index: index, access: access}
}

func (o *RetrievalOrchestrator) Retrieve(
	ctx context.Context,
	query string,
	filters domain.Filters,
	mode domain.SearchMode,
	favorRecent bool,
	userID string,
	callbacks ports.SearchCallbacks,
) (domain.RankedChunks, error) {
	acl, err := o.access.ResolveACL(ctx, userID)
	if err != nil {
		return domain.RankedChunks{}, fmt.Errorf("resolve access filters: %w", err)
	}

	req := domain.SearchRequest{
		Query: query,
		Mode:  mode,
		Filters: domain.Filters{
			SourceTypes:       filters.SourceTypes,
			DocumentSets:      filters.DocumentSets,
			TimeCutoff:        filters.TimeCutoff,
			AccessControlList: acl,
		},
		FavorRecent: favorRecent,
	}

	result, err := o.index.Search(ctx, req, callbacks)
	if err != nil {
		return domain.RankedChunks{}, fmt.Errorf("search chunks: %w", err)
	}
	return result, nil
}
