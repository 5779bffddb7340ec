package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
	"github.com/mkovalev/qa-assistant/internal/core/ports"
)

type indexFake struct {
	req    domain.SearchRequest
	result domain.RankedChunks
	err    error
}

func (f *indexFake) Search(_ context.Context, req domain.SearchRequest, callbacks ports.SearchCallbacks) (domain.RankedChunks, error) {
	f.req = req
	if callbacks.Retrieval != nil {
		callbacks.Retrieval(domain.RetrievalMetrics{})
	}
	if callbacks.Rerank != nil {
		callbacks.Rerank(domain.RerankMetrics{})
	}
	if f.err != nil {
		return domain.RankedChunks{}, f.err
	}
	return f.result, nil
}

type accessFake struct {
	acl    []string
	userID string
	err    error
}

func (f *accessFake) ResolveACL(_ context.Context, userID string) ([]string, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.acl, nil
}

func TestRetrieveUsesServerSideACL(t *testing.T) {
	index := &indexFake{}
	access := &accessFake{acl: []string{"PUBLIC", "user:alice"}}
	orchestrator := NewRetrievalOrchestrator(index, access)

	callerFilters := domain.Filters{
		SourceTypes:       []string{"wiki"},
		AccessControlList: []string{"user:mallory"},
	}
	_, err := orchestrator.Retrieve(
		context.Background(), "q", callerFilters, domain.SearchModeSemantic, true, "alice", ports.SearchCallbacks{},
	)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if access.userID != "alice" {
		t.Fatalf("expected ACL resolved for alice, got %q", access.userID)
	}
	got := index.req.Filters.AccessControlList
	if len(got) != 2 || got[0] != "PUBLIC" || got[1] != "user:alice" {
		t.Fatalf("expected server-side ACL, got %v", got)
	}
	if len(index.req.Filters.SourceTypes) != 1 || index.req.Filters.SourceTypes[0] != "wiki" {
		t.Fatalf("expected caller source types preserved, got %v", index.req.Filters.SourceTypes)
	}
}

func TestRetrievePropagatesAccessFailure(t *testing.T) {
	orchestrator := NewRetrievalOrchestrator(&indexFake{}, &accessFake{err: errors.New("acl store down")})
	_, err := orchestrator.Retrieve(
		context.Background(), "q", domain.Filters{}, domain.SearchModeKeyword, false, "bob", ports.SearchCallbacks{},
	)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestRetrievePropagatesIndexFailure(t *testing.T) {
	orchestrator := NewRetrievalOrchestrator(&indexFake{err: errors.New("index down")}, &accessFake{})
	_, err := orchestrator.Retrieve(
		context.Background(), "q", domain.Filters{}, domain.SearchModeKeyword, false, "", ports.SearchCallbacks{},
	)
	if err == nil {
		t.Fatalf("expected error")
	}
}
