package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

func newEventRepoWithMock(t *testing.T) (*QueryEventRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &QueryEventRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCreateEventReturnsGeneratedID(t *testing.T) {
	repo, mock, done := newEventRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO query_events").
		WithArgs(sqlmock.AnyArg(), "how do deploys work", "semantic", "user-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.CreateEvent(context.Background(), "how do deploys work", domain.SearchModeSemantic, "user-1")
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if id == "" {
		t.Fatalf("expected non-empty event id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateRetrievedStoresDocumentIDs(t *testing.T) {
	repo, mock, done := newEventRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE query_events").
		WithArgs("event-1", []byte(`["doc-a","doc-b"]`), sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRetrieved(context.Background(), "event-1", []string{"doc-a", "doc-b"}, "user-1")
	if err != nil {
		t.Fatalf("UpdateRetrieved() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateRetrievedReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newEventRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE query_events").
		WithArgs("missing", sqlmock.AnyArg(), sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRetrieved(context.Background(), "missing", []string{"doc-a"}, "user-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrQueryEventNotFound) {
		t.Fatalf("expected ErrQueryEventNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateRetrievedNormalizesNilDocumentIDs(t *testing.T) {
	repo, mock, done := newEventRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE query_events").
		WithArgs("event-1", []byte(`[]`), sqlmock.AnyArg(), "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateRetrieved(context.Background(), "event-1", nil, ""); err != nil {
		t.Fatalf("UpdateRetrieved() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
