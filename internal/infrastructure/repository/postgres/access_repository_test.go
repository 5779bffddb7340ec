package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newAccessRepoWithMock(t *testing.T) (*AccessRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &AccessRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestResolveACLAnonymousIsUnrestricted(t *testing.T) {
	repo, mock, done := newAccessRepoWithMock(t)
	defer done()

	acl, err := repo.ResolveACL(context.Background(), "")
	if err != nil {
		t.Fatalf("ResolveACL() error = %v", err)
	}
	if acl != nil {
		t.Fatalf("expected nil ACL for anonymous caller, got %v", acl)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestResolveACLIncludesPublicUserAndGroups(t *testing.T) {
	repo, mock, done := newAccessRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"group_name"}).AddRow("eng").AddRow("oncall")
	mock.ExpectQuery("SELECT group_name").
		WithArgs("user-1").
		WillReturnRows(rows)

	acl, err := repo.ResolveACL(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ResolveACL() error = %v", err)
	}
	want := []string{"PUBLIC", "user:user-1", "group:eng", "group:oncall"}
	if len(acl) != len(want) {
		t.Fatalf("expected %v, got %v", want, acl)
	}
	for i := range want {
		if acl[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, acl)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
