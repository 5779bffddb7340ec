package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkovalev/qa-assistant/internal/core/domain"
)

// QueryEventRepository persists one row per answered query: the text, the
// search mode it ran with, the caller, and later the retrieved document IDs.
type QueryEventRepository struct {
	db *sql.DB
}

func NewQueryEventRepository(db *sql.DB) *QueryEventRepository {
	return &QueryEventRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *QueryEventRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS query_events (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	search_mode TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	retrieved_document_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_events_user_id ON query_events(user_id);
CREATE INDEX IF NOT EXISTS idx_query_events_created_at ON query_events(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *QueryEventRepository) CreateEvent(ctx context.Context, query string, mode domain.SearchMode, userID string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO query_events (id, query, search_mode, user_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, id, query, string(mode), userID, now, now)
	if err != nil {
		return "", fmt.Errorf("insert query event: %w", err)
	}
	return id, nil
}

// UpdateRetrieved records which documents a query surfaced. The caller must
// own the event unless the event was created anonymously.
func (r *QueryEventRepository) UpdateRetrieved(ctx context.Context, eventID string, documentIDs []string, userID string) error {
	if documentIDs == nil {
		documentIDs = []string{}
	}
	docsJSON, err := json.Marshal(documentIDs)
	if err != nil {
		return fmt.Errorf("marshal document ids: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE query_events
SET retrieved_document_ids = $2, updated_at = $3
WHERE id = $1 AND (user_id = $4 OR user_id = '')
`, eventID, docsJSON, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("update query event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("query event rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrQueryEventNotFound, "update query event", errors.New(eventID))
	}
	return nil
}
