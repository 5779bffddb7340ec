package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// PublicACLEntry marks documents readable by everyone.
const PublicACLEntry = "PUBLIC"

// AccessRepository resolves the access-control entries a caller may read:
// the public marker, their own user entry, and one entry per group
// membership.
type AccessRepository struct {
	db *sql.DB
}

func NewAccessRepository(db *sql.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

func (r *AccessRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083102)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS user_groups (
	user_id TEXT NOT NULL,
	group_name TEXT NOT NULL,
	PRIMARY KEY (user_id, group_name)
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// ResolveACL returns nil for an empty user ID, which the index treats as an
// unrestricted system context.
func (r *AccessRepository) ResolveACL(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}

	acl := []string{PublicACLEntry, "user:" + userID}

	rows, err := r.db.QueryContext(ctx, `
SELECT group_name
FROM user_groups
WHERE user_id = $1
ORDER BY group_name
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var group string
		if err := rows.Scan(&group); err != nil {
			return nil, fmt.Errorf("scan user group: %w", err)
		}
		acl = append(acl, "group:"+group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user groups: %w", err)
	}
	return acl, nil
}
