package persist

import (
	"context"
	"fmt"
)

// VisibilityEntry records one token entering or leaving a user's view.
type VisibilityEntry struct {
	UserID  string
	TokenID string
	Visible bool
}

type VisibilityLogRepo struct {
	db *DB
}

func NewVisibilityLogRepo(db *DB) *VisibilityLogRepo {
	return &VisibilityLogRepo{db: db}
}

// WriteBatch writes entries in a single transaction. Either all rows land or
// none do.
func (r *VisibilityLogRepo) WriteBatch(ctx context.Context, entries []VisibilityEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("visibility log begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO visibility_log (user_id, token_id, visible) VALUES ($1, $2, $3)`,
			e.UserID, e.TokenID, e.Visible,
		); err != nil {
			return fmt.Errorf("visibility log insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
