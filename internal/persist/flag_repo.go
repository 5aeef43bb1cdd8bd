package persist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// FlagRepo stores per-token sampling overrides.
type FlagRepo struct {
	db *DB
}

func NewFlagRepo(db *DB) *FlagRepo {
	return &FlagRepo{db: db}
}

// Flag returns nil when the token has no override.
func (r *FlagRepo) Flag(ctx context.Context, tokenID string) (*int, error) {
	var pov int16
	err := r.db.Pool.QueryRow(ctx,
		`SELECT pov FROM token_flags WHERE token_id = $1`, tokenID,
	).Scan(&pov)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v := int(pov)
	return &v, nil
}

func (r *FlagRepo) SetFlag(ctx context.Context, tokenID string, mode int) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO token_flags (token_id, pov, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (token_id) DO UPDATE SET pov = EXCLUDED.pov, updated_at = NOW()`,
		tokenID, int16(mode),
	)
	return err
}

func (r *FlagRepo) UnsetFlag(ctx context.Context, tokenID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM token_flags WHERE token_id = $1`, tokenID,
	)
	return err
}

// All returns every stored override keyed by token id.
func (r *FlagRepo) All(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT token_id, pov FROM token_flags`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var pov int16
		if err := rows.Scan(&id, &pov); err != nil {
			return nil, err
		}
		out[id] = int(pov)
	}
	return out, rows.Err()
}
