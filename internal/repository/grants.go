package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GrantRepository records which API origins the user has approved for
// outbound network access. Grants are keyed by origin, not by full URL.
type GrantRepository struct {
	db *pgxpool.Pool
}

func NewGrantRepository(db *pgxpool.Pool) *GrantRepository {
	return &GrantRepository{db: db}
}

func (r *GrantRepository) IsGranted(ctx context.Context, origin string) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM origin_grants WHERE origin = $1`, origin,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GrantRepository) Grant(ctx context.Context, origin string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO origin_grants (origin) VALUES ($1)
		ON CONFLICT (origin) DO NOTHING
	`, origin)
	return err
}

// Revoke exists for an explicit UI affordance; nothing revokes automatically
// when the configured origin changes.
func (r *GrantRepository) Revoke(ctx context.Context, origin string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM origin_grants WHERE origin = $1`, origin)
	return err
}
