package repository

import (
	"context"
	"errors"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DraftRepository holds the single pending compose draft. Set overwrites,
// never merges; Clear removes the slot entirely.
type DraftRepository struct {
	db *pgxpool.Pool
}

func NewDraftRepository(db *pgxpool.Pool) *DraftRepository {
	return &DraftRepository{db: db}
}

// Get returns (nil, nil) when no draft is pending.
func (r *DraftRepository) Get(ctx context.Context) (*model.ComposeDraft, error) {
	var d model.ComposeDraft
	err := r.db.QueryRow(ctx,
		`SELECT url, draft_text, force_refresh, source, created_at FROM compose_draft WHERE id = 1`,
	).Scan(&d.URL, &d.Text, &d.ForceRefresh, &d.Source, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DraftRepository) Set(ctx context.Context, d *model.ComposeDraft) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO compose_draft (id, url, draft_text, force_refresh, source, created_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url,
			draft_text = EXCLUDED.draft_text,
			force_refresh = EXCLUDED.force_refresh,
			source = EXCLUDED.source,
			created_at = EXCLUDED.created_at
	`, d.URL, d.Text, d.ForceRefresh, d.Source, d.CreatedAt)
	return err
}

func (r *DraftRepository) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM compose_draft WHERE id = 1`)
	return err
}
