package repository

import (
	"context"
	"errors"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository persists the single bridge configuration record.
// Every read goes to storage; there is no in-memory cache.
type SettingsRepository struct {
	db *pgxpool.Pool
}

func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns (nil, nil) when no settings have been saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	var s model.Settings
	err := r.db.QueryRow(ctx,
		`SELECT api_url, ingest_token, guild_id, author_name FROM bridge_settings WHERE id = 1`,
	).Scan(&s.APIURL, &s.IngestToken, &s.GuildID, &s.AuthorName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *model.Settings) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bridge_settings (id, api_url, ingest_token, guild_id, author_name, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			api_url = EXCLUDED.api_url,
			ingest_token = EXCLUDED.ingest_token,
			guild_id = EXCLUDED.guild_id,
			author_name = EXCLUDED.author_name,
			updated_at = NOW()
	`, s.APIURL, s.IngestToken, s.GuildID, s.AuthorName)
	return err
}
