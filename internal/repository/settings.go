package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/docflow/internal/model"
)

// SettingsRepository stores the single intake settings row.
type SettingsRepository struct {
	q Querier
}

// NewSettingsRepository constructs a repository.
func NewSettingsRepository(q Querier) *SettingsRepository {
	return &SettingsRepository{q: q}
}

// Get returns the saved settings, or the defaults when none were saved.
func (r *SettingsRepository) Get(ctx context.Context) (model.IntakeSettings, error) {
	var (
		s        model.IntakeSettings
		channels []string
	)
	err := r.q.QueryRow(ctx, `
		SELECT enabled_channels, max_file_bytes, allowed_content_types, updated_at, updated_by
		FROM intake_settings WHERE id = 1
	`).Scan(&channels, &s.MaxFileBytes, &s.AllowedContentTypes, &s.UpdatedAt, &s.UpdatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.DefaultIntakeSettings(), nil
	}
	if err != nil {
		return model.IntakeSettings{}, fmt.Errorf("select intake settings: %w", err)
	}
	s.EnabledChannels = fromStrings[model.SourceChannel](channels)
	return s, nil
}

// Put upserts the settings row.
func (r *SettingsRepository) Put(ctx context.Context, s model.IntakeSettings) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO intake_settings (id, enabled_channels, max_file_bytes, allowed_content_types, updated_at, updated_by)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			enabled_channels = EXCLUDED.enabled_channels,
			max_file_bytes = EXCLUDED.max_file_bytes,
			allowed_content_types = EXCLUDED.allowed_content_types,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
	`, toStrings(s.EnabledChannels), s.MaxFileBytes, s.AllowedContentTypes, s.UpdatedAt, s.UpdatedBy)
	if err != nil {
		return fmt.Errorf("upsert intake settings: %w", err)
	}
	return nil
}
