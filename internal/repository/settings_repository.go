package repository

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postpilot/internal/models"
)

type SettingsRepository interface {
	// ListBrandAutomation returns one brand (brandID != 0) regardless of its
	// enabled flag, or every enabled brand.
	ListBrandAutomation(ctx context.Context, brandID int64) ([]*models.BrandAutomation, error)
}

type settingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) ListBrandAutomation(ctx context.Context, brandID int64) ([]*models.BrandAutomation, error) {
	query := `
		SELECT
			b.id, b.user_id, b.name, b.description, b.default_tone, b.created_at,
			COALESCE(s.is_enabled, FALSE) AS is_enabled,
			COALESCE(s.timezone, 'UTC') AS timezone,
			COALESCE(s.run_time, '') AS run_time
		FROM brands b
		LEFT JOIN automation_settings s ON s.brand_id = b.id
	`
	args := []interface{}{}

	if brandID != 0 {
		query += ` WHERE b.id = $1`
		args = append(args, brandID)
	} else {
		query += ` WHERE s.is_enabled = TRUE`
	}
	query += ` ORDER BY b.id`

	var brands []*models.BrandAutomation
	if err := sqlx.SelectContext(ctx, getExecutor(ctx, r.db), &brands, query, args...); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return brands, nil
}
