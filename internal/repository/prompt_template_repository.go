package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postpilot/internal/models"
)

type PromptTemplateRepository interface {
	GetLatestByBrandID(ctx context.Context, brandID int64) (*models.PromptTemplate, error)
}

type promptTemplateRepository struct {
	db *sqlx.DB
}

func NewPromptTemplateRepository(db *sqlx.DB) PromptTemplateRepository {
	return &promptTemplateRepository{db: db}
}

func (r *promptTemplateRepository) GetLatestByBrandID(ctx context.Context, brandID int64) (*models.PromptTemplate, error) {
	query := `
		SELECT id, brand_id, version, system_prompt, rules, output_shape, required_vocab, created_at
		FROM prompt_templates
		WHERE brand_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var tmpl models.PromptTemplate
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db), &tmpl, query, brandID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &tmpl, nil
}
