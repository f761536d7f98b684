package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postpilot/internal/models"
)

type BrandRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Brand, error)
	CheckByUserID(ctx context.Context, brandID, userID int64) (bool, error)
}

type brandRepository struct {
	db *sqlx.DB
}

func NewBrandRepository(db *sqlx.DB) BrandRepository {
	return &brandRepository{db: db}
}

func (r *brandRepository) GetByID(ctx context.Context, id int64) (*models.Brand, error) {
	query := `SELECT id, user_id, name, description, default_tone, created_at FROM brands WHERE id = $1`

	var brand models.Brand
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db), &brand, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &brand, nil
}

func (r *brandRepository) CheckByUserID(ctx context.Context, brandID, userID int64) (bool, error) {
	query := "SELECT 1 FROM brands WHERE id = $1 AND user_id = $2"

	var result int
	err := getExecutor(ctx, r.db).QueryRowxContext(ctx, query, brandID, userID).Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
