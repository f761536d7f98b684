package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postpilot/internal/models"
)

type BucketRepository interface {
	GetByID(ctx context.Context, id int64) (*models.ContentBucket, error)
	ListActiveByBrandID(ctx context.Context, brandID int64) ([]*models.ContentBucket, error)
}

type bucketRepository struct {
	db *sqlx.DB
}

func NewBucketRepository(db *sqlx.DB) BucketRepository {
	return &bucketRepository{db: db}
}

const bucketColumns = `id, brand_id, name, description, posting_day, is_active, created_at`

func (r *bucketRepository) GetByID(ctx context.Context, id int64) (*models.ContentBucket, error) {
	query := `SELECT ` + bucketColumns + ` FROM content_buckets WHERE id = $1`

	var bucket models.ContentBucket
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db), &bucket, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &bucket, nil
}

func (r *bucketRepository) ListActiveByBrandID(ctx context.Context, brandID int64) ([]*models.ContentBucket, error) {
	query := `SELECT ` + bucketColumns + ` FROM content_buckets WHERE brand_id = $1 AND is_active = TRUE ORDER BY id`

	var buckets []*models.ContentBucket
	if err := sqlx.SelectContext(ctx, getExecutor(ctx, r.db), &buckets, query, brandID); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return buckets, nil
}
