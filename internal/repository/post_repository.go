package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postpilot/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) (int64, error)
	MarkPublished(ctx context.Context, id int64, instagramPostID string) error
	MarkFailed(ctx context.Context, id int64, message string) error
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (brand_id, bucket_id, social_account_id, caption, hashtags, pinned_comment, image_url, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := getExecutor(ctx, r.db).QueryRowxContext(ctx, query,
		post.BrandID,
		post.BucketID,
		post.SocialAccountID,
		post.Caption,
		post.Hashtags,
		post.PinnedComment,
		post.ImageURL,
		post.Status,
		post.ScheduledAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `
		SELECT id, brand_id, bucket_id, social_account_id, caption, hashtags, pinned_comment, image_url,
			status, scheduled_at, published_at, instagram_post_id, error_message, created_at, updated_at
		FROM posts
		WHERE id = $1
	`

	var post models.Post
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db), &post, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

// MarkPublished only moves draft or scheduled posts forward.
func (r *postRepository) MarkPublished(ctx context.Context, id int64, instagramPostID string) error {
	query := `
		UPDATE posts
		SET status = 'published',
			instagram_post_id = $2,
			published_at = CURRENT_TIMESTAMP,
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status IN ('draft', 'scheduled')
	`
	return r.execOne(ctx, query, id, instagramPostID)
}

// MarkFailed never rewrites a published post.
func (r *postRepository) MarkFailed(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE posts
		SET status = 'failed',
			error_message = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status <> 'published'
	`
	return r.execOne(ctx, query, id, message)
}

func (r *postRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return errors.New("post not found or status transition not allowed")
	}
	return nil
}
