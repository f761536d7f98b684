package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postpilot/internal/models"
)

type SocialAccountRepository interface {
	// Upsert merges on the (user_id, page_id, platform) key and returns the row id.
	Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	GetOldestByUserID(ctx context.Context, userID int64, platform string) (*models.SocialAccount, error)
	ListByPlatform(ctx context.Context, platform string) ([]*models.SocialAccount, error)
	SetToken(ctx context.Context, id int64, accessToken, userAccessToken string, expiresAt time.Time) error
}

type socialAccountRepository struct {
	db *sqlx.DB
}

func NewSocialAccountRepository(db *sqlx.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `
	id, user_id, brand_id, platform, page_id, page_name, instagram_business_account_id,
	username, access_token, user_access_token, token_expires_at, created_at, updated_at`

func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts(
			user_id,
			brand_id,
			platform,
			page_id,
			page_name,
			instagram_business_account_id,
			username,
			access_token,
			user_access_token,
			token_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT social_accounts_user_page_platform_key DO UPDATE SET
			brand_id = COALESCE(EXCLUDED.brand_id, social_accounts.brand_id),
			page_name = EXCLUDED.page_name,
			instagram_business_account_id = EXCLUDED.instagram_business_account_id,
			username = EXCLUDED.username,
			access_token = EXCLUDED.access_token,
			user_access_token = EXCLUDED.user_access_token,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := getExecutor(ctx, r.db).QueryRowxContext(ctx, query,
		sa.UserID,
		sa.BrandID,
		sa.Platform,
		sa.PageID,
		sa.PageName,
		sa.InstagramBusinessAccountID,
		sa.Username,
		sa.AccessToken,
		sa.UserAccessToken,
		sa.TokenExpiresAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *socialAccountRepository) GetOldestByUserID(ctx context.Context, userID int64, platform string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE user_id = $1 AND platform = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1`
	return r.getOne(ctx, query, userID, platform)
}

func (r *socialAccountRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db), &sa, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &sa, nil
}

func (r *socialAccountRepository) ListByPlatform(ctx context.Context, platform string) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE platform = $1 ORDER BY id`

	var accounts []*models.SocialAccount
	if err := sqlx.SelectContext(ctx, getExecutor(ctx, r.db), &accounts, query, platform); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *socialAccountRepository) SetToken(ctx context.Context, id int64, accessToken, userAccessToken string, expiresAt time.Time) error {
	query := `
		UPDATE social_accounts
		SET
			access_token = $2,
			user_access_token = COALESCE(NULLIF($3, ''), user_access_token),
			token_expires_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, id, accessToken, userAccessToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return errors.New("no rows affected; social account may not exist")
	}
	return nil
}
