package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postpilot/internal/models"
)

type OAuthStateRepository interface {
	Create(ctx context.Context, s *models.OAuthState) (int64, error)
	GetByState(ctx context.Context, state string) (*models.OAuthState, error)
	UpdateMetadata(ctx context.Context, state string, md models.StateMetadata) error
	// Delete reports how many rows were removed so callers can detect a
	// concurrent consumer.
	Delete(ctx context.Context, state string) (int64, error)
}

type oauthStateRepository struct {
	db *sqlx.DB
}

func NewOAuthStateRepository(db *sqlx.DB) OAuthStateRepository {
	return &oauthStateRepository{db: db}
}

func (r *oauthStateRepository) Create(ctx context.Context, s *models.OAuthState) (int64, error) {
	query := `
		INSERT INTO oauth_states (state, user_id, brand_id, provider, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := getExecutor(ctx, r.db).QueryRowxContext(ctx, query,
		s.State, s.UserID, s.BrandID, s.Provider, s.ExpiresAt, s.Metadata,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *oauthStateRepository) GetByState(ctx context.Context, state string) (*models.OAuthState, error) {
	query := `
		SELECT id, state, user_id, brand_id, provider, expires_at, metadata, created_at
		FROM oauth_states
		WHERE state = $1
	`

	var s models.OAuthState
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db), &s, query, state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &s, nil
}

func (r *oauthStateRepository) UpdateMetadata(ctx context.Context, state string, md models.StateMetadata) error {
	query := `UPDATE oauth_states SET metadata = $2 WHERE state = $1`
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, state, md)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *oauthStateRepository) Delete(ctx context.Context, state string) (int64, error) {
	query := `DELETE FROM oauth_states WHERE state = $1`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, state)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return result.RowsAffected()
}
