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

var ErrRunClosed = errors.New("pipeline run is not running")

type PipelineRunRepository interface {
	Open(ctx context.Context, brandID int64, md models.RunMetadata) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.PipelineRun, error)
	Succeed(ctx context.Context, id int64, md models.RunMetadata) error
	Fail(ctx context.Context, id int64, md models.RunMetadata, message, stack string) error
	// HasRunSince reports whether the brand has any run started at or after since.
	HasRunSince(ctx context.Context, brandID int64, since time.Time) (bool, error)
	// FailStale closes runs still running since before the cutoff.
	FailStale(ctx context.Context, startedBefore time.Time, message string) (int64, error)
}

type pipelineRunRepository struct {
	db *sqlx.DB
}

func NewPipelineRunRepository(db *sqlx.DB) PipelineRunRepository {
	return &pipelineRunRepository{db: db}
}

func (r *pipelineRunRepository) Open(ctx context.Context, brandID int64, md models.RunMetadata) (int64, error) {
	query := `
		INSERT INTO pipeline_runs (brand_id, status, metadata)
		VALUES ($1, 'running', $2)
		RETURNING id
	`

	var id int64
	err := getExecutor(ctx, r.db).QueryRowxContext(ctx, query, brandID, md).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *pipelineRunRepository) GetByID(ctx context.Context, id int64) (*models.PipelineRun, error) {
	query := `
		SELECT id, brand_id, status, metadata, error_message, error_stack, started_at, finished_at
		FROM pipeline_runs
		WHERE id = $1
	`

	var run models.PipelineRun
	err := sqlx.GetContext(ctx, getExecutor(ctx, r.db), &run, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &run, nil
}

func (r *pipelineRunRepository) Succeed(ctx context.Context, id int64, md models.RunMetadata) error {
	query := `
		UPDATE pipeline_runs
		SET status = 'succeeded', metadata = $2, finished_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'running'
	`
	return r.close(ctx, query, id, md)
}

func (r *pipelineRunRepository) Fail(ctx context.Context, id int64, md models.RunMetadata, message, stack string) error {
	query := `
		UPDATE pipeline_runs
		SET status = 'failed', metadata = $2, error_message = $3, error_stack = $4, finished_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'running'
	`
	return r.close(ctx, query, id, md, message, stack)
}

func (r *pipelineRunRepository) close(ctx context.Context, query string, args ...interface{}) error {
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
		return ErrRunClosed
	}
	return nil
}

func (r *pipelineRunRepository) FailStale(ctx context.Context, startedBefore time.Time, message string) (int64, error) {
	query := `
		UPDATE pipeline_runs
		SET status = 'failed', error_message = $2, finished_at = CURRENT_TIMESTAMP
		WHERE status = 'running' AND started_at < $1
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, startedBefore, message)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return result.RowsAffected()
}

func (r *pipelineRunRepository) HasRunSince(ctx context.Context, brandID int64, since time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM pipeline_runs WHERE brand_id = $1 AND started_at >= $2)`

	var exists bool
	if err := sqlx.GetContext(ctx, getExecutor(ctx, r.db), &exists, query, brandID, since); err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return exists, nil
}
