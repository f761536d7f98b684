package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypePipelineRun, q.HandlePipelineTask)
	mux.HandleFunc(TaskTypeTokensRefresh, q.HandleTokenRefreshTask)
}

func (q *Queue) HandlePipelineTask(ctx context.Context, task *asynq.Task) error {
	var payload PipelineRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", TaskTypePipelineRun, err)
	}

	res, err := q.pipeline.Run(ctx, transfer.RunPipelineRequest{
		BrandID:         payload.BrandID,
		DryRun:          payload.DryRun,
		EnforceSchedule: payload.EnforceSchedule,
	})
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, r := range res.Results {
		counts[r.Status]++
	}
	slog.Info("pipeline task finished",
		"brands", len(res.Results),
		"succeeded", counts[transfer.PipelineSucceeded],
		"failed", counts[transfer.PipelineFailed],
		"skipped", counts[transfer.PipelineSkipped],
		"errors", counts[transfer.PipelineError])
	return nil
}

func (q *Queue) HandleTokenRefreshTask(ctx context.Context, task *asynq.Task) error {
	var payload TokensRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", TaskTypeTokensRefresh, err)
	}

	results, err := q.oauth.Refresh(ctx, payload.SocialAccountID)
	if err != nil {
		return err
	}

	for _, r := range results {
		if !r.Refreshed {
			slog.Info("token refresh failed", "social_account_id", r.SocialAccountID, "error", r.Error)
		}
	}
	return nil
}
