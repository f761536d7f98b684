package queue

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client used here.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Tasks are never retried. A tick that lands while the previous task of the
// same type is still pending is dropped.
func enqueue(client Enqueuer, taskType string, payload any, unique time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskType, taskPayload, asynq.MaxRetry(0))

	info, err := client.Enqueue(task, asynq.Unique(unique))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		slog.Info("task already queued", "type", taskType)
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("task enqueued", "type", taskType, "id", info.ID)
	return nil
}

func EnqueuePipelineRun(client Enqueuer, payload PipelineRunPayload, unique time.Duration) error {
	return enqueue(client, TaskTypePipelineRun, payload, unique)
}

func EnqueueTokensRefresh(client Enqueuer, payload TokensRefreshPayload, unique time.Duration) error {
	return enqueue(client, TaskTypeTokensRefresh, payload, unique)
}
