package job

import (
	"log/slog"
	"time"

	"github.com/maheshrc27/postpilot/internal/queue"
)

type TokenRefreshJob struct {
	client queue.Enqueuer
	unique time.Duration
}

func NewTokenRefreshJob(client queue.Enqueuer, unique time.Duration) *TokenRefreshJob {
	return &TokenRefreshJob{
		client: client,
		unique: unique,
	}
}

// RefreshTokens queues a refresh of every Instagram account.
func (j *TokenRefreshJob) RefreshTokens() {
	if err := queue.EnqueueTokensRefresh(j.client, queue.TokensRefreshPayload{}, j.unique); err != nil {
		slog.Info(err.Error())
	}
}
