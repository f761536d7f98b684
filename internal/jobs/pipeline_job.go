package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postpilot/internal/queue"
	"github.com/maheshrc27/postpilot/internal/service"
)

type PipelineJob struct {
	client     queue.Enqueuer
	pipeline   service.PipelineService
	unique     time.Duration
	staleAfter time.Duration
}

func NewPipelineJob(client queue.Enqueuer, pipeline service.PipelineService, unique, staleAfter time.Duration) *PipelineJob {
	return &PipelineJob{
		client:     client,
		pipeline:   pipeline,
		unique:     unique,
		staleAfter: staleAfter,
	}
}

// RunDue queues a scheduled run; brands outside their window are skipped by
// the worker.
func (j *PipelineJob) RunDue() {
	payload := queue.PipelineRunPayload{EnforceSchedule: true}
	if err := queue.EnqueuePipelineRun(j.client, payload, j.unique); err != nil {
		slog.Info(err.Error())
	}
}

func (j *PipelineJob) SweepStaleRuns() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := j.pipeline.SweepStale(ctx, j.staleAfter); err != nil {
		slog.Info(err.Error())
	}
}
