package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (c *recordingClient) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	c.opts = append(c.opts, opts)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

type fakePipeline struct {
	got transfer.RunPipelineRequest
	err error
}

func (f *fakePipeline) Run(_ context.Context, req transfer.RunPipelineRequest) (*transfer.RunPipelineResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &transfer.RunPipelineResponse{Success: true, Results: []transfer.PipelineResult{
		{BrandID: 1, Status: transfer.PipelineSucceeded},
		{BrandID: 2, Status: transfer.PipelineSkipped},
	}}, nil
}

func (f *fakePipeline) SweepStale(context.Context, time.Duration) (int64, error) { return 0, nil }

type fakeOAuth struct {
	got    *int64
	called bool
}

func (f *fakeOAuth) Start(context.Context, int64, transfer.AuthStartRequest) (*transfer.AuthStartResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeOAuth) Callback(context.Context, string, string, string) (*transfer.AuthConnectedResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeOAuth) Complete(context.Context, int64, string, string) (*transfer.AuthConnectedResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeOAuth) Refresh(_ context.Context, id *int64) ([]transfer.TokenRefreshResult, error) {
	f.called = true
	f.got = id
	return []transfer.TokenRefreshResult{{SocialAccountID: 9, Error: "expired"}}, nil
}

func TestEnqueuePipelineRun(t *testing.T) {
	client := &recordingClient{}

	err := EnqueuePipelineRun(client, PipelineRunPayload{EnforceSchedule: true}, time.Minute)
	require.NoError(t, err)
	require.Len(t, client.tasks, 1)

	task := client.tasks[0]
	assert.Equal(t, TaskTypePipelineRun, task.Type())
	assert.JSONEq(t, `{"dry_run":false,"enforce_schedule":true}`, string(task.Payload()))
	assert.Len(t, client.opts[0], 1)
}

func TestEnqueueDropsDuplicates(t *testing.T) {
	client := &recordingClient{err: asynq.ErrDuplicateTask}
	assert.NoError(t, EnqueueTokensRefresh(client, TokensRefreshPayload{}, time.Minute))

	client.err = errors.New("redis: connection refused")
	assert.Error(t, EnqueueTokensRefresh(client, TokensRefreshPayload{}, time.Minute))
}

func TestHandlePipelineTask(t *testing.T) {
	pipeline := &fakePipeline{}
	q := NewQueue(pipeline, &fakeOAuth{})

	brandID := int64(4)
	payload, err := json.Marshal(PipelineRunPayload{BrandID: &brandID, EnforceSchedule: true})
	require.NoError(t, err)

	require.NoError(t, q.HandlePipelineTask(context.Background(), asynq.NewTask(TaskTypePipelineRun, payload)))
	require.NotNil(t, pipeline.got.BrandID)
	assert.Equal(t, brandID, *pipeline.got.BrandID)
	assert.True(t, pipeline.got.EnforceSchedule)
	assert.False(t, pipeline.got.DryRun)

	pipeline.err = errors.New("db down")
	assert.Error(t, q.HandlePipelineTask(context.Background(), asynq.NewTask(TaskTypePipelineRun, payload)))

	assert.Error(t, q.HandlePipelineTask(context.Background(), asynq.NewTask(TaskTypePipelineRun, []byte("{"))))
}

func TestHandleTokenRefreshTask(t *testing.T) {
	oauth := &fakeOAuth{}
	q := NewQueue(&fakePipeline{}, oauth)

	require.NoError(t, q.HandleTokenRefreshTask(context.Background(), asynq.NewTask(TaskTypeTokensRefresh, []byte(`{}`))))
	assert.True(t, oauth.called)
	assert.Nil(t, oauth.got)
}
