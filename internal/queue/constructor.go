package queue

import (
	"github.com/maheshrc27/postpilot/internal/service"
)

type Queue struct {
	pipeline service.PipelineService
	oauth    service.OAuthService
}

func NewQueue(pipeline service.PipelineService, oauth service.OAuthService) *Queue {
	return &Queue{
		pipeline: pipeline,
		oauth:    oauth,
	}
}

const (
	TaskTypePipelineRun   = "pipeline:run"
	TaskTypeTokensRefresh = "tokens:refresh"
)

type PipelineRunPayload struct {
	BrandID         *int64 `json:"brand_id,omitempty"`
	DryRun          bool   `json:"dry_run"`
	EnforceSchedule bool   `json:"enforce_schedule"`
}

type TokensRefreshPayload struct {
	SocialAccountID *int64 `json:"social_account_id,omitempty"`
}
