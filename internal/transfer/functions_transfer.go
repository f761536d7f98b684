package transfer

import "github.com/maheshrc27/postpilot/internal/models"

type GenerateCaptionRequest struct {
	BrandID    int64 `json:"brand_id"`
	BucketID   int64 `json:"bucket_id"`
	ForceRules bool  `json:"force_rules"`
}

type GenerateCaptionResponse struct {
	Caption       string   `json:"caption"`
	Hashtags      []string `json:"hashtags"`
	PinnedComment string   `json:"pinned_comment"`
}

type GenerateImageRequest struct {
	Caption        string `json:"caption"`
	KeyQuote       string `json:"key_quote,omitempty"`
	FilenamePrefix string `json:"filename_prefix,omitempty"`
}

type GenerateImageResponse struct {
	ImageURL string `json:"image_url"`
	Template string `json:"template"`
}

type QualityGateRequest struct {
	Caption       string   `json:"caption"`
	RequiredVocab []string `json:"required_vocab,omitempty"`
	AllowRegen    *bool    `json:"allow_regen,omitempty"`
}

type PublishRequest struct {
	PostID int64 `json:"post_id"`
}

type PublishResponse struct {
	Success         bool   `json:"success"`
	InstagramPostID string `json:"instagram_post_id"`
	PostID          int64  `json:"post_id"`
}

type AuthStartRequest struct {
	BrandID     *int64   `json:"brand_id,omitempty"`
	RedirectURI string   `json:"redirect_uri,omitempty"`
	Scopes      []string `json:"scopes,omitempty"`
}

type AuthStartResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

type AuthCompleteRequest struct {
	State  string `json:"state"`
	PageID string `json:"page_id"`
}

type ConnectedAccount struct {
	SocialAccountID int64  `json:"social_account_id"`
	PageID          string `json:"page_id"`
	PageName        string `json:"page_name"`
	Username        string `json:"username"`
}

type AuthConnectedResponse struct {
	Success bool             `json:"success"`
	Account ConnectedAccount `json:"account"`
}

type SelectionRequiredResponse struct {
	Error             string                 `json:"error"`
	SelectionRequired bool                   `json:"selection_required"`
	State             string                 `json:"state"`
	Pages             []models.PageCandidate `json:"pages"`
}

type TokenRefreshRequest struct {
	SocialAccountID *int64 `json:"social_account_id,omitempty"`
}

type TokenRefreshResult struct {
	SocialAccountID int64  `json:"social_account_id"`
	Refreshed       bool   `json:"refreshed"`
	Error           string `json:"error,omitempty"`
}

type TokenRefreshResponse struct {
	Success bool                 `json:"success"`
	Results []TokenRefreshResult `json:"results"`
}

type RunPipelineRequest struct {
	BrandID         *int64 `json:"brand_id,omitempty"`
	DryRun          bool   `json:"dry_run"`
	EnforceSchedule bool   `json:"enforce_schedule"`
}

const (
	PipelineSkipped   = "skipped"
	PipelineSucceeded = "succeeded"
	PipelineFailed    = "failed"
	PipelineError     = "error"
)

type PipelineResult struct {
	BrandID         int64  `json:"brand_id"`
	BrandName       string `json:"brand_name"`
	Status          string `json:"status"`
	Reason          string `json:"reason,omitempty"`
	RunID           int64  `json:"run_id,omitempty"`
	PostID          int64  `json:"post_id,omitempty"`
	InstagramPostID string `json:"instagram_post_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

type RunPipelineResponse struct {
	Success bool             `json:"success"`
	Results []PipelineResult `json:"results"`
}
