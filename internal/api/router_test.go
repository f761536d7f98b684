package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/quality"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/maheshrc27/postpilot/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serviceKey = "service-key"

type noCompletion struct{ calls int }

func (n *noCompletion) Complete(context.Context, []transfer.ChatMessage) (string, error) {
	n.calls++
	return "Still dream big.", nil
}

type fakeCaptions struct{ err error }

func (f *fakeCaptions) Generate(context.Context, transfer.GenerateCaptionRequest) (*service.CaptionDraft, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.CaptionDraft{Caption: "Quiet work.", Hashtags: []string{"#focus"}}, nil
}

func (f *fakeCaptions) Draft(context.Context, *models.Brand, *models.ContentBucket) (*service.CaptionDraft, error) {
	return nil, errors.New("not used")
}

type fakeImages struct{}

func (fakeImages) Generate(_ context.Context, in service.ImageInput) (*service.ImageResult, error) {
	return &service.ImageResult{ImageURL: "https://cdn.example.com/post-1.svg", Template: service.ImageTemplateID}, nil
}

type fakePublish struct{}

func (fakePublish) Publish(_ context.Context, postID int64) (*transfer.PublishResponse, error) {
	if postID == 404 {
		return nil, &service.NotFoundError{Resource: "post", ID: postID}
	}
	return nil, &service.ExternalServiceError{Service: "graph", Message: "Invalid OAuth access token."}
}

func (fakePublish) PublishWith(context.Context, *models.Post, *models.SocialAccount) (string, error) {
	return "", errors.New("not used")
}

func (fakePublish) ResolveAccount(context.Context, int64, *int64) (*models.SocialAccount, error) {
	return nil, errors.New("not used")
}

type fakeOAuth struct{ startUser int64 }

func (f *fakeOAuth) Start(_ context.Context, userID int64, _ transfer.AuthStartRequest) (*transfer.AuthStartResponse, error) {
	f.startUser = userID
	return &transfer.AuthStartResponse{AuthURL: "https://auth.example.com", State: "s1"}, nil
}

func (f *fakeOAuth) Callback(_ context.Context, code, state, _ string) (*transfer.AuthConnectedResponse, error) {
	if state == "multi" {
		return nil, &service.SelectionRequiredError{State: state, Pages: []models.PageCandidate{{ID: "p1"}, {ID: "p2"}}}
	}
	return nil, &service.ValidationError{Message: "Invalid state"}
}

func (f *fakeOAuth) Complete(context.Context, int64, string, string) (*transfer.AuthConnectedResponse, error) {
	return &transfer.AuthConnectedResponse{Success: true}, nil
}

func (f *fakeOAuth) Refresh(context.Context, *int64) ([]transfer.TokenRefreshResult, error) {
	return []transfer.TokenRefreshResult{{SocialAccountID: 1, Refreshed: true}}, nil
}

type fakePipeline struct{ last transfer.RunPipelineRequest }

func (f *fakePipeline) Run(_ context.Context, req transfer.RunPipelineRequest) (*transfer.RunPipelineResponse, error) {
	f.last = req
	return &transfer.RunPipelineResponse{Success: true, Results: []transfer.PipelineResult{}}, nil
}

func (f *fakePipeline) SweepStale(context.Context, time.Duration) (int64, error) { return 0, nil }

type fixture struct {
	app      *fiber.App
	oauth    *fakeOAuth
	pipeline *fakePipeline
	captions *fakeCaptions
	llm      *noCompletion
}

func newFixture() *fixture {
	f := &fixture{oauth: &fakeOAuth{}, pipeline: &fakePipeline{}, captions: &fakeCaptions{}, llm: &noCompletion{}}
	cfg := config.Config{ServiceRoleKey: serviceKey, JWTSecret: "jwt-secret"}
	f.app = NewApp(cfg, Services{
		Captions: f.captions,
		Images:   fakeImages{},
		Gate:     quality.NewGate(f.llm),
		Publish:  fakePublish{},
		OAuth:    f.oauth,
		Pipeline: f.pipeline,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestServiceRoutesRequireKey(t *testing.T) {
	f := newFixture()

	status, body := f.do(t, http.MethodPost, "/functions/v1/quality-gate", "", `{"caption":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, body["error"])

	status, _ = f.do(t, http.MethodPost, "/functions/v1/quality-gate", "wrong", `{"caption":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestQualityGateStatusCodes(t *testing.T) {
	f := newFixture()

	status, body := f.do(t, http.MethodPost, "/functions/v1/quality-gate", serviceKey, `{"caption":"Discipline compounds daily."}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["passed"])

	status, body = f.do(t, http.MethodPost, "/functions/v1/quality-gate", serviceKey, `{"caption":"Dream big.","allow_regen":false}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, false, body["passed"])
	assert.Equal(t, "Dream big.", body["caption"])
	assert.Zero(t, f.llm.calls)

	status, body = f.do(t, http.MethodPost, "/functions/v1/quality-gate", serviceKey, `{"caption":"Dream big."}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, true, body["regenerated"])
	assert.Equal(t, 1, f.llm.calls)

	status, _ = f.do(t, http.MethodPost, "/functions/v1/quality-gate", serviceKey, `{"caption":`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestErrorMapping(t *testing.T) {
	f := newFixture()

	status, body := f.do(t, http.MethodPost, "/functions/v1/publish-instagram", serviceKey, `{"post_id":404}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "post 404 not found", body["error"])

	status, body = f.do(t, http.MethodPost, "/functions/v1/publish-instagram", serviceKey, `{"post_id":1}`)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, body["error"], "Invalid OAuth access token.")

	f.captions.err = &service.ComplianceError{Violations: []string{"contains emoji or pictographic characters"}}
	status, body = f.do(t, http.MethodPost, "/functions/v1/generate-caption", serviceKey, `{"brand_id":1,"bucket_id":2,"force_rules":true}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Len(t, body["violations"], 1)

	f.captions.err = errors.New("pq: connection refused")
	status, body = f.do(t, http.MethodPost, "/functions/v1/generate-caption", serviceKey, `{"brand_id":1,"bucket_id":2}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestOAuthRoutes(t *testing.T) {
	f := newFixture()

	status, _ := f.do(t, http.MethodPost, "/functions/v1/instagram-auth-start", serviceKey, `{}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	token, err := utils.GenerateToken("jwt-secret", 77, time.Minute)
	require.NoError(t, err)
	status, body := f.do(t, http.MethodPost, "/functions/v1/instagram-auth-start", token, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "s1", body["state"])
	assert.Equal(t, int64(77), f.oauth.startUser)

	status, body = f.do(t, http.MethodGet, "/functions/v1/instagram-auth-callback?code=c&state=multi", "", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, true, body["selection_required"])
	assert.Len(t, body["pages"], 2)

	status, body = f.do(t, http.MethodGet, "/functions/v1/instagram-auth-callback?code=c&state=used", "", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid state", body["error"])

	status, body = f.do(t, http.MethodPost, "/functions/v1/instagram-token-refresh", serviceKey, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestRunDailyPipelineParsesFlags(t *testing.T) {
	f := newFixture()

	status, body := f.do(t, http.MethodPost, "/functions/v1/run-daily-pipeline", serviceKey, `{"brand_id":3,"dry_run":true,"enforce_schedule":true}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	require.NotNil(t, f.pipeline.last.BrandID)
	assert.Equal(t, int64(3), *f.pipeline.last.BrandID)
	assert.True(t, f.pipeline.last.DryRun)
	assert.True(t, f.pipeline.last.EnforceSchedule)
}
