package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

const (
	pageFields              = "id,name,access_token,instagram_business_account{id,username}"
	defaultLongLivedTokenTT = 60 * 24 * time.Hour
)

// InstagramService talks to the Graph API on behalf of a page.
type InstagramService interface {
	ExchangeLongLivedToken(ctx context.Context, shortLivedToken string) (*transfer.LongLivedToken, error)
	ListPages(ctx context.Context, userAccessToken string) ([]transfer.LinkedPage, error)
	// Publish creates a media container and publishes it. Neither call is
	// idempotent, so a retried publish may produce a duplicate container.
	Publish(ctx context.Context, igUserID, accessToken, imageURL, caption string) (string, error)
	PostComment(ctx context.Context, mediaID, accessToken, message string) error
}

type instagramService struct {
	cfg    config.Meta
	client *http.Client
}

func NewInstagramService(cfg config.Config, client *http.Client) InstagramService {
	if client == nil {
		client = http.DefaultClient
	}
	return &instagramService{cfg: cfg.Meta, client: client}
}

func (ig *instagramService) ExchangeLongLivedToken(ctx context.Context, shortLivedToken string) (*transfer.LongLivedToken, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", ig.cfg.AppID)
	params.Set("client_secret", ig.cfg.AppSecret)
	params.Set("fb_exchange_token", shortLivedToken)

	var result transfer.GraphTokenResponse
	if err := ig.get(ctx, "/oauth/access_token", params, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, &ExternalServiceError{Service: "graph", Message: "no access token returned"}
	}

	return &transfer.LongLivedToken{
		AccessToken: result.AccessToken,
		ExpiresAt:   GetExpiresAt(time.Now(), result.ExpiresIn, defaultLongLivedTokenTT),
	}, nil
}

// ListPages returns the user's pages that have an Instagram business account.
func (ig *instagramService) ListPages(ctx context.Context, userAccessToken string) ([]transfer.LinkedPage, error) {
	params := url.Values{}
	params.Set("fields", pageFields)
	params.Set("limit", "100")
	params.Set("access_token", userAccessToken)

	var result transfer.GraphPagesResponse
	if err := ig.get(ctx, "/me/accounts", params, &result); err != nil {
		return nil, err
	}

	pages := make([]transfer.LinkedPage, 0, len(result.Data))
	for _, p := range result.Data {
		if p.InstagramBusinessAccount == nil || p.InstagramBusinessAccount.ID == "" {
			continue
		}
		pages = append(pages, transfer.LinkedPage{
			PageID:                     p.ID,
			PageName:                   p.Name,
			PageAccessToken:            p.AccessToken,
			InstagramBusinessAccountID: p.InstagramBusinessAccount.ID,
			Username:                   p.InstagramBusinessAccount.Username,
		})
	}
	return pages, nil
}

func (ig *instagramService) Publish(ctx context.Context, igUserID, accessToken, imageURL, caption string) (string, error) {
	container := url.Values{}
	container.Set("image_url", imageURL)
	container.Set("caption", caption)
	container.Set("access_token", accessToken)

	var created transfer.GraphIDResponse
	if err := ig.post(ctx, fmt.Sprintf("/%s/media", igUserID), container, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", &ExternalServiceError{Service: "graph", Message: "no container id returned"}
	}

	publish := url.Values{}
	publish.Set("creation_id", created.ID)
	publish.Set("access_token", accessToken)

	var published transfer.GraphIDResponse
	if err := ig.post(ctx, fmt.Sprintf("/%s/media_publish", igUserID), publish, &published); err != nil {
		return "", err
	}
	if published.ID == "" {
		return "", &ExternalServiceError{Service: "graph", Message: "no media id returned"}
	}

	slog.Info("instagram media published", "ig_user_id", igUserID, "container_id", created.ID, "media_id", published.ID)
	return published.ID, nil
}

func (ig *instagramService) PostComment(ctx context.Context, mediaID, accessToken, message string) error {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", accessToken)

	var result transfer.GraphIDResponse
	return ig.post(ctx, fmt.Sprintf("/%s/comments", mediaID), form, &result)
}

func (ig *instagramService) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ig.cfg.GraphBaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	return ig.do(req, out)
}

func (ig *instagramService) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ig.cfg.GraphBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ig.do(req, out)
}

// do fails on a populated error object even when the status is 200.
func (ig *instagramService) do(req *http.Request, out any) error {
	resp, err := ig.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return &ExternalServiceError{Service: "graph", Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ExternalServiceError{Service: "graph", StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var envelope struct {
		Error *transfer.GraphError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		slog.Info("graph api error", "status", resp.StatusCode, "code", envelope.Error.Code, "error", envelope.Error.Message)
		return &ExternalServiceError{Service: "graph", StatusCode: resp.StatusCode, Message: envelope.Error.Message}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ExternalServiceError{Service: "graph", StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ExternalServiceError{Service: "graph", StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}
