package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/maheshrc27/postpilot/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	StateTTL            = 10 * time.Minute
	refreshConcurrency  = 10
	errInvalidState     = "Invalid state"
	errStateExpired     = "State expired"
	errNoEligiblePages  = "No Facebook page with a linked Instagram business account was found"
	errPageNotCandidate = "page_id is not one of the pages offered for this state"
)

var DefaultInstagramScopes = []string{
	"instagram_basic",
	"instagram_content_publish",
	"pages_show_list",
	"pages_read_engagement",
	"business_management",
}

type OAuthService interface {
	Start(ctx context.Context, userID int64, req transfer.AuthStartRequest) (*transfer.AuthStartResponse, error)
	// Callback returns *SelectionRequiredError when several pages qualify.
	Callback(ctx context.Context, code, state, providerError string) (*transfer.AuthConnectedResponse, error)
	Complete(ctx context.Context, userID int64, state, pageID string) (*transfer.AuthConnectedResponse, error)
	Refresh(ctx context.Context, socialAccountID *int64) ([]transfer.TokenRefreshResult, error)
}

type oauthService struct {
	cfg    config.Meta
	key    []byte
	tm     repository.TransactionManager
	states repository.OAuthStateRepository
	sa     repository.SocialAccountRepository
	br     repository.BrandRepository
	ig     InstagramService
	client *http.Client
	now    func() time.Time
}

func NewOAuthService(
	cfg config.Config,
	tm repository.TransactionManager,
	states repository.OAuthStateRepository,
	sa repository.SocialAccountRepository,
	br repository.BrandRepository,
	ig InstagramService,
	client *http.Client) OAuthService {
	if client == nil {
		client = http.DefaultClient
	}
	return &oauthService{
		cfg:    cfg.Meta,
		key:    utils.DeriveKey(cfg.SecretKey),
		tm:     tm,
		states: states,
		sa:     sa,
		br:     br,
		ig:     ig,
		client: client,
		now:    time.Now,
	}
}

func (s *oauthService) oauthConfig(redirectURI string, scopes []string) *oauth2.Config {
	if redirectURI == "" {
		redirectURI = s.cfg.RedirectURI
	}
	return &oauth2.Config{
		ClientID:     s.cfg.AppID,
		ClientSecret: s.cfg.AppSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   s.cfg.AuthURL,
			TokenURL:  s.cfg.GraphBaseURL + "/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (s *oauthService) Start(ctx context.Context, userID int64, req transfer.AuthStartRequest) (*transfer.AuthStartResponse, error) {
	if userID == 0 {
		return nil, &UnauthorizedError{Message: "user is not authenticated"}
	}

	if req.BrandID != nil {
		owned, err := s.br.CheckByUserID(ctx, *req.BrandID, userID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, &NotFoundError{Resource: "brand", ID: *req.BrandID}
		}
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = DefaultInstagramScopes
	}
	redirectURI := strings.TrimSpace(req.RedirectURI)
	if redirectURI == "" {
		redirectURI = s.cfg.RedirectURI
	}

	state, err := utils.GenerateState()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	_, err = s.states.Create(ctx, &models.OAuthState{
		State:     state,
		UserID:    userID,
		BrandID:   req.BrandID,
		Provider:  models.PlatformInstagram,
		ExpiresAt: s.now().Add(StateTTL),
		Metadata: models.StateMetadata{
			Scopes:      scopes,
			RedirectURI: redirectURI,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store oauth state: %w", err)
	}

	authURL := s.oauthConfig(redirectURI, scopes).AuthCodeURL(state)
	return &transfer.AuthStartResponse{AuthURL: authURL, State: state}, nil
}

// loadState returns the live state row. Expired rows are removed on sight.
func (s *oauthService) loadState(ctx context.Context, state string) (*models.OAuthState, error) {
	st, err := s.states.GetByState(ctx, state)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, &ValidationError{Message: errInvalidState}
	}
	if st.Expired(s.now()) {
		if _, err := s.states.Delete(ctx, state); err != nil {
			slog.Info(err.Error())
		}
		return nil, &ValidationError{Message: errStateExpired}
	}
	return st, nil
}

func (s *oauthService) Callback(ctx context.Context, code, state, providerError string) (*transfer.AuthConnectedResponse, error) {
	if providerError != "" {
		if state != "" {
			if _, err := s.states.Delete(ctx, state); err != nil {
				slog.Info(err.Error())
			}
		}
		return nil, validationf("authorization was not granted: %s", providerError)
	}
	if code == "" || state == "" {
		return nil, validationf("code and state are required")
	}

	st, err := s.loadState(ctx, state)
	if err != nil {
		return nil, err
	}
	// The code behind an awaiting state has already been exchanged.
	if st.AwaitingSelection() {
		return nil, &ValidationError{Message: errInvalidState}
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, s.client)
	token, err := s.oauthConfig(st.Metadata.RedirectURI, st.Metadata.Scopes).Exchange(exchangeCtx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, &ExternalServiceError{Service: "oauth", Message: oauthErrorMessage(err)}
	}

	long, err := s.ig.ExchangeLongLivedToken(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	pages, err := s.ig.ListPages(ctx, long.AccessToken)
	if err != nil {
		return nil, err
	}

	switch len(pages) {
	case 0:
		if _, err := s.states.Delete(ctx, state); err != nil {
			slog.Info(err.Error())
		}
		return nil, &ValidationError{Message: errNoEligiblePages}
	case 1:
		return s.connect(ctx, st, pages[0], long.AccessToken, long.ExpiresAt)
	}

	pending := transfer.PendingTokens{
		UserAccessToken: long.AccessToken,
		ExpiresAt:       long.ExpiresAt,
		PageTokens:      make(map[string]string, len(pages)),
	}
	candidates := make([]models.PageCandidate, 0, len(pages))
	for _, p := range pages {
		pending.PageTokens[p.PageID] = p.PageAccessToken
		candidates = append(candidates, models.PageCandidate{
			ID:                         p.PageID,
			Name:                       p.PageName,
			InstagramBusinessAccountID: p.InstagramBusinessAccountID,
			Username:                   p.Username,
		})
	}

	sealed, err := utils.SealJSON(pending, s.key)
	if err != nil {
		return nil, err
	}

	md := st.Metadata
	md.Pages = candidates
	md.SealedTokens = sealed
	if err := s.states.UpdateMetadata(ctx, state, md); err != nil {
		return nil, err
	}

	return nil, &SelectionRequiredError{State: state, Pages: candidates}
}

func (s *oauthService) Complete(ctx context.Context, userID int64, state, pageID string) (*transfer.AuthConnectedResponse, error) {
	if userID == 0 {
		return nil, &UnauthorizedError{Message: "user is not authenticated"}
	}
	if state == "" || pageID == "" {
		return nil, validationf("state and page_id are required")
	}

	st, err := s.loadState(ctx, state)
	if err != nil {
		return nil, err
	}
	if st.UserID != userID {
		return nil, &UnauthorizedError{Message: "state belongs to another user"}
	}
	if !st.AwaitingSelection() {
		return nil, &ValidationError{Message: errInvalidState}
	}

	var chosen *models.PageCandidate
	for i := range st.Metadata.Pages {
		if st.Metadata.Pages[i].ID == pageID {
			chosen = &st.Metadata.Pages[i]
			break
		}
	}
	if chosen == nil {
		return nil, &ValidationError{Message: errPageNotCandidate}
	}

	var pending transfer.PendingTokens
	if err := utils.OpenJSON(st.Metadata.SealedTokens, s.key, &pending); err != nil {
		return nil, fmt.Errorf("failed to open pending tokens: %w", err)
	}
	pageToken, ok := pending.PageTokens[pageID]
	if !ok || pageToken == "" {
		return nil, &ValidationError{Message: errPageNotCandidate}
	}

	page := transfer.LinkedPage{
		PageID:                     chosen.ID,
		PageName:                   chosen.Name,
		PageAccessToken:            pageToken,
		InstagramBusinessAccountID: chosen.InstagramBusinessAccountID,
		Username:                   chosen.Username,
	}
	return s.connect(ctx, st, page, pending.UserAccessToken, pending.ExpiresAt)
}

// connect upserts the account and consumes the state in one transaction. A
// state already consumed by a concurrent request rolls the upsert back.
func (s *oauthService) connect(ctx context.Context, st *models.OAuthState, page transfer.LinkedPage, userToken string, expiresAt time.Time) (*transfer.AuthConnectedResponse, error) {
	encPage, err := utils.Encrypt([]byte(page.PageAccessToken), s.key)
	if err != nil {
		return nil, err
	}
	encUser, err := utils.Encrypt([]byte(userToken), s.key)
	if err != nil {
		return nil, err
	}

	account := &models.SocialAccount{
		UserID:                     st.UserID,
		BrandID:                    st.BrandID,
		Platform:                   models.PlatformInstagram,
		PageID:                     page.PageID,
		PageName:                   page.PageName,
		InstagramBusinessAccountID: page.InstagramBusinessAccountID,
		Username:                   page.Username,
		AccessToken:                encPage,
		UserAccessToken:            encUser,
		TokenExpiresAt:             expiresAt,
	}

	var accountID int64
	err = s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		id, err := s.sa.Upsert(ctx, account)
		if err != nil {
			return err
		}
		deleted, err := s.states.Delete(ctx, st.State)
		if err != nil {
			return err
		}
		if deleted != 1 {
			return &ValidationError{Message: errInvalidState}
		}
		accountID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("instagram account connected", "user_id", st.UserID, "social_account_id", accountID, "page_id", page.PageID)

	return &transfer.AuthConnectedResponse{
		Success: true,
		Account: transfer.ConnectedAccount{
			SocialAccountID: accountID,
			PageID:          page.PageID,
			PageName:        page.PageName,
			Username:        page.Username,
		},
	}, nil
}

func (s *oauthService) Refresh(ctx context.Context, socialAccountID *int64) ([]transfer.TokenRefreshResult, error) {
	var accounts []*models.SocialAccount
	if socialAccountID != nil {
		acc, err := s.sa.GetByID(ctx, *socialAccountID)
		if err != nil {
			return nil, err
		}
		if acc == nil || acc.Platform != models.PlatformInstagram {
			return nil, &NotFoundError{Resource: "social account", ID: *socialAccountID}
		}
		accounts = append(accounts, acc)
	} else {
		list, err := s.sa.ListByPlatform(ctx, models.PlatformInstagram)
		if err != nil {
			return nil, err
		}
		accounts = list
	}

	results := make([]transfer.TokenRefreshResult, len(accounts))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, refreshConcurrency)

	for i, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[i] = transfer.TokenRefreshResult{SocialAccountID: acc.ID, Refreshed: true}
			if err := s.refreshOne(ctx, acc); err != nil {
				slog.Info("token refresh failed", "social_account_id", acc.ID, "error", err.Error())
				results[i].Refreshed = false
				results[i].Error = err.Error()
			}
		}(i, acc)
	}

	wg.Wait()
	return results, nil
}

func (s *oauthService) refreshOne(ctx context.Context, acc *models.SocialAccount) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during refresh: %v", r)
		}
	}()

	if acc.UserAccessToken == "" {
		return errors.New("no user token stored for account")
	}
	userToken, err := utils.Decrypt(acc.UserAccessToken, s.key)
	if err != nil {
		return fmt.Errorf("failed to decrypt user token: %w", err)
	}

	long, err := s.ig.ExchangeLongLivedToken(ctx, userToken)
	if err != nil {
		return err
	}

	pages, err := s.ig.ListPages(ctx, long.AccessToken)
	if err != nil {
		return err
	}

	var match *transfer.LinkedPage
	for i := range pages {
		if pages[i].PageID == acc.PageID {
			match = &pages[i]
			break
		}
	}
	if match == nil {
		return fmt.Errorf("page %s is no longer accessible", acc.PageID)
	}

	encPage, err := utils.Encrypt([]byte(match.PageAccessToken), s.key)
	if err != nil {
		return err
	}
	encUser, err := utils.Encrypt([]byte(long.AccessToken), s.key)
	if err != nil {
		return err
	}

	return s.sa.SetToken(ctx, acc.ID, encPage, encUser, long.ExpiresAt)
}

func oauthErrorMessage(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorDescription != "" {
			return re.ErrorDescription
		}
		if len(re.Body) > 0 {
			return strings.TrimSpace(string(re.Body))
		}
	}
	return err.Error()
}
