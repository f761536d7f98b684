package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeBrands struct {
	brands map[int64]*models.Brand
}

func (f *fakeBrands) GetByID(_ context.Context, id int64) (*models.Brand, error) {
	return f.brands[id], nil
}

func (f *fakeBrands) CheckByUserID(_ context.Context, brandID, userID int64) (bool, error) {
	b, ok := f.brands[brandID]
	return ok && b.UserID == userID, nil
}

type fakeBuckets struct {
	buckets []*models.ContentBucket
	errFor  map[int64]error
}

func (f *fakeBuckets) GetByID(_ context.Context, id int64) (*models.ContentBucket, error) {
	for _, b := range f.buckets {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeBuckets) ListActiveByBrandID(_ context.Context, brandID int64) ([]*models.ContentBucket, error) {
	if err := f.errFor[brandID]; err != nil {
		return nil, err
	}
	var out []*models.ContentBucket
	for _, b := range f.buckets {
		if b.BrandID == brandID && b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeTemplates struct {
	latest map[int64]*models.PromptTemplate
}

func (f *fakeTemplates) GetLatestByBrandID(_ context.Context, brandID int64) (*models.PromptTemplate, error) {
	return f.latest[brandID], nil
}

type fakeSettings struct {
	rows []*models.BrandAutomation
}

func (f *fakeSettings) ListBrandAutomation(_ context.Context, brandID int64) ([]*models.BrandAutomation, error) {
	var out []*models.BrandAutomation
	for _, r := range f.rows {
		if brandID != 0 && r.ID == brandID {
			out = append(out, r)
		}
		if brandID == 0 && r.IsEnabled {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAccounts struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.SocialAccount
}

func newFakeAccounts(accs ...*models.SocialAccount) *fakeAccounts {
	f := &fakeAccounts{accounts: map[int64]*models.SocialAccount{}}
	for _, a := range accs {
		f.accounts[a.ID] = a
		if a.ID > f.nextID {
			f.nextID = a.ID
		}
	}
	return f
}

func (f *fakeAccounts) Upsert(_ context.Context, sa *models.SocialAccount) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.UserID == sa.UserID && a.PageID == sa.PageID && a.Platform == sa.Platform {
			cp := *sa
			cp.ID = a.ID
			cp.CreatedAt = a.CreatedAt
			f.accounts[a.ID] = &cp
			return a.ID, nil
		}
	}
	f.nextID++
	cp := *sa
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.accounts[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id], nil
}

func (f *fakeAccounts) GetOldestByUserID(_ context.Context, userID int64, platform string) (*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var oldest *models.SocialAccount
	for _, a := range f.accounts {
		if a.UserID != userID || a.Platform != platform {
			continue
		}
		if oldest == nil || a.CreatedAt.Before(oldest.CreatedAt) {
			oldest = a
		}
	}
	return oldest, nil
}

func (f *fakeAccounts) ListByPlatform(_ context.Context, platform string) ([]*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SocialAccount
	for id := int64(1); id <= f.nextID; id++ {
		if a, ok := f.accounts[id]; ok && a.Platform == platform {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) SetToken(_ context.Context, id int64, accessToken, userAccessToken string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return errors.New("no rows affected")
	}
	a.AccessToken = accessToken
	if userAccessToken != "" {
		a.UserAccessToken = userAccessToken
	}
	a.TokenExpiresAt = expiresAt
	return nil
}

type fakePosts struct {
	nextID int64
	posts  map[int64]*models.Post
}

func newFakePosts(posts ...*models.Post) *fakePosts {
	f := &fakePosts{posts: map[int64]*models.Post{}}
	for _, p := range posts {
		f.posts[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakePosts) GetByID(_ context.Context, id int64) (*models.Post, error) {
	return f.posts[id], nil
}

func (f *fakePosts) Create(_ context.Context, post *models.Post) (int64, error) {
	f.nextID++
	cp := *post
	cp.ID = f.nextID
	f.posts[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakePosts) MarkPublished(_ context.Context, id int64, instagramPostID string) error {
	p, ok := f.posts[id]
	if !ok || (p.Status != models.PostStatusDraft && p.Status != models.PostStatusScheduled) {
		return errors.New("post not found or status transition not allowed")
	}
	p.Status = models.PostStatusPublished
	p.InstagramPostID = &instagramPostID
	return nil
}

func (f *fakePosts) MarkFailed(_ context.Context, id int64, message string) error {
	p, ok := f.posts[id]
	if !ok || p.Status == models.PostStatusPublished {
		return errors.New("post not found or status transition not allowed")
	}
	p.Status = models.PostStatusFailed
	p.ErrorMessage = &message
	return nil
}

type fakeRuns struct {
	nextID int64
	runs   map[int64]*models.PipelineRun
	now    func() time.Time
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{runs: map[int64]*models.PipelineRun{}, now: time.Now}
}

func (f *fakeRuns) Open(_ context.Context, brandID int64, md models.RunMetadata) (int64, error) {
	f.nextID++
	f.runs[f.nextID] = &models.PipelineRun{ID: f.nextID, BrandID: brandID, Status: models.RunStatusRunning, Metadata: md, StartedAt: f.now()}
	return f.nextID, nil
}

func (f *fakeRuns) HasRunSince(_ context.Context, brandID int64, since time.Time) (bool, error) {
	for _, r := range f.runs {
		if r.BrandID == brandID && !r.StartedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRuns) GetByID(_ context.Context, id int64) (*models.PipelineRun, error) {
	return f.runs[id], nil
}

func (f *fakeRuns) close(id int64, status string, md models.RunMetadata, msg, stack string) error {
	r, ok := f.runs[id]
	if !ok || r.Status != models.RunStatusRunning {
		return errors.New("pipeline run is not running")
	}
	now := time.Now()
	r.Status = status
	r.Metadata = md
	r.FinishedAt = &now
	if msg != "" {
		r.ErrorMessage = &msg
	}
	if stack != "" {
		r.ErrorStack = &stack
	}
	return nil
}

func (f *fakeRuns) Succeed(_ context.Context, id int64, md models.RunMetadata) error {
	return f.close(id, models.RunStatusSucceeded, md, "", "")
}

func (f *fakeRuns) Fail(_ context.Context, id int64, md models.RunMetadata, message, stack string) error {
	return f.close(id, models.RunStatusFailed, md, message, stack)
}

func (f *fakeRuns) FailStale(_ context.Context, startedBefore time.Time, message string) (int64, error) {
	var n int64
	for _, r := range f.runs {
		if r.Status == models.RunStatusRunning && r.StartedAt.Before(startedBefore) {
			_ = f.close(r.ID, models.RunStatusFailed, r.Metadata, message, "")
			n++
		}
	}
	return n, nil
}

type fakeStates struct {
	mu     sync.Mutex
	nextID int64
	states map[string]*models.OAuthState
}

func newFakeStates() *fakeStates {
	return &fakeStates{states: map[string]*models.OAuthState{}}
}

func (f *fakeStates) Create(_ context.Context, s *models.OAuthState) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *s
	cp.ID = f.nextID
	f.states[s.State] = &cp
	return cp.ID, nil
}

func (f *fakeStates) GetByState(_ context.Context, state string) (*models.OAuthState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[state]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStates) UpdateMetadata(_ context.Context, state string, md models.StateMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.states[state]; ok {
		s.Metadata = md
	}
	return nil
}

func (f *fakeStates) Delete(_ context.Context, state string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.states[state]; !ok {
		return 0, nil
	}
	delete(f.states, state)
	return 1, nil
}

type stubCompletion struct {
	replies []string
	err     error
	calls   int
}

func (s *stubCompletion) Complete(_ context.Context, _ []transfer.ChatMessage) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no reply configured")
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

type fakeStorage struct {
	keys        []string
	bodies      [][]byte
	contentType string
	err         error
}

func (f *fakeStorage) Upload(_ context.Context, key string, body []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, body)
	f.contentType = contentType
	return PublicObjectURL("https://cdn.example.com", key), nil
}

type fakeInstagram struct {
	publishCalls int
	comments     []string
	publishErr   error
	lastCaption  string
	lastToken    string
}

func (f *fakeInstagram) ExchangeLongLivedToken(_ context.Context, token string) (*transfer.LongLivedToken, error) {
	return &transfer.LongLivedToken{AccessToken: "long-" + token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeInstagram) ListPages(_ context.Context, _ string) ([]transfer.LinkedPage, error) {
	return nil, nil
}

func (f *fakeInstagram) Publish(_ context.Context, _, accessToken, _, caption string) (string, error) {
	f.publishCalls++
	f.lastCaption = caption
	f.lastToken = accessToken
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return "ig-media-1", nil
}

func (f *fakeInstagram) PostComment(_ context.Context, _, _, message string) error {
	f.comments = append(f.comments, message)
	return nil
}
