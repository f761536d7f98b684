package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encryptedToken(t *testing.T, plain string) string {
	t.Helper()
	enc, err := utils.Encrypt([]byte(plain), utils.DeriveKey(testConfig("").SecretKey))
	require.NoError(t, err)
	return enc
}

func newPublishFixture(t *testing.T, post *models.Post) (PublishService, *fakePosts, *fakeInstagram) {
	posts := newFakePosts(post)
	ig := &fakeInstagram{}
	accounts := newFakeAccounts(
		&models.SocialAccount{ID: 2, UserID: 10, Platform: models.PlatformInstagram, InstagramBusinessAccountID: "ig-new", AccessToken: encryptedToken(t, "new-token"), CreatedAt: time.Now()},
		&models.SocialAccount{ID: 1, UserID: 10, Platform: models.PlatformInstagram, InstagramBusinessAccountID: "ig-old", AccessToken: encryptedToken(t, "old-token"), CreatedAt: time.Now().Add(-time.Hour)},
	)
	brands := &fakeBrands{brands: map[int64]*models.Brand{1: {ID: 1, UserID: 10, Name: "Calm Co"}}}

	return NewPublishService(testConfig(""), posts, accounts, brands, ig), posts, ig
}

func TestPublishUsesOldestAccountAndMarksPublished(t *testing.T) {
	svc, posts, ig := newPublishFixture(t, &models.Post{
		ID: 7, BrandID: 1, Caption: "Quiet work.", Hashtags: pq.StringArray{"#focus"},
		PinnedComment: "Save this.", ImageURL: "https://cdn.example.com/a.svg", Status: models.PostStatusScheduled,
	})

	res, err := svc.Publish(context.Background(), 7)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "ig-media-1", res.InstagramPostID)
	assert.Equal(t, int64(7), res.PostID)
	assert.Equal(t, "old-token", ig.lastToken)
	assert.Equal(t, "Quiet work.\n\n#focus", ig.lastCaption)
	assert.Equal(t, []string{"Save this."}, ig.comments)
	assert.Equal(t, models.PostStatusPublished, posts.posts[7].Status)
}

func TestPublishFailureMarksPostFailed(t *testing.T) {
	svc, posts, ig := newPublishFixture(t, &models.Post{
		ID: 7, BrandID: 1, Caption: "c", ImageURL: "https://cdn.example.com/a.svg", Status: models.PostStatusDraft,
	})
	ig.publishErr = &ExternalServiceError{Service: "graph", Message: "Invalid OAuth access token."}

	_, err := svc.Publish(context.Background(), 7)
	require.Error(t, err)

	p := posts.posts[7]
	assert.Equal(t, models.PostStatusFailed, p.Status)
	require.NotNil(t, p.ErrorMessage)
	assert.Contains(t, *p.ErrorMessage, "Invalid OAuth access token.")
}

func TestPublishMissingImageMarksFailed(t *testing.T) {
	svc, posts, ig := newPublishFixture(t, &models.Post{ID: 7, BrandID: 1, Caption: "c", Status: models.PostStatusDraft})

	_, err := svc.Publish(context.Background(), 7)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, models.PostStatusFailed, posts.posts[7].Status)
	assert.Zero(t, ig.publishCalls)
}

func TestPublishMissingPost(t *testing.T) {
	svc, _, ig := newPublishFixture(t, &models.Post{ID: 7, BrandID: 1})

	_, err := svc.Publish(context.Background(), 99)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Zero(t, ig.publishCalls)
}

func TestPublishRefusesFailedAndPublishedPosts(t *testing.T) {
	previous := "Invalid OAuth access token."
	cases := []struct {
		status string
		want   string
	}{
		{models.PostStatusFailed, "cannot be published"},
		{models.PostStatusPublished, "already published"},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			svc, posts, ig := newPublishFixture(t, &models.Post{
				ID: 7, BrandID: 1, Caption: "c", ImageURL: "https://cdn.example.com/a.svg",
				Status: tc.status, ErrorMessage: &previous,
			})

			_, err := svc.Publish(context.Background(), 7)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Message, tc.want)

			assert.Zero(t, ig.publishCalls)
			assert.Equal(t, tc.status, posts.posts[7].Status)
			assert.Equal(t, previous, *posts.posts[7].ErrorMessage)
		})
	}
}
