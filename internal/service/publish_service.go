package service

import (
	"context"
	"fmt"
	"log/slog"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

type PublishService interface {
	Publish(ctx context.Context, postID int64) (*transfer.PublishResponse, error)
	// PublishWith sends post to the account and records it as published.
	PublishWith(ctx context.Context, post *models.Post, acc *models.SocialAccount) (string, error)
	ResolveAccount(ctx context.Context, brandID int64, accountID *int64) (*models.SocialAccount, error)
}

type publishService struct {
	key []byte
	pr  repository.PostRepository
	sa  repository.SocialAccountRepository
	br  repository.BrandRepository
	ig  InstagramService
}

func NewPublishService(
	cfg config.Config,
	pr repository.PostRepository,
	sa repository.SocialAccountRepository,
	br repository.BrandRepository,
	ig InstagramService) PublishService {
	return &publishService{
		key: utils.DeriveKey(cfg.SecretKey),
		pr:  pr,
		sa:  sa,
		br:  br,
		ig:  ig,
	}
}

func (s *publishService) Publish(ctx context.Context, postID int64) (*transfer.PublishResponse, error) {
	if postID == 0 {
		return nil, validationf("post_id is required")
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, &NotFoundError{Resource: "post", ID: postID}
	}

	// Only draft and scheduled posts move to published, so anything else is
	// refused before a Graph call and keeps its stored status.
	if err := checkPublishable(post); err != nil {
		return nil, err
	}

	mediaID, err := s.publish(ctx, post)
	if err != nil {
		if markErr := s.pr.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
			slog.Info(markErr.Error())
		}
		return nil, err
	}

	return &transfer.PublishResponse{Success: true, InstagramPostID: mediaID, PostID: post.ID}, nil
}

func checkPublishable(post *models.Post) error {
	switch post.Status {
	case models.PostStatusDraft, models.PostStatusScheduled:
		return nil
	case models.PostStatusPublished:
		return validationf("post %d is already published", post.ID)
	}
	return validationf("post %d has status %s and cannot be published", post.ID, post.Status)
}

func (s *publishService) publish(ctx context.Context, post *models.Post) (string, error) {
	acc, err := s.ResolveAccount(ctx, post.BrandID, post.SocialAccountID)
	if err != nil {
		return "", err
	}

	return s.PublishWith(ctx, post, acc)
}

// ResolveAccount prefers the stored account and falls back to the brand
// owner's oldest Instagram account.
func (s *publishService) ResolveAccount(ctx context.Context, brandID int64, accountID *int64) (*models.SocialAccount, error) {
	if accountID != nil {
		acc, err := s.sa.GetByID(ctx, *accountID)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			return nil, &NotFoundError{Resource: "social account", ID: *accountID}
		}
		return acc, nil
	}

	brand, err := s.br.GetByID(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, &NotFoundError{Resource: "brand", ID: brandID}
	}

	acc, err := s.sa.GetOldestByUserID(ctx, brand.UserID, models.PlatformInstagram)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, &NotFoundError{Resource: "instagram account for brand owner"}
	}
	return acc, nil
}

func (s *publishService) PublishWith(ctx context.Context, post *models.Post, acc *models.SocialAccount) (string, error) {
	if err := checkPublishable(post); err != nil {
		return "", err
	}
	if post.ImageURL == "" {
		return "", validationf("post %d has no image", post.ID)
	}

	accessToken, err := utils.Decrypt(acc.AccessToken, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}

	mediaID, err := s.ig.Publish(ctx, acc.InstagramBusinessAccountID, accessToken, post.ImageURL, post.PublishCaption())
	if err != nil {
		return "", err
	}

	if err := s.pr.MarkPublished(ctx, post.ID, mediaID); err != nil {
		return "", fmt.Errorf("published as %s but failed to update post: %w", mediaID, err)
	}

	if post.PinnedComment != "" {
		if err := s.ig.PostComment(ctx, mediaID, accessToken, post.PinnedComment); err != nil {
			slog.Info("pinned comment failed", "post_id", post.ID, "media_id", mediaID, "error", err.Error())
		}
	}

	return mediaID, nil
}
