package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID              int64          `db:"id" json:"id"`
	BrandID         int64          `db:"brand_id" json:"brand_id"`
	BucketID        *int64         `db:"bucket_id" json:"bucket_id,omitempty"`
	SocialAccountID *int64         `db:"social_account_id" json:"social_account_id,omitempty"`
	Caption         string         `db:"caption" json:"caption"`
	Hashtags        pq.StringArray `db:"hashtags" json:"hashtags"`
	PinnedComment   string         `db:"pinned_comment" json:"pinned_comment"`
	ImageURL        string         `db:"image_url" json:"image_url"`
	Status          string         `db:"status" json:"status"` // draft, scheduled, published, failed
	ScheduledAt     *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	PublishedAt     *time.Time     `db:"published_at" json:"published_at,omitempty"`
	InstagramPostID *string        `db:"instagram_post_id" json:"instagram_post_id,omitempty"`
	ErrorMessage    *string        `db:"error_message" json:"error_message,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

// PublishCaption is the text sent to Instagram: caption followed by hashtags.
func (p *Post) PublishCaption() string {
	if len(p.Hashtags) == 0 {
		return p.Caption
	}
	return p.Caption + "\n\n" + strings.Join(p.Hashtags, " ")
}
