package models

import (
	"time"
)

const PlatformInstagram = "instagram"

type SocialAccount struct {
	ID                         int64     `db:"id" json:"id"`
	UserID                     int64     `db:"user_id" json:"user_id"`
	BrandID                    *int64    `db:"brand_id" json:"brand_id,omitempty"`
	Platform                   string    `db:"platform" json:"platform"`
	PageID                     string    `db:"page_id" json:"page_id"`
	PageName                   string    `db:"page_name" json:"page_name"`
	InstagramBusinessAccountID string    `db:"instagram_business_account_id" json:"instagram_business_account_id"`
	Username                   string    `db:"username" json:"username"`
	AccessToken                string    `db:"access_token" json:"-"`
	UserAccessToken            string    `db:"user_access_token" json:"-"`
	TokenExpiresAt             time.Time `db:"token_expires_at" json:"token_expires_at"`
	CreatedAt                  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time `db:"updated_at" json:"updated_at"`
}
