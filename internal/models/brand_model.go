package models

import "time"

type Brand struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	DefaultTone string    `db:"default_tone" json:"default_tone"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type ContentBucket struct {
	ID          int64     `db:"id" json:"id"`
	BrandID     int64     `db:"brand_id" json:"brand_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	PostingDay  *string   `db:"posting_day" json:"posting_day,omitempty"` // lower-case weekday, nil = any day
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
