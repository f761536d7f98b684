package models

import (
	"time"

	"github.com/lib/pq"
)

type PromptTemplate struct {
	ID            int64          `db:"id" json:"id"`
	BrandID       int64          `db:"brand_id" json:"brand_id"`
	Version       int            `db:"version" json:"version"`
	SystemPrompt  string         `db:"system_prompt" json:"system_prompt"`
	Rules         string         `db:"rules" json:"rules"`
	OutputShape   string         `db:"output_shape" json:"output_shape"`
	RequiredVocab pq.StringArray `db:"required_vocab" json:"required_vocab"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}
