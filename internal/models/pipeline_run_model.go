package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

type PipelineRun struct {
	ID           int64       `db:"id" json:"id"`
	BrandID      int64       `db:"brand_id" json:"brand_id"`
	Status       string      `db:"status" json:"status"`
	Metadata     RunMetadata `db:"metadata" json:"metadata"`
	ErrorMessage *string     `db:"error_message" json:"error_message,omitempty"`
	ErrorStack   *string     `db:"error_stack" json:"error_stack,omitempty"`
	StartedAt    time.Time   `db:"started_at" json:"started_at"`
	FinishedAt   *time.Time  `db:"finished_at" json:"finished_at,omitempty"`
}

type RunMetadata struct {
	BucketID        int64  `json:"bucket_id,omitempty"`
	PostID          int64  `json:"post_id,omitempty"`
	InstagramPostID string `json:"instagram_post_id,omitempty"`
	DryRun          bool   `json:"dry_run,omitempty"`
}

func (m RunMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *RunMetadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = RunMetadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("run metadata: unsupported column type")
	}
}
