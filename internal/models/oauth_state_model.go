package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type OAuthState struct {
	ID        int64         `db:"id" json:"id"`
	State     string        `db:"state" json:"state"`
	UserID    int64         `db:"user_id" json:"user_id"`
	BrandID   *int64        `db:"brand_id" json:"brand_id,omitempty"`
	Provider  string        `db:"provider" json:"provider"`
	ExpiresAt time.Time     `db:"expires_at" json:"expires_at"`
	Metadata  StateMetadata `db:"metadata" json:"metadata"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

func (s *OAuthState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// AwaitingSelection reports whether the callback stored candidate pages.
func (s *OAuthState) AwaitingSelection() bool {
	return len(s.Metadata.Pages) > 0 && s.Metadata.SealedTokens != ""
}

type StateMetadata struct {
	Scopes      []string        `json:"scopes,omitempty"`
	RedirectURI string          `json:"redirect_uri,omitempty"`
	Pages       []PageCandidate `json:"pages,omitempty"`
	// SealedTokens is the encrypted JSON of the pending tokens.
	SealedTokens string `json:"sealed_tokens,omitempty"`
}

type PageCandidate struct {
	ID                         string `json:"id"`
	Name                       string `json:"name"`
	InstagramBusinessAccountID string `json:"instagram_business_account_id"`
	Username                   string `json:"username"`
}

func (m StateMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *StateMetadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = StateMetadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("state metadata: unsupported column type")
	}
}
