package transfer

import "time"

// GraphError is the error object the Graph API embeds in failed responses,
// sometimes with an HTTP 200 status.
type GraphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FbtraceID    string `json:"fbtrace_id"`
}

type GraphIDResponse struct {
	ID    string      `json:"id"`
	Error *GraphError `json:"error,omitempty"`
}

type GraphTokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	Error       *GraphError `json:"error,omitempty"`
}

type GraphPage struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	AccessToken              string `json:"access_token"`
	InstagramBusinessAccount *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"instagram_business_account,omitempty"`
}

type GraphPagesResponse struct {
	Data  []GraphPage `json:"data"`
	Error *GraphError `json:"error,omitempty"`
}

// LongLivedToken is a user token after the fb_exchange_token grant.
type LongLivedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LinkedPage is a page that has an Instagram business account attached.
type LinkedPage struct {
	PageID                     string `json:"page_id"`
	PageName                   string `json:"page_name"`
	PageAccessToken            string `json:"-"`
	InstagramBusinessAccountID string `json:"instagram_business_account_id"`
	Username                   string `json:"username"`
}

// PendingTokens is what a multi-page callback keeps, encrypted, until the
// user picks a page.
type PendingTokens struct {
	UserAccessToken string            `json:"user_access_token"`
	ExpiresAt       time.Time         `json:"expires_at"`
	PageTokens      map[string]string `json:"page_tokens"`
}
