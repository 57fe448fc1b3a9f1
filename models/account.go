package models

import "time"

// Account identifies a user of one git-hosting provider.
// The same human signing in through two providers yields two Accounts;
// uniqueness is (provider, provider_user_id).
type Account struct {
	ID             string    `json:"id"               db:"id"`
	Provider       string    `json:"provider"         db:"provider"`
	ProviderUserID string    `json:"provider_user_id" db:"provider_user_id"`
	Username       string    `json:"username"         db:"username"`
	Email          string    `json:"email,omitempty"  db:"email"`
	// AccessToken is the provider credential used for authenticated clones.
	// Never serialised to API responses.
	AccessToken string    `json:"-"          db:"access_token"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Session maps an opaque token to an authenticated Account. Sessions are
// owned exclusively by the session store and are never persisted.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	// LinkedAccountIDs holds additional identities attached by signing in
	// with another provider while this session was active.
	LinkedAccountIDs []string  `json:"linked_account_ids,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its TTL at time now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
