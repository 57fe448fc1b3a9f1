package auth

import "errors"

// Sentinel errors for the sign-in state machine. Handlers map these to
// HTTP statuses and OAuth redirect messages; match with errors.Is.
var (
	// ErrProviderUnavailable: the provider is disabled or missing secrets.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidState: the callback state token is unknown, expired or reused.
	ErrInvalidState = errors.New("invalid state token")

	// ErrTokenExchangeFailed: the code-for-token exchange was rejected or the
	// token endpoint was unreachable. Never retried — the provider may have
	// already consumed the authorization code.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrIdentityFetchFailed: the provider's user endpoint failed after a
	// successful token exchange.
	ErrIdentityFetchFailed = errors.New("identity fetch failed")

	// ErrInvalidCredentials: direct (token/PAT) authentication was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
