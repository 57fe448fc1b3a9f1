// Package auth drives sign-in for all catalog providers: the OAuth
// authorization-code flow (redirect, callback, token exchange, identity
// resolution) and the direct token path for PAT-only providers. Each
// sign-in attempt is an independent state machine keyed by its server-held
// state token.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/providers"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
	"golang.org/x/oauth2"
)

// exchangeTimeout bounds the code-for-token call. The exchange is never
// retried: providers consume the authorization code on first use.
const exchangeTimeout = 30 * time.Second

// Coordinator owns the sign-in state machines, the session store and
// account resolution.
type Coordinator struct {
	registry *providers.Registry
	accounts *AccountStore
	Sessions *SessionStore
	states   *stateStore

	// httpClient is used for token exchange and identity fetch; replaceable
	// in tests.
	httpClient *http.Client

	clientIDs     map[string]string
	clientSecrets map[string]string
}

// Credentials are the inputs to direct (non-redirect) authentication.
type Credentials struct {
	Token string `json:"token"`
}

// Status is the answer to an authentication status probe. Never an error:
// a missing or expired session is simply Authenticated=false.
type Status struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Provider      string `json:"provider,omitempty"`
}

// NewCoordinator builds a Coordinator over the provider registry. Client
// ids/secrets come from per-provider config and stay private to this
// package.
func NewCoordinator(registry *providers.Registry, accounts *AccountStore, sessions *SessionStore, clientIDs, clientSecrets map[string]string) *Coordinator {
	return &Coordinator{
		registry:      registry,
		accounts:      accounts,
		Sessions:      sessions,
		states:        newStateStore(),
		httpClient:    &http.Client{Timeout: exchangeTimeout},
		clientIDs:     clientIDs,
		clientSecrets: clientSecrets,
	}
}

// oauthConfig assembles the oauth2.Config for one provider and redirect base.
func (c *Coordinator) oauthConfig(p *providers.Provider, redirectBase string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientIDs[p.Name],
		ClientSecret: c.clientSecrets[p.Name],
		Scopes:       p.Scopes,
		RedirectURL:  redirectBase + "/api/auth/callback/" + p.Name,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.AuthURL,
			TokenURL: p.TokenURL,
		},
	}
}

// StartAuthorization begins the redirect flow and returns the provider
// authorization URL bound to a fresh single-use state token.
func (c *Coordinator) StartAuthorization(provider, redirectBase string) (string, error) {
	p, err := c.registry.Get(provider)
	if err != nil || !p.Usable() || p.AuthStyle != providers.AuthOAuth {
		return "", fmt.Errorf("%w: %s", ErrProviderUnavailable, provider)
	}

	state := c.states.Issue(provider)
	url := c.oauthConfig(p, redirectBase).AuthCodeURL(state)
	slog.Debug("authorization started", "provider", provider)
	return url, nil
}

// HandleCallback completes the redirect flow. The state token is consumed
// exactly once — a second callback with the same token fails with
// ErrInvalidState regardless of what happened to the first.
func (c *Coordinator) HandleCallback(ctx context.Context, provider, code, state, redirectBase string) (*models.Session, *models.Account, error) {
	p, err := c.registry.Get(provider)
	if err != nil || !p.Usable() {
		return nil, nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, provider)
	}

	if !c.states.Consume(provider, state) {
		return nil, nil, fmt.Errorf("%w: provider %s", ErrInvalidState, provider)
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	exchangeCtx = context.WithValue(exchangeCtx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauthConfig(p, redirectBase).Exchange(exchangeCtx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}

	identity, err := fetchIdentity(ctx, c.httpClient, p, token.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrIdentityFetchFailed, err)
	}

	return c.establish(ctx, p.Name, identity, token.AccessToken)
}

// AuthenticateDirect validates a personal access token against the provider
// and establishes a session. This is the only sign-in path for PAT-only
// providers (azure, sourcehut) and an alternative for the rest.
func (c *Coordinator) AuthenticateDirect(ctx context.Context, provider string, creds Credentials) (*models.Session, *models.Account, error) {
	p, err := c.registry.Get(provider)
	if err != nil || !p.Usable() {
		return nil, nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, provider)
	}
	if creds.Token == "" {
		return nil, nil, fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}

	identity, err := fetchIdentity(ctx, c.httpClient, p, creds.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	return c.establish(ctx, p.Name, identity, creds.Token)
}

// establish resolves the account and mints a session.
func (c *Coordinator) establish(ctx context.Context, provider string, identity *Identity, accessToken string) (*models.Session, *models.Account, error) {
	acct, err := c.accounts.Resolve(ctx, provider, identity, accessToken)
	if err != nil {
		return nil, nil, err
	}

	sess := c.Sessions.Create(acct.ID)
	slog.Info("session established", "provider", provider, "username", acct.Username)
	return sess, acct, nil
}

// SignOut removes the session. Idempotent: signing out an absent session
// is not an error.
func (c *Coordinator) SignOut(sessionID string) {
	c.Sessions.Delete(sessionID)
}

// Status reports the authentication state of a session id. Missing and
// expired sessions yield Authenticated=false, never an error.
func (c *Coordinator) Status(ctx context.Context, sessionID string) Status {
	sess, ok := c.Sessions.Get(sessionID)
	if !ok {
		return Status{}
	}
	acct, err := c.accounts.Get(ctx, sess.AccountID)
	if err != nil {
		slog.Warn("status: account lookup failed", "session", sess.ID[:8], "error", err)
		return Status{}
	}
	return Status{Authenticated: true, Username: acct.Username, Provider: acct.Provider}
}

// Accounts lists every identity linked to a session (primary first).
func (c *Coordinator) Accounts(ctx context.Context, sessionID string) ([]*models.Account, error) {
	sess, ok := c.Sessions.Get(sessionID)
	if !ok {
		return nil, nil
	}
	ids := append([]string{sess.AccountID}, sess.LinkedAccountIDs...)
	out := make([]*models.Account, 0, len(ids))
	for _, id := range ids {
		acct, err := c.accounts.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading linked account %s: %w", id, err)
		}
		out = append(out, acct)
	}
	return out, nil
}

// Account loads the primary account behind a session.
func (c *Coordinator) Account(ctx context.Context, sessionID string) (*models.Account, bool) {
	sess, ok := c.Sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	acct, err := c.accounts.Get(ctx, sess.AccountID)
	if err != nil {
		return nil, false
	}
	return acct, true
}

// PruneStates drops expired sign-in attempts; called from the sweeper.
func (c *Coordinator) PruneStates() int {
	return c.states.Prune()
}

// SetHTTPClient replaces the outbound client (tests).
func (c *Coordinator) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
