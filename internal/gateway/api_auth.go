package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/auth"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
)

// handleAuthStatus reports whether the caller holds a live session. Always
// 200: a missing or expired session is simply authenticated=false.
func (gw *Gateway) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gw.auth.Status(r.Context(), sessionID(r)))
}

// handleAuthAccounts lists every identity linked to the caller's session,
// primary first.
func (gw *Gateway) handleAuthAccounts(w http.ResponseWriter, r *http.Request) {
	if _, ok := gw.requireAccount(w, r); !ok {
		return
	}
	accounts, err := gw.auth.Accounts(r.Context(), sessionID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

type authenticateRequest struct {
	Provider string `json:"provider"`
	Token    string `json:"token"`
}

// handleAuthenticate is the direct token path: validate a PAT against the
// provider and establish (or extend) a session.
func (gw *Gateway) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, "provider is required")
		return
	}

	sess, acct, err := gw.auth.AuthenticateDirect(r.Context(), req.Provider, auth.Credentials{Token: req.Token})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sess = gw.adoptSession(r, sess, acct)
	setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"provider":      acct.Provider,
		"username":      acct.Username,
	})
}

// handleAuthStart begins the OAuth redirect flow for one provider.
func (gw *Gateway) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	authURL, err := gw.auth.StartAuthorization(provider, gw.baseURL(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleAuthCallback completes the OAuth flow. Failures are reported via
// the redirect's message parameter so the browser lands on the app, never
// on a bare error page.
func (gw *Gateway) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		msg := errParam
		if desc := q.Get("error_description"); desc != "" {
			msg = desc
		}
		redirectWithError(w, r, msg)
		return
	}

	sess, acct, err := gw.auth.HandleCallback(r.Context(), provider, q.Get("code"), q.Get("state"), gw.baseURL(r))
	if err != nil {
		msg := "authentication failed"
		switch {
		case errors.Is(err, auth.ErrInvalidState):
			msg = "sign-in attempt expired or already used"
		case errors.Is(err, auth.ErrTokenExchangeFailed):
			msg = "token exchange with provider failed"
		case errors.Is(err, auth.ErrIdentityFetchFailed):
			msg = "could not fetch identity from provider"
		case errors.Is(err, auth.ErrProviderUnavailable):
			msg = "provider is not available"
		}
		redirectWithError(w, r, msg)
		return
	}

	sess = gw.adoptSession(r, sess, acct)
	setSessionCookie(w, sess)
	http.Redirect(w, r, "/?auth=success&provider="+url.QueryEscape(acct.Provider), http.StatusFound)
}

// handleLogout removes the caller's session. Idempotent: logging out twice
// succeeds both times.
func (gw *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	gw.auth.SignOut(sessionID(r))
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// adoptSession implements the linking policy: when the caller already holds
// a live session, the new identity is linked into it and the freshly minted
// session is discarded. Accounts are linked, never merged.
func (gw *Gateway) adoptSession(r *http.Request, fresh *models.Session, acct *models.Account) *models.Session {
	existingID := sessionID(r)
	if existingID == "" || existingID == fresh.ID {
		return fresh
	}
	existing, ok := gw.auth.Sessions.Get(existingID)
	if !ok {
		return fresh
	}
	if gw.auth.Sessions.Link(existing.ID, acct.ID) {
		gw.auth.Sessions.Delete(fresh.ID)
		return existing
	}
	return fresh
}

func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?auth=error&message="+url.QueryEscape(msg), http.StatusFound)
}
