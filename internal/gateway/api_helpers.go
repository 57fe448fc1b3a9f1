package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/analysis"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/auth"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/ingest"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/providers"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
)

// sessionCookie carries the session id for browser clients; API clients may
// send the same id as a bearer token instead.
const sessionCookie = "repocloner_session"

// --- HTTP response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps sentinel errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidState),
		errors.Is(err, auth.ErrTokenExchangeFailed),
		errors.Is(err, auth.ErrIdentityFetchFailed):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ingest.ErrNotFound),
		errors.Is(err, analysis.ErrJobNotFound),
		errors.Is(err, providers.ErrProviderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, analysis.ErrRepositoryNotReady):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ingest.ErrURLProviderMismatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, analysis.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, auth.ErrProviderUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Session resolution ---

// sessionID extracts the caller's session id from the cookie or the
// Authorization header. Empty when neither is present.
func sessionID(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// requireAccount resolves the request's session to its primary account,
// writing a 401 when there is none.
func (gw *Gateway) requireAccount(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	acct, ok := gw.auth.Account(r.Context(), sessionID(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return acct, true
}

// setSessionCookie installs the session cookie on the response.
func setSessionCookie(w http.ResponseWriter, sess *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
