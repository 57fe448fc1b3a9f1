package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/ai"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/analysis"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/auth"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/database"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/ingest"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/providers"
)

// stubAI satisfies the analysis orchestrator; gateway tests never reach it.
type stubAI struct{}

func (stubAI) Name() string                         { return "stub" }
func (stubAI) IsAvailable(ctx context.Context) bool { return true }
func (stubAI) AnalyzeRepository(ctx context.Context, req ai.Request) (string, error) {
	return "", nil
}

// identityServer fakes a provider's user endpoint for PAT sign-in.
func identityServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"username":"tester","email":"t@example.com"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()

	db, err := database.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	registry, err := providers.Load(map[string]config.ProviderConfig{
		"sourcehut": {Enabled: true, Token: "pat"},
		"github":    {Enabled: true, ClientID: "id", ClientSecret: "secret"},
	}, "")
	if err != nil {
		t.Fatal(err)
	}

	srv := identityServer(t, "pat-xyz")
	sh, _ := registry.Get("sourcehut")
	sh.IdentityURL = srv.URL

	accounts := auth.NewAccountStore(db)
	coord := auth.NewCoordinator(registry, accounts, auth.NewSessionStore(time.Hour),
		map[string]string{"github": "id"}, map[string]string{"github": "secret"})
	coord.SetHTTPClient(srv.Client())

	ingestor := ingest.New(db, registry, nil, t.TempDir())
	orchestrator := analysis.New(db, ingestor, stubAI{}, 1)

	cfg := &config.Config{}
	cfg.Server.AdminToken = "admin-secret"
	return New(cfg, registry, coord, ingestor, orchestrator)
}

// signIn authenticates via the PAT endpoint and returns the session cookie.
func signIn(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	body := `{"provider":"sourcehut","token":"pat-xyz"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/authenticate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("authenticate: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHealth(t *testing.T) {
	handler := buildHandler(newTestGateway(t))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestAuthStatusWithoutSession(t *testing.T) {
	handler := buildHandler(newTestGateway(t))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status probe must be 200, got %d", rr.Code)
	}
	var status auth.Status
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Authenticated {
		t.Error("expected authenticated=false")
	}
}

func TestAuthenticateStatusAndLogout(t *testing.T) {
	handler := buildHandler(newTestGateway(t))
	cookie := signIn(t, handler)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(rr, req)

	var status auth.Status
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if !status.Authenticated || status.Username != "tester" || status.Provider != "sourcehut" {
		t.Errorf("unexpected status: %+v", status)
	}

	// Logout twice; both must succeed.
	for i := 0; i < 2; i++ {
		rr = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.AddCookie(cookie)
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("logout %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(rr, req)
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Authenticated {
		t.Error("session survived logout")
	}
}

func TestAuthenticateBadToken(t *testing.T) {
	handler := buildHandler(newTestGateway(t))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/authenticate",
		strings.NewReader(`{"provider":"sourcehut","token":"wrong"}`))
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRepositoriesRequireAuthentication(t *testing.T) {
	handler := buildHandler(newTestGateway(t))
	for _, probe := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/repositories"},
		{http.MethodPost, "/api/repositories/clone"},
		{http.MethodDelete, "/api/repositories/x"},
		{http.MethodPost, "/api/repositories/x/analyze"},
		{http.MethodGet, "/api/repositories/x/analyze"},
		{http.MethodGet, "/api/technologies"},
	} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(probe.method, probe.path, strings.NewReader("{}")))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", probe.method, probe.path, rr.Code)
		}
	}
}

func TestListRepositoriesEmpty(t *testing.T) {
	handler := buildHandler(newTestGateway(t))
	cookie := signIn(t, handler)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/repositories", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Repositories []json.RawMessage `json:"repositories"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Repositories) != 0 {
		t.Errorf("expected empty list, got %d entries", len(resp.Repositories))
	}
}

func TestCloneURLProviderMismatchIs422(t *testing.T) {
	handler := buildHandler(newTestGateway(t))
	cookie := signIn(t, handler)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/repositories/clone",
		strings.NewReader(`{"url":"https://gitlab.com/group/project.git","provider":"github"}`))
	req.AddCookie(cookie)
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAnalyzeUnknownRepositoryIs404(t *testing.T) {
	handler := buildHandler(newTestGateway(t))
	cookie := signIn(t, handler)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/repositories/nope/analyze", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSessionViaBearerHeader(t *testing.T) {
	handler := buildHandler(newTestGateway(t))
	cookie := signIn(t, handler)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/repositories", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("bearer session: expected 200, got %d", rr.Code)
	}
}

func TestAdminOAuthConfigGuard(t *testing.T) {
	handler := buildHandler(newTestGateway(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/oauth-config", nil))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("unauthenticated admin call: expected 403, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/oauth-config", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("wrong admin token: expected 403, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/admin/oauth-config", nil)
	req.Header.Set("X-Admin-Token", "admin-secret")
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin call: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Providers []providerConfigView `json:"providers"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Providers) != 7 {
		t.Errorf("catalog size = %d, want 7", len(resp.Providers))
	}
	usable := map[string]bool{}
	for _, p := range resp.Providers {
		usable[p.Name] = p.Usable
	}
	if !usable["sourcehut"] || !usable["github"] || usable["gitlab"] {
		t.Errorf("unexpected usable flags: %v", usable)
	}
}

func TestAuthStartRedirects(t *testing.T) {
	handler := buildHandler(newTestGateway(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/github/start", nil))
	if rr.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rr.Code, rr.Body.String())
	}
	loc := rr.Header().Get("Location")
	if !strings.Contains(loc, "state=") || !strings.Contains(loc, "client_id=id") {
		t.Errorf("authorization redirect missing parameters: %s", loc)
	}

	// Unusable provider: 503, not a redirect.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/gitlab/start", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for unusable provider, got %d", rr.Code)
	}
}

func TestAuthCallbackErrorRedirectsWithMessage(t *testing.T) {
	handler := buildHandler(newTestGateway(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet,
		"/api/auth/callback/github?code=x&state=never-issued", nil))
	if rr.Code != http.StatusFound {
		t.Fatalf("callback failures must redirect, got %d", rr.Code)
	}
	loc := rr.Header().Get("Location")
	if !strings.HasPrefix(loc, "/?auth=error") {
		t.Errorf("redirect = %s, want /?auth=error", loc)
	}
}

func TestDirectAuthLinksIntoExistingSession(t *testing.T) {
	handler := buildHandler(newTestGateway(t))
	cookie := signIn(t, handler)

	// Re-authenticate while already signed in; the session must be kept.
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/authenticate",
		strings.NewReader(`{"provider":"sourcehut","token":"pat-xyz"}`))
	req.AddCookie(cookie)
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("re-authenticate: %d: %s", rr.Code, rr.Body.String())
	}

	var kept bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie && c.Value == cookie.Value {
			kept = true
		}
	}
	if !kept {
		t.Error("existing session replaced instead of extended")
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/auth/accounts", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("accounts: %d", rr.Code)
	}
	var resp struct {
		Accounts []json.RawMessage `json:"accounts"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Accounts) != 1 {
		t.Errorf("same identity re-auth should still list one account, got %d", len(resp.Accounts))
	}
}
