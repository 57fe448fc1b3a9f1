package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// adminToken extracts the caller's admin credential from the X-Admin-Token
// header or the Authorization header.
func adminToken(r *http.Request) string {
	if t := r.Header.Get("X-Admin-Token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// requireAdmin guards operator-only endpoints. A server without an admin
// token configured rejects every caller.
func (gw *Gateway) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	want := gw.cfg.Server.AdminToken
	got := adminToken(r)
	if want == "" || got == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		writeError(w, http.StatusForbidden, "admin access denied")
		return false
	}
	return true
}

// providerConfigView is the operator's view of one catalog entry. Secrets
// never leave the server; only presence flags are reported.
type providerConfigView struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Host        string   `json:"host"`
	AuthStyle   string   `json:"auth_style"`
	Scopes      []string `json:"scopes,omitempty"`
	Enabled     bool     `json:"enabled"`
	Configured  bool     `json:"configured"`
	Usable      bool     `json:"usable"`
}

// handleOAuthConfig reports the effective provider catalog so operators can
// verify which providers are wired up without reading the config file.
func (gw *Gateway) handleOAuthConfig(w http.ResponseWriter, r *http.Request) {
	if !gw.requireAdmin(w, r) {
		return
	}

	providerList := gw.registry.List()
	out := make([]providerConfigView, 0, len(providerList))
	for _, p := range providerList {
		out = append(out, providerConfigView{
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Host:        p.Host,
			AuthStyle:   string(p.AuthStyle),
			Scopes:      p.Scopes,
			Enabled:     p.Enabled,
			Configured:  p.Configured,
			Usable:      p.Usable(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": out})
}
