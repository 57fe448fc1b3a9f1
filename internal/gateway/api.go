package gateway

import "net/http"

// buildHandler wires all REST routes onto a new ServeMux.
// Uses Go 1.22+ method-prefixed patterns ("GET /path", "POST /path").
func buildHandler(gw *Gateway) http.Handler {
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /health", gw.handleHealth)

	// Authentication
	mux.HandleFunc("GET /api/auth/status", gw.handleAuthStatus)
	mux.HandleFunc("GET /api/auth/accounts", gw.handleAuthAccounts)
	mux.HandleFunc("POST /api/auth/authenticate", gw.handleAuthenticate)
	mux.HandleFunc("GET /api/auth/{provider}/start", gw.handleAuthStart)
	mux.HandleFunc("GET /api/auth/callback/{provider}", gw.handleAuthCallback)
	mux.HandleFunc("POST /api/auth/logout", gw.handleLogout)

	// Repositories
	mux.HandleFunc("GET /api/repositories", gw.handleListRepositories)
	mux.HandleFunc("POST /api/repositories/clone", gw.handleCloneRepository)
	mux.HandleFunc("DELETE /api/repositories/{id}", gw.handleDeleteRepository)
	mux.HandleFunc("POST /api/repositories/{id}/analyze", gw.handleStartAnalysis)
	mux.HandleFunc("GET /api/repositories/{id}/analyze", gw.handlePollAnalysis)

	// Aggregates
	mux.HandleFunc("GET /api/technologies", gw.handleListTechnologies)

	// Admin
	mux.HandleFunc("GET /api/admin/oauth-config", gw.handleOAuthConfig)

	return mux
}

func (gw *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
