// Package gateway is the HTTP control plane: authentication endpoints,
// repository ingestion and analysis APIs, and the periodic sweeper that
// prunes expired sessions and sign-in attempts.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/analysis"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/auth"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/ingest"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/providers"
	"github.com/robfig/cron/v3"
)

// Gateway is the long-running daemon combining the auth coordinator, the
// repository ingestor, the analysis orchestrator and the REST server.
type Gateway struct {
	cfg      *config.Config
	registry *providers.Registry
	auth     *auth.Coordinator
	repos    *ingest.Ingestor
	jobs     *analysis.Orchestrator
	sweeper  *cron.Cron
}

// New creates a Gateway. Call Start() to begin serving.
func New(cfg *config.Config, registry *providers.Registry, coord *auth.Coordinator, repos *ingest.Ingestor, jobs *analysis.Orchestrator) *Gateway {
	return &Gateway{
		cfg:      cfg,
		registry: registry,
		auth:     coord,
		repos:    repos,
		jobs:     jobs,
		sweeper:  cron.New(),
	}
}

// Start runs the gateway until ctx is cancelled. Jobs left queued or
// running by a previous process are failed before the listener binds, so
// clients never poll a job no worker owns.
func (gw *Gateway) Start(ctx context.Context) error {
	if err := gw.jobs.RecoverInterrupted(ctx); err != nil {
		return fmt.Errorf("recovering interrupted jobs: %w", err)
	}

	if _, err := gw.sweeper.AddFunc("@every 5m", gw.sweep); err != nil {
		return fmt.Errorf("registering sweeper: %w", err)
	}
	gw.sweeper.Start()

	port := gw.cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: buildHandler(gw),
	}

	go func() {
		<-ctx.Done()
		gw.sweeper.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway: listening", "addr", "http://localhost"+addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// sweep drops expired sessions and stale sign-in attempts.
func (gw *Gateway) sweep() {
	sessions := gw.auth.Sessions.Prune()
	states := gw.auth.PruneStates()
	if sessions > 0 || states > 0 {
		slog.Debug("gateway: sweep", "sessions_pruned", sessions, "states_pruned", states)
	}
}

// baseURL is the externally visible origin used to build OAuth redirect
// URIs. Configurable for deployments behind a proxy; derived from the
// request otherwise.
func (gw *Gateway) baseURL(r *http.Request) string {
	if gw.cfg.Server.BaseURL != "" {
		return gw.cfg.Server.BaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
