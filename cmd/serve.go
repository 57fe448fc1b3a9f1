package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/ai"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/analysis"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/auth"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/database"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/gateway"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/ingest"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/notify"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/providers"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the repocloner HTTP server",
	Long: `Starts the repocloner server: authentication against the configured
git-hosting providers, repository cloning and asynchronous AI analysis.

Quick API reference:
  GET  /health                              liveness check
  GET  /api/auth/status                     session status
  POST /api/auth/authenticate               sign in with a personal access token
  GET  /api/auth/{provider}/start           begin the OAuth flow
  POST /api/auth/logout                     sign out
  GET  /api/repositories                    list your repositories
  POST /api/repositories/clone              clone one (body: {"url":"...","provider":"..."})
  POST /api/repositories/{id}/analyze       submit an analysis job
  GET  /api/repositories/{id}/analyze       poll the analysis
  GET  /api/technologies                    technologies across your analyses`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"HTTP port to listen on (default 8080, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nShutting down gracefully...")
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	if err := os.MkdirAll(cfg.Workspace.Dir, 0o755); err != nil {
		return fmt.Errorf("creating workspace directory: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	registry, err := providers.Load(cfg.Providers, cfg.Workspace.CatalogFile)
	if err != nil {
		return fmt.Errorf("loading provider catalog: %w", err)
	}

	aiProvider, err := ai.New(cfg.AI)
	if err != nil {
		return fmt.Errorf("configuring AI provider: %w", err)
	}

	accounts := auth.NewAccountStore(db)
	sessions := auth.NewSessionStore(time.Duration(cfg.Server.SessionTTLHours) * time.Hour)
	clientIDs := make(map[string]string, len(cfg.Providers))
	clientSecrets := make(map[string]string, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		clientIDs[name] = pc.ClientID
		clientSecrets[name] = pc.ClientSecret
	}
	coord := auth.NewCoordinator(registry, accounts, sessions, clientIDs, clientSecrets)

	ingestor := ingest.New(db, registry, func(ctx context.Context, accountID string) (string, error) {
		acct, err := accounts.Get(ctx, accountID)
		if err != nil {
			return "", err
		}
		return acct.AccessToken, nil
	}, cfg.Workspace.Dir)

	orchestrator := analysis.New(db, ingestor, aiProvider, cfg.AI.MaxRetries)

	notifier := notify.NewDispatcher(cfg.Notify)
	ingestor.SetNotifier(notifier)
	orchestrator.SetNotifier(notifier)

	usable := 0
	for _, p := range registry.List() {
		if p.Usable() {
			usable++
		}
	}
	fmt.Printf("repocloner starting\n")
	fmt.Printf("  Database   : %s (%s)\n", cfg.Database.Path, db.Driver())
	fmt.Printf("  Workspace  : %s\n", cfg.Workspace.Dir)
	fmt.Printf("  Providers  : %d usable of %d\n", usable, len(registry.List()))
	fmt.Printf("  AI         : %s\n", aiProvider.Name())
	fmt.Printf("  API        : http://localhost:%d\n\n", cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop gracefully.")

	gw := gateway.New(cfg, registry, coord, ingestor, orchestrator)
	return gw.Start(ctx)
}
