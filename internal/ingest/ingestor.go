// Package ingest turns a repository URL into a local clone with a tracked
// lifecycle: pending → cloning → completed|failed. Clones run as
// independently cancellable background operations; callers observe progress
// by polling the Repository status.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/database"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/notify"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/providers"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/uuid"
)

const (
	cloneTimeout = 5 * time.Minute
	maxAttempts  = 3
	backoffBase  = time.Second
)

// tokenLookup resolves the clone credential for an account; provided by the
// auth package so stored provider tokens never leave it in bulk.
type tokenLookup func(ctx context.Context, accountID string) (token string, err error)

// cloneHandle tracks one in-flight clone so deletion can cancel it and wait
// for the worker to finish.
type cloneHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Ingestor owns the repositories table and the clone workspace directory.
type Ingestor struct {
	db       database.DB
	registry *providers.Registry
	tokens   tokenLookup
	workDir  string
	notifier *notify.Dispatcher

	mu       sync.Mutex
	inflight map[string]*cloneHandle
}

// SetNotifier attaches an optional event dispatcher. Nil disables
// notifications.
func (ing *Ingestor) SetNotifier(d *notify.Dispatcher) {
	ing.notifier = d
}

// New creates an Ingestor cloning into workDir/<repository id>.
func New(db database.DB, registry *providers.Registry, tokens func(ctx context.Context, accountID string) (string, error), workDir string) *Ingestor {
	return &Ingestor{
		db:       db,
		registry: registry,
		tokens:   tokens,
		workDir:  workDir,
		inflight: make(map[string]*cloneHandle),
	}
}

// Clone validates the URL against the declared provider and starts a
// background clone. Re-requesting a URL the account already registered
// resets that repository to pending instead of creating a duplicate.
func (ing *Ingestor) Clone(ctx context.Context, rawURL, provider, accountID string) (*models.Repository, error) {
	matched, err := ing.registry.MatchHost(rawURL)
	if err != nil || matched.Name != provider {
		return nil, fmt.Errorf("%w: %q is not a %s URL", ErrURLProviderMismatch, rawURL, provider)
	}

	owner, name := parseOwnerRepo(rawURL)
	if name == "" {
		return nil, fmt.Errorf("%w: cannot extract repository name from %q", ErrURLProviderMismatch, rawURL)
	}

	repo, err := ing.findByURL(ctx, accountID, rawURL)
	switch {
	case err == nil:
		// Idempotent retry by identity: reset rather than duplicate.
		repo.Status = models.RepoPending
		repo.Error = ""
		if err := ing.db.Update(ctx, "repositories", repo, "id = ?", repo.ID); err != nil {
			return nil, fmt.Errorf("resetting repository: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		repo = &models.Repository{
			ID:        uuid.New().String(),
			URL:       rawURL,
			Name:      name,
			Owner:     owner,
			Provider:  provider,
			AccountID: accountID,
			Status:    models.RepoPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := ing.db.Insert(ctx, "repositories", repo); err != nil {
			return nil, fmt.Errorf("creating repository: %w", err)
		}
	default:
		return nil, fmt.Errorf("looking up repository: %w", err)
	}

	ing.start(repo)
	return repo, nil
}

// start launches the background clone worker unless one is already running
// for this repository.
func (ing *Ingestor) start(repo *models.Repository) {
	repoID := repo.ID
	cloneCtx, cancel := context.WithCancel(context.Background())
	handle := &cloneHandle{cancel: cancel, done: make(chan struct{})}

	ing.mu.Lock()
	if _, running := ing.inflight[repoID]; running {
		ing.mu.Unlock()
		cancel()
		return
	}
	ing.inflight[repoID] = handle
	ing.mu.Unlock()

	go func() {
		defer close(handle.done)
		defer func() {
			ing.mu.Lock()
			delete(ing.inflight, repoID)
			ing.mu.Unlock()
		}()
		ing.runClone(cloneCtx, repo)
	}()
}

// runClone performs the clone with bounded retries and records the terminal
// state. No lock is held across the network call.
func (ing *Ingestor) runClone(ctx context.Context, repo *models.Repository) {
	repoID, rawURL := repo.ID, repo.URL
	ing.setStatus(repoID, models.RepoCloning, "")

	token := ""
	if ing.tokens != nil {
		if t, err := ing.tokens(ctx, repo.AccountID); err == nil {
			token = t
		}
	}

	dest := filepath.Join(ing.workDir, repoID)
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_ = os.RemoveAll(dest)

		attemptCtx, cancel := context.WithTimeout(ctx, cloneTimeout)
		checkout, err := ing.cloneOnce(attemptCtx, rawURL, token, dest)
		cancel()

		if err == nil {
			head, herr := checkout.Head()
			branch, commit := "", ""
			if herr == nil {
				branch = head.Name().Short()
				commit = head.Hash().String()
			}
			now := time.Now().UTC()
			update := struct {
				Status    models.RepoStatus `db:"status"`
				LocalPath string            `db:"local_path"`
				Branch    string            `db:"branch"`
				CommitSHA string            `db:"commit_sha"`
				ErrorMsg  string            `db:"error_msg"`
				ClonedAt  *time.Time        `db:"cloned_at"`
			}{models.RepoCompleted, dest, branch, commit, "", &now}
			if err := ing.db.Update(context.Background(), "repositories", &update, "id = ?", repoID); err != nil {
				slog.Error("ingest: recording completed clone failed", "repo", repoID, "error", err)
			}
			slog.Info("clone completed", "repo", repoID, "branch", branch, "attempts", attempt)
			ing.enrich(repoID, repo.Provider, repo.Owner, repo.Name, token)
			return
		}

		if ctx.Err() != nil {
			_ = os.RemoveAll(dest)
			ing.setStatus(repoID, models.RepoFailed, "cancelled")
			slog.Info("clone cancelled", "repo", repoID)
			return
		}
		if isAuthErr(err) {
			_ = os.RemoveAll(dest)
			ing.setStatus(repoID, models.RepoFailed, ErrAuthRequired.Error())
			ing.notifyCloneFailed(repo, ErrAuthRequired.Error())
			return
		}

		lastErr = err
		if attempt < maxAttempts {
			wait := backoffBase << (attempt - 1)
			slog.Warn("clone attempt failed; retrying",
				"repo", repoID, "attempt", attempt, "wait", wait.String(), "error", err)
			select {
			case <-ctx.Done():
				_ = os.RemoveAll(dest)
				ing.setStatus(repoID, models.RepoFailed, "cancelled")
				return
			case <-time.After(wait):
			}
		}
	}

	_ = os.RemoveAll(dest)
	msg := fmt.Sprintf("clone failed after %d attempts: %v", maxAttempts, lastErr)
	ing.setStatus(repoID, models.RepoFailed, msg)
	ing.notifyCloneFailed(repo, msg)
}

func (ing *Ingestor) notifyCloneFailed(repo *models.Repository, msg string) {
	ing.notifier.Notify(context.Background(), notify.Event{
		Type:    notify.EventCloneFailed,
		Title:   "Clone failed: " + repo.Owner + "/" + repo.Name,
		Body:    msg,
		URL:     repo.URL,
		RepoKey: repo.Owner + "/" + repo.Name,
	})
}

// cloneOnce is a single shallow-clone attempt.
func (ing *Ingestor) cloneOnce(ctx context.Context, rawURL, token, dest string) (*gogit.Repository, error) {
	opts := &gogit.CloneOptions{
		URL:   rawURL,
		Depth: 1, // shallow clone for speed
	}
	if token != "" {
		opts.Auth = &githttp.BasicAuth{
			Username: "repocloner",
			Password: token,
		}
	}
	repo, err := gogit.PlainCloneContext(ctx, dest, false, opts)
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", rawURL, err)
	}
	return repo, nil
}

// Cancel aborts an in-flight clone and waits for the worker to record the
// terminal state. Returns false when nothing was running.
func (ing *Ingestor) Cancel(repoID string) bool {
	ing.mu.Lock()
	handle, ok := ing.inflight[repoID]
	ing.mu.Unlock()
	if !ok {
		return false
	}
	handle.cancel()
	<-handle.done
	return true
}

// Delete cancels any in-flight clone, removes the workspace checkout and
// drops the repository row. The in-flight operation passes through
// failed/"cancelled" before the entity disappears; nothing mutates it
// afterwards.
func (ing *Ingestor) Delete(ctx context.Context, repoID, accountID string) error {
	repo, err := ing.Get(ctx, repoID, accountID)
	if err != nil {
		return err
	}

	ing.Cancel(repoID)

	if repo.LocalPath != "" {
		if err := os.RemoveAll(repo.LocalPath); err != nil {
			slog.Warn("ingest: removing clone directory failed", "path", repo.LocalPath, "error", err)
		}
	}
	_ = os.RemoveAll(filepath.Join(ing.workDir, repoID))

	if err := ing.db.Exec(ctx, `DELETE FROM repositories WHERE id = ?`, repoID); err != nil {
		return fmt.Errorf("deleting repository: %w", err)
	}
	return nil
}

// Get returns one repository scoped to its owning account.
func (ing *Ingestor) Get(ctx context.Context, repoID, accountID string) (*models.Repository, error) {
	var repo models.Repository
	err := ing.db.Get(ctx, &repo, selectRepo+` WHERE id = ? AND account_id = ?`, repoID, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

// List returns the account's repositories, newest first.
func (ing *Ingestor) List(ctx context.Context, accountID string) ([]models.Repository, error) {
	var repos []models.Repository
	err := ing.db.Select(ctx, &repos, selectRepo+` WHERE account_id = ? ORDER BY created_at DESC`, accountID)
	return repos, err
}

const selectRepo = `SELECT id, url, name, owner, provider, account_id, status,
	local_path, branch, commit_sha, language, description, error_msg, created_at, cloned_at
	FROM repositories`

func (ing *Ingestor) findByURL(ctx context.Context, accountID, rawURL string) (*models.Repository, error) {
	var repo models.Repository
	err := ing.db.Get(ctx, &repo, selectRepo+` WHERE account_id = ? AND url = ?`, accountID, rawURL)
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

// setStatus records a status transition with an optional error message.
func (ing *Ingestor) setStatus(repoID string, status models.RepoStatus, errMsg string) {
	update := struct {
		Status   models.RepoStatus `db:"status"`
		ErrorMsg string            `db:"error_msg"`
	}{status, errMsg}
	if err := ing.db.Update(context.Background(), "repositories", &update, "id = ?", repoID); err != nil {
		slog.Error("ingest: status update failed", "repo", repoID, "status", status, "error", err)
	}
}

// isAuthErr detects authentication rejections from the git transport.
func isAuthErr(err error) bool {
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "authentication required") || strings.Contains(msg, "authorization failed")
}

// parseOwnerRepo extracts the owner and repository name from a git URL.
// Supports HTTPS (https://github.com/owner/repo.git) and SSH
// (git@github.com:owner/repo.git).
func parseOwnerRepo(repoURL string) (owner, repo string) {
	u := strings.TrimSuffix(repoURL, ".git")

	if strings.Contains(u, "://") {
		parts := strings.Split(u, "/")
		if len(parts) >= 2 {
			repo = parts[len(parts)-1]
			owner = parts[len(parts)-2]
			return
		}
	}

	// SSH format: git@github.com:owner/repo
	if idx := strings.Index(u, ":"); idx != -1 {
		path := u[idx+1:]
		parts := strings.SplitN(path, "/", 2)
		if len(parts) == 2 {
			owner = parts[0]
			repo = parts[1]
			return
		}
	}

	return "", u
}
