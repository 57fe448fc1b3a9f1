// Package analysis runs AI analyses of cloned repositories as asynchronous
// jobs. Submission is idempotent per repository: while a job is queued or
// running, further submissions return that job instead of starting another.
package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/ai"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/database"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/ingest"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/notify"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
	"github.com/google/uuid"
)

var (
	// ErrRepositoryNotReady: analysis was requested before the clone
	// reached completed.
	ErrRepositoryNotReady = errors.New("repository is not ready for analysis")

	// ErrQuotaExceeded: the AI provider rate-limited us past the retry
	// budget.
	ErrQuotaExceeded = errors.New("analysis quota exceeded")

	// ErrProviderTimeout: every attempt ran out the per-call deadline.
	ErrProviderTimeout = errors.New("analysis provider timed out")

	// ErrJobNotFound: no such job visible to this account.
	ErrJobNotFound = errors.New("analysis job not found")
)

const (
	attemptTimeout = 120 * time.Second
	retryBase      = time.Second
)

type jobHandle struct {
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// Orchestrator owns the analysis_jobs table and the in-flight job registry.
type Orchestrator struct {
	db         database.DB
	repos      *ingest.Ingestor
	provider   ai.Provider
	maxRetries int
	notifier   *notify.Dispatcher

	mu       sync.Mutex
	inflight map[string]*jobHandle // keyed by repository ID
}

// SetNotifier attaches an optional event dispatcher. Nil disables
// notifications.
func (o *Orchestrator) SetNotifier(d *notify.Dispatcher) {
	o.notifier = d
}

// New creates an Orchestrator. maxRetries bounds AI call attempts per job;
// values below 1 are clamped to 1.
func New(db database.DB, repos *ingest.Ingestor, provider ai.Provider, maxRetries int) *Orchestrator {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Orchestrator{
		db:         db,
		repos:      repos,
		provider:   provider,
		maxRetries: maxRetries,
		inflight:   make(map[string]*jobHandle),
	}
}

// Analyze submits an analysis job for a completed repository. The returned
// bool reports whether a new job was created; false means an existing
// queued or running job was returned instead. The check and the job
// creation happen atomically, so concurrent submissions for one repository
// yield exactly one job.
func (o *Orchestrator) Analyze(ctx context.Context, repoID, accountID string) (*models.AnalysisJob, bool, error) {
	o.mu.Lock()
	if handle, running := o.inflight[repoID]; running {
		jobID := handle.jobID
		o.mu.Unlock()
		job, err := o.loadJob(ctx, jobID)
		if err != nil {
			return nil, false, err
		}
		return job, false, nil
	}

	// The readiness check runs inside the critical section so a concurrent
	// delete cannot slip between the check and the job insert. The lookup
	// is a local database read, never a network call.
	repo, err := o.repos.Get(ctx, repoID, accountID)
	if err != nil {
		o.mu.Unlock()
		return nil, false, err
	}
	if repo.Status != models.RepoCompleted {
		o.mu.Unlock()
		return nil, false, fmt.Errorf("%w: status is %s", ErrRepositoryNotReady, repo.Status)
	}

	job := &models.AnalysisJob{
		ID:           uuid.New().String(),
		RepositoryID: repoID,
		Status:       models.JobQueued,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := o.db.Insert(ctx, "analysis_jobs", job); err != nil {
		o.mu.Unlock()
		return nil, false, fmt.Errorf("creating analysis job: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	handle := &jobHandle{jobID: job.ID, cancel: cancel, done: make(chan struct{})}
	o.inflight[repoID] = handle
	o.mu.Unlock()

	go func() {
		defer close(handle.done)
		defer func() {
			o.mu.Lock()
			delete(o.inflight, repoID)
			o.mu.Unlock()
		}()
		o.run(runCtx, job.ID, repo)
	}()

	return job, true, nil
}

// run executes one job: collect chunks, call the model with bounded
// retries, validate strictly, persist the terminal state.
func (o *Orchestrator) run(ctx context.Context, jobID string, repo *models.Repository) {
	o.setJobStatus(jobID, models.JobRunning, "")

	chunks, fileCount, err := ingest.CollectChunks(repo.LocalPath)
	if err != nil {
		o.finishJob(jobID, models.JobFailed, fmt.Sprintf("reading checkout: %v", err), nil)
		return
	}
	if len(chunks) == 0 {
		o.finishJob(jobID, models.JobFailed, "no analyzable files in repository", nil)
		return
	}

	req := ai.Request{
		RepoName:  repo.Owner + "/" + repo.Name,
		Provider:  repo.Provider,
		Branch:    repo.Branch,
		Chunks:    chunks,
		FileCount: fileCount,
	}

	var lastErr error
	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		raw, err := o.provider.AnalyzeRepository(attemptCtx, req)
		cancel()

		if err == nil {
			result, perr := parseResult(raw)
			if perr == nil {
				o.finishJob(jobID, models.JobCompleted, "", result)
				slog.Info("analysis completed", "job", jobID, "repo", repo.ID, "attempts", attempt)
				o.notifier.Notify(context.Background(), notify.Event{
					Type:     notify.EventAnalysisCompleted,
					Title:    "Analysis completed: " + repo.Owner + "/" + repo.Name,
					Body:     fmt.Sprintf("%d issues found across %d files", len(result.Issues), fileCount),
					URL:      repo.URL,
					Severity: worstSeverity(result.Issues),
					RepoKey:  repo.Owner + "/" + repo.Name,
				})
				return
			}
			// A response that failed validation is terminal. Only
			// transport-level failures are retried.
			o.finishJob(jobID, models.JobFailed, perr.Error(), nil)
			slog.Warn("analysis response rejected", "job", jobID, "repo", repo.ID, "error", perr)
			o.notifier.Notify(context.Background(), notify.Event{
				Type:    notify.EventAnalysisFailed,
				Title:   "Analysis failed: " + repo.Owner + "/" + repo.Name,
				Body:    perr.Error(),
				URL:     repo.URL,
				RepoKey: repo.Owner + "/" + repo.Name,
			})
			return
		}

		if ctx.Err() != nil {
			o.finishJob(jobID, models.JobFailed, "cancelled", nil)
			slog.Info("analysis cancelled", "job", jobID, "repo", repo.ID)
			return
		}

		lastErr = err
		if attempt < o.maxRetries {
			wait := retryBase << (attempt - 1)
			slog.Warn("analysis attempt failed; retrying",
				"job", jobID, "attempt", attempt, "wait", wait.String(), "error", err)
			select {
			case <-ctx.Done():
				o.finishJob(jobID, models.JobFailed, "cancelled", nil)
				return
			case <-time.After(wait):
			}
		}
	}

	msg := fmt.Sprintf("analysis failed after %d attempts: %v", o.maxRetries, lastErr)
	switch {
	case errors.Is(lastErr, ai.ErrRateLimited):
		msg = ErrQuotaExceeded.Error()
	case errors.Is(lastErr, context.DeadlineExceeded):
		msg = ErrProviderTimeout.Error()
	}
	o.finishJob(jobID, models.JobFailed, msg, nil)
	o.notifier.Notify(context.Background(), notify.Event{
		Type:    notify.EventAnalysisFailed,
		Title:   "Analysis failed: " + repo.Owner + "/" + repo.Name,
		Body:    msg,
		URL:     repo.URL,
		RepoKey: repo.Owner + "/" + repo.Name,
	})
}

// worstSeverity returns the highest issue severity present.
func worstSeverity(issues []models.Issue) string {
	best := models.SeverityUnknown
	for _, issue := range issues {
		if sev := models.MapSeverity(issue.Severity); sev.Weight() > best.Weight() {
			best = sev
		}
	}
	if best == models.SeverityUnknown {
		return ""
	}
	return string(best)
}

// Job returns one job scoped to the requesting account. The stored result
// is attached for completed jobs.
func (o *Orchestrator) Job(ctx context.Context, jobID, accountID string) (*models.AnalysisJob, error) {
	job, err := o.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if _, err := o.repos.Get(ctx, job.RepositoryID, accountID); err != nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// JobForRepository returns the most recent job for a repository, or
// ErrJobNotFound when none exists.
func (o *Orchestrator) JobForRepository(ctx context.Context, repoID, accountID string) (*models.AnalysisJob, error) {
	if _, err := o.repos.Get(ctx, repoID, accountID); err != nil {
		return nil, err
	}
	var row jobRow
	err := o.db.Get(ctx, &row, selectJob+` WHERE repository_id = ? ORDER BY submitted_at DESC LIMIT 1`, repoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toJob()
}

// CancelForRepository aborts any in-flight job for the repository and waits
// for the worker to record the terminal state.
func (o *Orchestrator) CancelForRepository(repoID string) bool {
	o.mu.Lock()
	handle, ok := o.inflight[repoID]
	o.mu.Unlock()
	if !ok {
		return false
	}
	handle.cancel()
	<-handle.done
	return true
}

// RecoverInterrupted marks jobs left queued or running by a previous
// process as failed. Called once at startup, before any new submissions.
func (o *Orchestrator) RecoverInterrupted(ctx context.Context) error {
	now := time.Now().UTC()
	update := struct {
		Status      models.JobStatus `db:"status"`
		ErrorMsg    string           `db:"error_msg"`
		CompletedAt *time.Time       `db:"completed_at"`
	}{models.JobFailed, "interrupted by restart", &now}
	return o.db.Update(ctx, "analysis_jobs", &update, "status IN (?, ?)",
		string(models.JobQueued), string(models.JobRunning))
}

const selectJob = `SELECT id, repository_id, status, submitted_at, completed_at, error_msg, result_json
	FROM analysis_jobs`

// jobRow carries the raw result_json column alongside the job fields.
type jobRow struct {
	ID           string           `db:"id"`
	RepositoryID string           `db:"repository_id"`
	Status       models.JobStatus `db:"status"`
	SubmittedAt  time.Time        `db:"submitted_at"`
	CompletedAt  *time.Time       `db:"completed_at"`
	ErrorMsg     string           `db:"error_msg"`
	ResultJSON   sql.NullString   `db:"result_json"`
}

func (r *jobRow) toJob() (*models.AnalysisJob, error) {
	job := &models.AnalysisJob{
		ID:           r.ID,
		RepositoryID: r.RepositoryID,
		Status:       r.Status,
		SubmittedAt:  r.SubmittedAt,
		CompletedAt:  r.CompletedAt,
		Error:        r.ErrorMsg,
	}
	if r.ResultJSON.Valid && r.ResultJSON.String != "" {
		var result models.AnalysisResult
		if err := json.Unmarshal([]byte(r.ResultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("decoding stored analysis result: %w", err)
		}
		job.Result = &result
	}
	return job, nil
}

func (o *Orchestrator) loadJob(ctx context.Context, jobID string) (*models.AnalysisJob, error) {
	var row jobRow
	err := o.db.Get(ctx, &row, selectJob+` WHERE id = ?`, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toJob()
}

func (o *Orchestrator) setJobStatus(jobID string, status models.JobStatus, errMsg string) {
	update := struct {
		Status   models.JobStatus `db:"status"`
		ErrorMsg string           `db:"error_msg"`
	}{status, errMsg}
	if err := o.db.Update(context.Background(), "analysis_jobs", &update, "id = ?", jobID); err != nil {
		slog.Error("analysis: job status update failed", "job", jobID, "status", status, "error", err)
	}
}

// finishJob records the terminal state, serializing the result for
// completed jobs. Terminal rows are never mutated afterwards.
func (o *Orchestrator) finishJob(jobID string, status models.JobStatus, errMsg string, result *models.AnalysisResult) {
	now := time.Now().UTC()
	resultJSON := ""
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			status = models.JobFailed
			errMsg = fmt.Sprintf("encoding analysis result: %v", err)
		} else {
			resultJSON = string(data)
		}
	}
	update := struct {
		Status      models.JobStatus `db:"status"`
		ErrorMsg    string           `db:"error_msg"`
		CompletedAt *time.Time       `db:"completed_at"`
		ResultJSON  string           `db:"result_json"`
	}{status, errMsg, &now, resultJSON}
	if err := o.db.Update(context.Background(), "analysis_jobs", &update, "id = ?", jobID); err != nil {
		slog.Error("analysis: recording job result failed", "job", jobID, "error", err)
	}
}
