package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/analysis"
	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
)

// handleListRepositories returns the caller's repositories, newest first.
func (gw *Gateway) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	acct, ok := gw.requireAccount(w, r)
	if !ok {
		return
	}
	repos, err := gw.repos.List(r.Context(), acct.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if repos == nil {
		repos = []models.Repository{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"repositories": repos})
}

type cloneRequest struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
}

// handleCloneRepository registers a repository and starts the background
// clone. Responds 202: the clone outcome is observed by polling.
func (gw *Gateway) handleCloneRepository(w http.ResponseWriter, r *http.Request) {
	acct, ok := gw.requireAccount(w, r)
	if !ok {
		return
	}

	var req cloneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.URL == "" || req.Provider == "" {
		writeError(w, http.StatusBadRequest, "url and provider are required")
		return
	}

	repo, err := gw.repos.Clone(r.Context(), req.URL, req.Provider, acct.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"repository": repo})
}

// handleDeleteRepository cancels any in-flight clone or analysis before
// removing the repository and its checkout.
func (gw *Gateway) handleDeleteRepository(w http.ResponseWriter, r *http.Request) {
	acct, ok := gw.requireAccount(w, r)
	if !ok {
		return
	}
	repoID := r.PathValue("id")

	gw.jobs.CancelForRepository(repoID)
	if err := gw.repos.Delete(r.Context(), repoID, acct.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStartAnalysis submits an analysis job. A second submission while a
// job is queued or running returns that job with 200 instead of 202.
func (gw *Gateway) handleStartAnalysis(w http.ResponseWriter, r *http.Request) {
	acct, ok := gw.requireAccount(w, r)
	if !ok {
		return
	}
	repoID := r.PathValue("id")

	job, created, err := gw.jobs.Analyze(r.Context(), repoID, acct.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]any{"job": job})
}

// handlePollAnalysis returns the latest job for a repository. Completed
// jobs carry the summarized result.
func (gw *Gateway) handlePollAnalysis(w http.ResponseWriter, r *http.Request) {
	acct, ok := gw.requireAccount(w, r)
	if !ok {
		return
	}
	repoID := r.PathValue("id")

	job, err := gw.jobs.JobForRepository(r.Context(), repoID, acct.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{"job": job}
	if job.Status == models.JobCompleted && job.Result != nil {
		resp["analysis"] = analysis.Summarize(job.Result)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListTechnologies aggregates detected technologies across every
// repository of the account with a completed analysis.
func (gw *Gateway) handleListTechnologies(w http.ResponseWriter, r *http.Request) {
	acct, ok := gw.requireAccount(w, r)
	if !ok {
		return
	}
	repos, err := gw.repos.List(r.Context(), acct.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var all []models.Technology
	for _, repo := range repos {
		job, err := gw.jobs.JobForRepository(r.Context(), repo.ID, acct.ID)
		if err != nil {
			if errors.Is(err, analysis.ErrJobNotFound) {
				continue
			}
			writeDomainError(w, err)
			return
		}
		if job.Status == models.JobCompleted && job.Result != nil {
			all = append(all, job.Result.Technologies...)
		}
	}

	techs := analysis.DedupeTechnologies(all)
	if techs == nil {
		techs = []models.Technology{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"technologies": techs})
}
