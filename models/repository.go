package models

import "time"

// RepoStatus is the lifecycle state of an ingested repository.
// Transitions are monotonic: pending → cloning → completed|failed.
// A retry re-enters pending; nothing else moves backwards.
type RepoStatus string

const (
	RepoPending   RepoStatus = "pending"
	RepoCloning   RepoStatus = "cloning"
	RepoCompleted RepoStatus = "completed"
	RepoFailed    RepoStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s RepoStatus) Terminal() bool {
	return s == RepoCompleted || s == RepoFailed
}

// Repository is a remote repository registered for analysis, scoped to the
// account that created it.
type Repository struct {
	ID        string     `json:"id"         db:"id"`
	URL       string     `json:"url"        db:"url"`
	Name      string     `json:"name"       db:"name"`
	Owner     string     `json:"owner"      db:"owner"`
	Provider  string     `json:"provider"   db:"provider"`
	AccountID string     `json:"account_id" db:"account_id"`
	Status    RepoStatus `json:"status"     db:"status"`
	// LocalPath is where the clone lives on disk; empty until cloning starts.
	LocalPath string `json:"-" db:"local_path"`
	// Branch and CommitSHA are resolved from HEAD after a successful clone.
	Branch    string `json:"branch,omitempty"     db:"branch"`
	CommitSHA string `json:"commit_sha,omitempty" db:"commit_sha"`
	// Language and Description come from provider metadata enrichment and
	// may stay empty when the provider API is unreachable.
	Language    string     `json:"language,omitempty"    db:"language"`
	Description string     `json:"description,omitempty" db:"description"`
	Error       string     `json:"error,omitempty"       db:"error_msg"`
	CreatedAt   time.Time  `json:"created_at"            db:"created_at"`
	ClonedAt    *time.Time `json:"cloned_at,omitempty"   db:"cloned_at"`
}
