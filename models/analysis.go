package models

import "time"

// JobStatus is the lifecycle state of an analysis job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// AnalysisJob tracks one asynchronous AI analysis of a repository.
// At most one non-terminal job exists per repository at any time.
type AnalysisJob struct {
	ID           string     `json:"id"            db:"id"`
	RepositoryID string     `json:"repository_id" db:"repository_id"`
	Status       JobStatus  `json:"status"        db:"status"`
	SubmittedAt  time.Time  `json:"submitted_at"  db:"submitted_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Error        string     `json:"error,omitempty"        db:"error_msg"`
	// Result is attached only when Status is completed; immutable afterwards.
	Result *AnalysisResult `json:"result,omitempty" db:"-"`
}

// AnalysisResult is the validated output of the external AI analysis.
// It is accepted all-or-nothing: a payload failing validation is rejected
// wholesale and never partially coerced into this shape.
type AnalysisResult struct {
	Summary         ScoreSummary `json:"summary"`
	Issues          []Issue      `json:"issues"`
	Recommendations []string     `json:"recommendations"`
	Metrics         Metrics      `json:"metrics"`
	Technologies    []Technology `json:"technologies"`
}

// ScoreSummary holds the three headline scores, each 0–100.
type ScoreSummary struct {
	QualityScore         *float64 `json:"qualityScore"`
	SecurityScore        *float64 `json:"securityScore"`
	MaintainabilityScore *float64 `json:"maintainabilityScore"`
}

// Issue is a single finding reported by the analysis. Severity is kept as
// the raw string the model emitted; MapSeverity normalises it for ordering.
type Issue struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	File        string `json:"file"`
	Line        int    `json:"line"`
	Suggestion  string `json:"suggestion"`
}

// Metrics are repository-level counts reported by the analysis.
type Metrics struct {
	LinesOfCode  int     `json:"linesOfCode"`
	Complexity   float64 `json:"complexity"`
	TestCoverage float64 `json:"testCoverage"`
	Dependencies int     `json:"dependencies"`
}

// Technology is a detected framework, language or tool.
type Technology struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Version    string  `json:"version,omitempty"`
	Confidence float64 `json:"confidence"`
}
