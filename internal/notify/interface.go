// Package notify fans analysis and clone lifecycle events out to operator
// channels (Slack, Telegram, email, generic webhook). Delivery is best
// effort; a failing channel never affects the pipeline.
package notify

import "context"

// Event types emitted by the pipeline.
const (
	EventAnalysisCompleted = "analysis_completed"
	EventAnalysisFailed    = "analysis_failed"
	EventCloneFailed       = "clone_failed"
)

// Event is one notification from the analyzer.
type Event struct {
	Type     string // one of the Event* constants
	Title    string
	Body     string
	URL      string // optional deep link back to the repository
	Severity string // worst issue severity for completed analyses, else ""
	RepoKey  string // "owner/repo"
}

// Channel is implemented by each notification provider.
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, evt Event) error
}
