// Package ai abstracts the external analysis model. To add a provider:
//  1. Create a file in internal/ai/ (e.g. mymodel.go)
//  2. Implement Provider
//  3. Register in New()
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
)

// ErrRateLimited marks quota/rate-limit rejections so the orchestrator can
// surface them distinctly instead of burning retries.
var ErrRateLimited = errors.New("analysis provider rate limited")

// Provider abstracts calls to a language model.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "ollama").
	Name() string

	// IsAvailable verifies the provider is reachable and configured.
	IsAvailable(ctx context.Context) bool

	// AnalyzeRepository sends the collected repository content and returns
	// the model's raw text answer. Parsing and validation happen at the
	// trust boundary in the analysis package, not here.
	AnalyzeRepository(ctx context.Context, req Request) (string, error)
}

// Request carries everything the model needs about one repository.
type Request struct {
	RepoName string `json:"repo_name"`
	Provider string `json:"provider"`
	Branch   string `json:"branch,omitempty"`
	// Chunks are size-capped file excerpts from the clone workspace.
	Chunks []string `json:"chunks"`
	// FileCount is the number of source files the chunks were drawn from.
	FileCount int `json:"file_count"`
}

// New returns the configured Provider. An empty provider name yields a
// NoopProvider — callers should check IsAvailable() before submitting jobs.
func New(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg)
	case "ollama":
		return NewOllama(cfg)
	case "":
		return &NoopProvider{}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q (supported: openai, ollama)", cfg.Provider)
	}
}
