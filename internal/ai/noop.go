package ai

import (
	"context"
	"fmt"
)

// NoopProvider is returned when no AI provider is configured. Jobs fail
// fast with a configuration error instead of hanging.
type NoopProvider struct{}

func (n *NoopProvider) Name() string { return "noop" }

func (n *NoopProvider) IsAvailable(ctx context.Context) bool { return false }

func (n *NoopProvider) AnalyzeRepository(ctx context.Context, req Request) (string, error) {
	return "", fmt.Errorf("no AI provider configured")
}
