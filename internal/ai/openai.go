package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
)

const defaultOpenAIBase = "https://api.openai.com/v1"

// OpenAIProvider implements Provider against any OpenAI-compatible
// chat-completions endpoint, including Azure OpenAI deployments and
// corporate proxies that route by deployment URL.
type OpenAIProvider struct {
	apiKey     string
	model      string
	baseURL    string
	apiVersion string
	client     *http.Client
}

// NewOpenAI creates an OpenAIProvider from cfg.
func NewOpenAI(cfg config.AIConfig) (*OpenAIProvider, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultOpenAIBase
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid OpenAI base URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("invalid OpenAI base URL scheme %q", u.Scheme)
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    strings.TrimRight(base, "/"),
		apiVersion: cfg.APIVersion,
		client:     &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	return o.apiKey != ""
}

// deploymentStyle reports whether the endpoint routes by deployment URL
// (Azure OpenAI and compatible proxies). Those endpoints reject a "model"
// field and want an api-version header instead.
func (o *OpenAIProvider) deploymentStyle() bool {
	return strings.Contains(strings.ToLower(o.baseURL), "deployments")
}

type chatRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []chatMsg `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AnalyzeRepository sends one chat-completion request. No internal retry:
// the orchestrator owns the backoff policy.
func (o *OpenAIProvider) AnalyzeRepository(ctx context.Context, req Request) (string, error) {
	payload := chatRequest{
		Messages: []chatMsg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req)},
		},
		Temperature: 0,
	}
	if !o.deploymentStyle() {
		payload.Model = o.model
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	endpoint := o.baseURL + "/chat/completions"
	if o.deploymentStyle() {
		endpoint = o.baseURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if o.deploymentStyle() && o.apiVersion != "" {
		httpReq.Header.Set("api-version", o.apiVersion)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling analysis API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %s", ErrRateLimited, strings.TrimSpace(string(respBody)))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("analysis API error %d: %s", resp.StatusCode, truncateBody(respBody))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing API response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("analysis API error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("analysis API returned no choices")
	}

	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}

func truncateBody(b []byte) string {
	const max = 500
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
