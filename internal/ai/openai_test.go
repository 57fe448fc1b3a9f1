package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
)

func chatCompletionServer(t *testing.T, status int, content string, capture *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("decoding request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			quoted, _ := json.Marshal(content)
			w.Write([]byte(`{"choices":[{"message":{"content":` + string(quoted) + `}}]}`))
		} else {
			w.Write([]byte(`{"error":{"message":"nope"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIAnalyzeRepository(t *testing.T) {
	var got chatRequest
	srv := chatCompletionServer(t, http.StatusOK, `{"ok":true}`, &got)

	p, err := NewOpenAI(config.AIConfig{APIKey: "key", Model: "gpt-4o", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	out, err := p.AnalyzeRepository(context.Background(), Request{
		RepoName:  "owner/repo",
		Provider:  "github",
		Chunks:    []string{"File: main.go\npackage main"},
		FileCount: 1,
	})
	if err != nil {
		t.Fatalf("AnalyzeRepository: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("content = %q", out)
	}
	if got.Model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}

func TestOpenAIRateLimit(t *testing.T) {
	srv := chatCompletionServer(t, http.StatusTooManyRequests, "", nil)

	p, err := NewOpenAI(config.AIConfig{APIKey: "key", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.AnalyzeRepository(context.Background(), Request{RepoName: "o/r"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestOpenAIDeploymentStyleOmitsModel(t *testing.T) {
	var got chatRequest
	var gotAPIVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIVersion = r.Header.Get("api-version")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p, err := NewOpenAI(config.AIConfig{
		APIKey:     "key",
		Model:      "gpt-4o",
		BaseURL:    srv.URL + "/openai/deployments/my-deployment",
		APIVersion: "2024-02-15-preview",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.AnalyzeRepository(context.Background(), Request{RepoName: "o/r"}); err != nil {
		t.Fatal(err)
	}
	if got.Model != "" {
		t.Errorf("deployment-style request must omit model, got %q", got.Model)
	}
	if gotAPIVersion != "2024-02-15-preview" {
		t.Errorf("api-version header = %q", gotAPIVersion)
	}
}

func TestNewDispatch(t *testing.T) {
	if _, err := New(config.AIConfig{Provider: "frontier-9000"}); err == nil {
		t.Error("unknown provider should fail")
	}
	p, err := New(config.AIConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if p.IsAvailable(context.Background()) {
		t.Error("noop provider must report unavailable")
	}
}
