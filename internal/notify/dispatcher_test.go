package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
)

func TestDispatcherDefaultsToFailureEvents(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		got = append(got, payload["type"].(string))
	}))
	defer srv.Close()

	d := NewDispatcher(config.NotifyConfig{
		Webhook: config.WebhookNotifyConfig{URL: srv.URL},
	})
	if !d.IsAnyConfigured() {
		t.Fatal("webhook channel should be configured")
	}

	d.Notify(context.Background(), Event{Type: EventAnalysisCompleted, Title: "done"})
	d.Notify(context.Background(), Event{Type: EventAnalysisFailed, Title: "broke"})
	d.Notify(context.Background(), Event{Type: EventCloneFailed, Title: "broke"})

	if len(got) != 2 {
		t.Fatalf("sent %d events, want 2: %v", len(got), got)
	}
	for _, typ := range got {
		if typ == EventAnalysisCompleted {
			t.Fatal("completed event sent despite default failure-only filter")
		}
	}
}

func TestDispatcherSeverityThreshold(t *testing.T) {
	sent := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent++
	}))
	defer srv.Close()

	d := NewDispatcher(config.NotifyConfig{
		MinSeverity: "high",
		Events:      []string{EventAnalysisCompleted},
		Webhook:     config.WebhookNotifyConfig{URL: srv.URL},
	})

	d.Notify(context.Background(), Event{Type: EventAnalysisCompleted, Severity: "low"})
	if sent != 0 {
		t.Fatal("low severity event passed a high threshold")
	}
	d.Notify(context.Background(), Event{Type: EventAnalysisCompleted, Severity: "critical"})
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
	// Events without a severity (failures) always pass the threshold.
	d.Notify(context.Background(), Event{Type: EventAnalysisCompleted})
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
}

func TestDispatcherNilIsSafe(t *testing.T) {
	var d *Dispatcher
	d.Notify(context.Background(), Event{Type: EventAnalysisFailed})
}

func TestWebhookSignsPayload(t *testing.T) {
	const secret = "hook-secret"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sig := r.Header.Get("X-Repocloner-Signature")
		if !strings.HasPrefix(sig, "sha256=") {
			t.Fatalf("signature header = %q", sig)
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
		if sig != want {
			t.Fatalf("signature = %q, want %q", sig, want)
		}
	}))
	defer srv.Close()

	ch := NewWebhook(config.WebhookNotifyConfig{URL: srv.URL, Secret: secret})
	if err := ch.Send(context.Background(), Event{Type: EventCloneFailed, Title: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestChannelsReportConfiguration(t *testing.T) {
	if NewSlack(config.SlackNotifyConfig{}).IsConfigured() {
		t.Fatal("empty slack config reported configured")
	}
	if NewTelegram(config.TelegramNotifyConfig{BotToken: "t"}).IsConfigured() {
		t.Fatal("telegram without chat id reported configured")
	}
	if NewEmail(config.EmailNotifyConfig{SMTPHost: "smtp.example.com"}).IsConfigured() {
		t.Fatal("email without recipients reported configured")
	}
	if !NewEmail(config.EmailNotifyConfig{SMTPHost: "smtp.example.com", From: "a@b.c", To: "d@e.f"}).IsConfigured() {
		t.Fatal("complete email config reported unconfigured")
	}
}
