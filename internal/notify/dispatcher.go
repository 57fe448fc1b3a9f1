package notify

import (
	"context"
	"log/slog"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
)

// Dispatcher fans events out to all configured channels.
type Dispatcher struct {
	channels []Channel
	minSev   string          // minimum severity for completed-analysis events
	events   map[string]bool // event types to send
}

// defaultEvents are sent when cfg.Events is empty: failures always matter,
// completions are opt-in noise.
var defaultEvents = map[string]bool{
	EventAnalysisFailed: true,
	EventCloneFailed:    true,
}

// NewDispatcher creates a Dispatcher from config. Only channels with
// IsConfigured() == true are active.
func NewDispatcher(cfg config.NotifyConfig) *Dispatcher {
	d := &Dispatcher{minSev: cfg.MinSeverity}
	if len(cfg.Events) > 0 {
		d.events = make(map[string]bool, len(cfg.Events))
		for _, e := range cfg.Events {
			d.events[e] = true
		}
	} else {
		d.events = defaultEvents
	}

	for _, ch := range []Channel{
		NewSlack(cfg.Slack),
		NewTelegram(cfg.Telegram),
		NewEmail(cfg.Email),
		NewWebhook(cfg.Webhook),
	} {
		if ch.IsConfigured() {
			d.channels = append(d.channels, ch)
		}
	}
	return d
}

// IsAnyConfigured reports whether at least one channel is ready to send.
func (d *Dispatcher) IsAnyConfigured() bool {
	return len(d.channels) > 0
}

// Notify sends evt to all configured channels. Errors are logged, never
// returned.
func (d *Dispatcher) Notify(ctx context.Context, evt Event) {
	if d == nil || !d.shouldSend(evt) {
		return
	}
	for _, ch := range d.channels {
		if err := ch.Send(ctx, evt); err != nil {
			slog.Warn("notify: channel send failed", "channel", ch.Name(), "event", evt.Type, "error", err)
		}
	}
}

func (d *Dispatcher) shouldSend(evt Event) bool {
	if len(d.events) > 0 && !d.events[evt.Type] {
		return false
	}
	if d.minSev != "" && evt.Severity != "" {
		return severityAtLeast(evt.Severity, d.minSev)
	}
	return true
}

// severityAtLeast reports whether got >= min in severity ordering.
func severityAtLeast(got, min string) bool {
	order := map[string]int{"critical": 4, "high": 3, "medium": 2, "low": 1}
	return order[got] >= order[min]
}
