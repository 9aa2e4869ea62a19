package enrich

import (
	"context"
	"time"

	"github.com/linnemanlabs/beacon/internal/alert"
)

// Summarizer is the interface for the language-model backend that turns a
// raw alert payload into a plain-English interpretation.
type Summarizer interface {
	Summarize(ctx context.Context, p *alert.Payload) (string, error)
}

// Notifier delivers an interpretation to the team channel. Implementations
// with no configured target return StatusSkipped instead of failing.
type Notifier interface {
	Send(ctx context.Context, n *Notification) (status string, err error)
}

// StatusSkipped is the delivery status recorded when no delivery target is
// configured.
const StatusSkipped = "skipped"

// Notification is what gets posted to the channel for one alert.
type Notification struct {
	RecordID   string
	Kind       string
	Analysis   string
	ReceivedAt time.Time
}
