// Package slack delivers alert interpretations to Slack via incoming
// webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/beacon/internal/enrich"
)

const (
	maxAnalysisLen = 3000
	httpTimeout    = 10 * time.Second
)

// Notifier posts alert interpretations to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op
// that reports enrich.StatusSkipped; that keeps delivery explicitly
// unconfigured rather than silently failing.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// Send posts one interpretation to the configured webhook and returns the
// delivery status Slack reported (normally "ok").
func (n *Notifier) Send(ctx context.Context, msg *enrich.Notification) (string, error) {
	if n.webhookURL == "" {
		n.logger.Info(ctx, "slack webhook not configured, skipping delivery", "record_id", msg.RecordID)
		return enrich.StatusSkipped, nil
	}

	body, err := json.Marshal(buildMessage(msg))
	if err != nil {
		return "", fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return "", fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	status := strings.TrimSpace(string(respBody))
	if status == "" {
		status = "delivered"
	}
	return status, nil
}

func buildMessage(msg *enrich.Notification) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(msg),
			{"type": "divider"},
			analysisBlock(msg),
			{"type": "divider"},
			contextBlock(msg),
		},
	}
}

func headerBlock(msg *enrich.Notification) map[string]any {
	kind := msg.Kind
	if kind == "" {
		kind = "alert"
	}
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("\U0001f514 Alert: %s", kind),
		},
	}
}

func analysisBlock(msg *enrich.Notification) map[string]any {
	text := truncate(msg.Analysis, maxAnalysisLen)
	if text == "" {
		text = "_No interpretation available._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": text,
		},
	}
}

func contextBlock(msg *enrich.Notification) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("beacon • record %s • %s", msg.RecordID, msg.ReceivedAt.UTC().Format("2006-01-02 15:04 UTC")),
			},
		},
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
