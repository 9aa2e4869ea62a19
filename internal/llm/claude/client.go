// Package claude wraps the Anthropic API into the single summarization call
// the enrichment pipeline needs. One alert in, one plain-English
// interpretation out; failures are returned to the caller as data, never
// retried here.
package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/beacon/internal/alert"
)

const (
	// ResponseTokens caps the size of one interpretation.
	ResponseTokens = 1024

	httpTimeout = 120 * time.Second
)

const systemPrompt = `You are monitoring blockchain alerts from an on-chain intelligence provider.

For each alert payload you receive, explain in plain English what happened, including:
- Who sent the tokens (entity + label if available)
- Who received them (entity + label if available)
- What token was moved, how much, and USD value if included
- What the most likely interpretation is (trade, custody, bridge, etc.)
- Any alternative explanations worth noting

Be concise. This goes to an engineer's Slack channel.`

// Client produces natural-language interpretations of alert payloads.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a Claude client with the given API key and model name. Extra
// request options (e.g. a base URL override in tests) are applied after the
// defaults.
func New(apiKey, model string, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: httpTimeout}),
	}
	return &Client{
		client: anthropic.NewClient(append(base, opts...)...),
		model:  anthropic.Model(model),
	}
}

// Summarize sends the alert payload to the model and returns the generated
// interpretation. The call is attempted exactly once.
func (c *Client) Summarize(ctx context.Context, p *alert.Payload) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: ResponseTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(p))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("claude: response contained no text")
	}
	return sb.String(), nil
}

func buildPrompt(p *alert.Payload) string {
	return fmt.Sprintf("Here is a new alert payload (JSON):\n\n%s\n\nPlease interpret it.", p.Pretty())
}
