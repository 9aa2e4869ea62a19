// Package alert models inbound webhook payloads from the alert provider.
//
// The provider's schema is not stable and payloads are treated as opaque:
// parsing is best-effort and a body that is not valid JSON yields an empty
// payload rather than an error.
package alert

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Payload is a best-effort view over one inbound webhook body. Raw always
// holds the bytes exactly as received, even when they are not valid JSON.
type Payload struct {
	Raw []byte
}

// Parse wraps a raw webhook body. It never fails; callers that need
// structured fields use the accessors, which return zero values when the
// body is malformed or the field is absent. Raw is never nil: a nil body
// (unreadable request, half-closed probe) normalizes to an empty slice so
// stores that bind nil as SQL NULL still satisfy their NOT NULL columns.
func Parse(body []byte) *Payload {
	if body == nil {
		body = []byte{}
	}
	return &Payload{Raw: body}
}

// IsJSON reports whether the raw body parses as JSON.
func (p *Payload) IsJSON() bool {
	return json.Valid(p.Raw)
}

// Challenge returns the provider's endpoint-verification challenge value and
// whether one is present. The value is returned as raw JSON so it can be
// echoed back byte-for-byte regardless of its type.
func (p *Payload) Challenge() (json.RawMessage, bool) {
	if !p.IsJSON() {
		return nil, false
	}
	c := gjson.GetBytes(p.Raw, "challenge")
	if !c.Exists() {
		return nil, false
	}
	return json.RawMessage(c.Raw), true
}

// ProviderAlertID returns the provider's correlation key for this alert, if
// the payload carries one under any of the field names seen in the wild.
func (p *Payload) ProviderAlertID() string {
	return p.firstString("alertId", "alert_id", "id")
}

// Kind returns the provider's classification label for this alert, if any.
func (p *Payload) Kind() string {
	return p.firstString("alertName", "alert_name", "kind")
}

func (p *Payload) firstString(keys ...string) string {
	if !p.IsJSON() {
		return ""
	}
	for _, k := range keys {
		if v := gjson.GetBytes(p.Raw, k); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}

// Pretty returns an indented rendering of the payload for prompts and
// notifications, falling back to the raw bytes when the body is not JSON.
func (p *Payload) Pretty() string {
	if len(p.Raw) == 0 {
		return "{}"
	}
	var v any
	if err := json.Unmarshal(p.Raw, &v); err != nil {
		return string(p.Raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(p.Raw)
	}
	return string(out)
}
