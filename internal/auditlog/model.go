package auditlog

import "time"

// Record is one row per inbound delivery attempt. A record is created
// synchronously on the request path and mutated exactly once by the
// background pipeline; records are never deleted here.
type Record struct {
	ID              string    `json:"id"`
	ReceivedAt      time.Time `json:"received_at"`
	ProviderAlertID string    `json:"provider_alert_id,omitempty"`
	Kind            string    `json:"alert_kind,omitempty"`
	RawHeaders      []byte    `json:"raw_headers,omitempty"`
	RawPayload      []byte    `json:"raw_payload,omitempty"`

	// ProcessedAt is set the first time processing reaches a terminal
	// outcome and never changes afterwards. Zero means still in flight
	// (or abandoned by a shutdown, which is observable, not corruption).
	ProcessedAt time.Time `json:"processed_at,omitempty"`

	Analysis       string `json:"analysis_text,omitempty"`
	DeliveryStatus string `json:"delivery_status,omitempty"`
	ErrorText      string `json:"error_text,omitempty"`
}

// Processed reports whether background processing reached a terminal state.
func (r *Record) Processed() bool {
	return !r.ProcessedAt.IsZero()
}

// Update carries the outcome of one background pipeline run. Nil fields are
// left untouched; non-nil fields are applied only if the record does not
// already hold a value for them. The store stamps processed_at on the first
// Update for a record.
type Update struct {
	Analysis       *string
	DeliveryStatus *string
	ErrorText      *string
}

// Summary is the `/logs` view of a record: everything an operator needs to
// see what happened without the raw header/payload snapshots.
type Summary struct {
	ID              string    `json:"id"`
	ReceivedAt      time.Time `json:"received_at"`
	ProviderAlertID string    `json:"provider_alert_id,omitempty"`
	Kind            string    `json:"alert_kind,omitempty"`
	ProcessedAt     time.Time `json:"processed_at,omitempty"`
	Analysis        string    `json:"analysis_text,omitempty"`
	DeliveryStatus  string    `json:"delivery_status,omitempty"`
	ErrorText       string    `json:"error_text,omitempty"`
}

// Summarize projects a record onto its log summary.
func (r *Record) Summarize() Summary {
	return Summary{
		ID:              r.ID,
		ReceivedAt:      r.ReceivedAt,
		ProviderAlertID: r.ProviderAlertID,
		Kind:            r.Kind,
		ProcessedAt:     r.ProcessedAt,
		Analysis:        r.Analysis,
		DeliveryStatus:  r.DeliveryStatus,
		ErrorText:       r.ErrorText,
	}
}
