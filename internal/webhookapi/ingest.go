package webhookapi

import (
	"io"
	"net/http"

	"github.com/linnemanlabs/beacon/internal/alert"
	"github.com/linnemanlabs/beacon/internal/gate"
)

// handleIngest is the webhook entry point. It must stay fast: parse, gate,
// one durable insert, dispatch, acknowledge. The provider retries slow or
// failed deliveries, and every retry it makes becomes a duplicate record.
func (a *API) handleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		// Treat an unreadable body like an empty one; providers send
		// non-JSON pings and half-closed probes.
		body = nil
	}

	p := alert.Parse(body)

	switch d := a.gate.Check(r.Header, p); d.Outcome {
	case gate.Handshake:
		a.logger.Info(r.Context(), "answering provider handshake")
		writeJSON(w, http.StatusOK, map[string]any{"challenge": d.Challenge})
		return

	case gate.Reject:
		a.logger.Warn(r.Context(), "webhook call rejected", "reason", d.Reason)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": d.Reason})
		return
	}

	id, err := a.svc.Admit(r.Context(), r.Header, p)
	if err != nil {
		// The one fatal path on the request flow: if the alert cannot
		// be durably logged we must not claim success.
		a.logger.Error(r.Context(), err, "failed to record alert")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to record alert"})
		return
	}

	a.logger.Info(r.Context(), "alert admitted", "record_id", id, "alert_kind", p.Kind())
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
