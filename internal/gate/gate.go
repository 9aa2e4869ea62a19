// Package gate decides whether an inbound webhook call is admitted.
//
// The provider performs an endpoint-verification handshake by POSTing a body
// with a "challenge" field; the correct response is to echo the value back
// unchanged. Verification happens during endpoint registration, before any
// credential exists, so the challenge check always runs first and bypasses
// authentication entirely.
package gate

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/linnemanlabs/beacon/internal/alert"
)

// Outcome classifies a gate decision.
type Outcome int

const (
	// Allow admits the call for ingestion.
	Allow Outcome = iota

	// Reject refuses the call; no record is created.
	Reject

	// Handshake answers the provider's verification probe; no record is created.
	Handshake
)

// Decision is the result of checking one inbound call.
type Decision struct {
	Outcome   Outcome
	Reason    string          // set on Reject
	Challenge json.RawMessage // set on Handshake, echoed back verbatim
}

// TokenHeader is the provider's native credential header, accepted as an
// alternative to Authorization: Bearer.
const TokenHeader = "X-Webhook-Token"

// Gate validates inbound webhook calls against an optional shared secret.
type Gate struct {
	secret string
}

// New creates a Gate. An empty secret puts the gate in permissive mode:
// every non-handshake call is allowed. That is an insecure configuration
// meant for initial endpoint registration and local development only.
func New(secret string) *Gate {
	return &Gate{secret: secret}
}

// Permissive reports whether the gate admits unauthenticated calls.
func (g *Gate) Permissive() bool {
	return g.secret == ""
}

// Check decides the fate of one inbound call. The challenge short-circuit
// runs before authentication so provider verification works pre-credential.
func (g *Gate) Check(h http.Header, p *alert.Payload) Decision {
	if c, ok := p.Challenge(); ok {
		return Decision{Outcome: Handshake, Challenge: c}
	}

	if g.secret == "" {
		return Decision{Outcome: Allow}
	}

	cred := credential(h)
	if cred == "" {
		return Decision{Outcome: Reject, Reason: "missing credential"}
	}
	if subtle.ConstantTimeCompare([]byte(cred), []byte(g.secret)) != 1 {
		return Decision{Outcome: Reject, Reason: "invalid credential"}
	}
	return Decision{Outcome: Allow}
}

// credential extracts the presented secret from either the Authorization
// bearer header or the provider's token header.
func credential(h http.Header) string {
	if auth := h.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return auth[len("Bearer "):]
	}
	return h.Get(TokenHeader)
}
