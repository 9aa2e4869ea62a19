// Package webhookapi exposes the inbound webhook surface: alert ingestion
// with the provider handshake, liveness probes, and the audit log read API.
package webhookapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/beacon/internal/alert"
	"github.com/linnemanlabs/beacon/internal/auditlog"
	"github.com/linnemanlabs/beacon/internal/gate"
)

// Pipeline defines the business operations webhookapi needs.
type Pipeline interface {
	Admit(ctx context.Context, headers http.Header, p *alert.Payload) (string, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	gate   *gate.Gate
	svc    Pipeline
	store  auditlog.Store
}

// New creates a new API handler.
func New(logger log.Logger, g *gate.Gate, svc Pipeline, store auditlog.Store) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if g == nil {
		panic(xerrors.New("gate is required"))
	}
	if svc == nil {
		panic(xerrors.New("pipeline service is required"))
	}
	if store == nil {
		panic(xerrors.New("audit store is required"))
	}
	return &API{
		logger: logger,
		gate:   g,
		svc:    svc,
		store:  store,
	}
}

// RegisterRoutes attaches API endpoints to the router. The provider can be
// pointed at either the dedicated path or the root, so the ingest handler is
// mounted on both.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Post("/alerts-webhook", a.handleIngest)
	r.Post("/", a.handleIngest)
	r.Get("/alerts-webhook", a.handleWebhookProbe)
	r.Get("/", a.handleRootProbe)

	// Static liveness for the provider's health checker: must answer even
	// when the durable store is down, so it never touches dependencies.
	r.Get("/health", a.handleHealth)
	r.Head("/health", a.handleHealth)

	r.Get("/logs", a.handleListLogs)
	r.Get("/logs/{id}", a.handleGetLog)
}

func (a *API) handleWebhookProbe(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": "webhook alive"})
}

func (a *API) handleRootProbe(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "alive"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing to do with encode errors here
	_ = json.NewEncoder(w).Encode(body)
}
