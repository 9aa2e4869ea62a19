// Package memstore provides an in-memory implementation of auditlog.Store.
// Records vanish on restart, so it is suitable for dev/testing only; the
// server logs a warning when it runs without a database.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/beacon/internal/alert"
	"github.com/linnemanlabs/beacon/internal/auditlog"
)

// Store holds alert records in memory.
type Store struct {
	mu      sync.RWMutex
	records map[string]*auditlog.Record
	order   []string // insertion order, oldest first
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		records: make(map[string]*auditlog.Record),
	}
}

// Insert creates a record and returns its id.
func (s *Store) Insert(_ context.Context, headers http.Header, p *alert.Payload) (string, error) {
	rawHeaders, err := json.Marshal(headers)
	if err != nil {
		return "", fmt.Errorf("marshal headers: %w", err)
	}

	r := &auditlog.Record{
		ID:              ulid.Make().String(),
		ReceivedAt:      time.Now().UTC(),
		ProviderAlertID: p.ProviderAlertID(),
		Kind:            p.Kind(),
		RawHeaders:      rawHeaders,
		RawPayload:      append(make([]byte, 0, len(p.Raw)), p.Raw...),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r
	s.order = append(s.order, r.ID)
	return r.ID, nil
}

// Update applies a processing outcome. Fields already set on the record are
// kept; processed_at is stamped on the first call only.
func (s *Store) Update(_ context.Context, id string, u auditlog.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("memstore: record %s not found", id)
	}

	if r.ProcessedAt.IsZero() {
		r.ProcessedAt = time.Now().UTC()
	}
	if u.Analysis != nil && r.Analysis == "" {
		r.Analysis = *u.Analysis
	}
	if u.DeliveryStatus != nil && r.DeliveryStatus == "" {
		r.DeliveryStatus = *u.DeliveryStatus
	}
	if u.ErrorText != nil && r.ErrorText == "" {
		r.ErrorText = *u.ErrorText
	}
	return nil
}

// Get retrieves a record by id. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*auditlog.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// ListRecent returns up to limit summaries, newest first. A limit <= 0
// returns everything, matching the pgstore contract.
func (s *Store) ListRecent(_ context.Context, limit int) ([]auditlog.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}

	out := make([]auditlog.Summary, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[s.order[i]].Summarize())
	}
	return out, nil
}
