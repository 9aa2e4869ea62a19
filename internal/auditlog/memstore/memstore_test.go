package memstore

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/linnemanlabs/beacon/internal/alert"
	"github.com/linnemanlabs/beacon/internal/auditlog"
)

func strPtr(s string) *string { return &s }

func insert(t *testing.T, s *Store, body string) string {
	t.Helper()
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	id, err := s.Insert(context.Background(), h, alert.Parse([]byte(body)))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return id
}

func TestInsertAndGet(t *testing.T) {
	t.Parallel()

	s := New()
	id := insert(t, s, `{"alertName":"large_transfer","amount":1000}`)

	got, ok, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected record to be found")
	}
	if got.Kind != "large_transfer" {
		t.Errorf("Kind = %q, want %q", got.Kind, "large_transfer")
	}
	if string(got.RawPayload) != `{"alertName":"large_transfer","amount":1000}` {
		t.Errorf("RawPayload = %s, want verbatim body", got.RawPayload)
	}
	if got.ReceivedAt.IsZero() {
		t.Error("ReceivedAt not set")
	}
	if got.Processed() {
		t.Error("ProcessedAt set before any Update")
	}
}

func TestInsert_EmptyPayloadNotNil(t *testing.T) {
	t.Parallel()

	// An unreadable body normalizes to an empty payload; the stored copy
	// must stay a non-nil slice so both Store implementations accept it.
	s := New()
	id, err := s.Insert(context.Background(), http.Header{}, alert.Parse(nil))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, _, _ := s.Get(context.Background(), id)
	if got.RawPayload == nil {
		t.Error("RawPayload is nil, want empty non-nil slice")
	}
	if len(got.RawPayload) != 0 {
		t.Errorf("RawPayload = %q, want empty", got.RawPayload)
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing id")
	}
}

func TestUpdate_SetOnce(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	id := insert(t, s, `{}`)

	if err := s.Update(ctx, id, auditlog.Update{Analysis: strPtr("first analysis")}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _, _ := s.Get(ctx, id)
	if !got.Processed() {
		t.Fatal("ProcessedAt not set by first Update")
	}
	firstProcessed := got.ProcessedAt

	// A second update must not overwrite processed_at or analysis, but may
	// fill fields that are still empty.
	if err := s.Update(ctx, id, auditlog.Update{
		Analysis:  strPtr("second analysis"),
		ErrorText: strPtr("late failure"),
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _, _ = s.Get(ctx, id)
	if got.Analysis != "first analysis" {
		t.Errorf("Analysis = %q, want first value kept", got.Analysis)
	}
	if !got.ProcessedAt.Equal(firstProcessed) {
		t.Errorf("ProcessedAt changed: %v -> %v", firstProcessed, got.ProcessedAt)
	}
	if got.ErrorText != "late failure" {
		t.Errorf("ErrorText = %q, want %q", got.ErrorText, "late failure")
	}
}

func TestUpdate_Missing(t *testing.T) {
	t.Parallel()

	s := New()
	if err := s.Update(context.Background(), "nope", auditlog.Update{}); err == nil {
		t.Fatal("expected error updating missing record")
	}
}

func TestListRecent_NewestFirst(t *testing.T) {
	t.Parallel()

	s := New()
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, insert(t, s, fmt.Sprintf(`{"alertName":"a%d"}`, i)))
	}

	got, err := s.ListRecent(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{ids[4], ids[3], ids[2]} {
		if got[i].ID != want {
			t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestListRecent_NoLimit(t *testing.T) {
	t.Parallel()

	s := New()
	for i := 0; i < 5; i++ {
		insert(t, s, `{}`)
	}

	for _, limit := range []int{0, -1} {
		got, err := s.ListRecent(context.Background(), limit)
		if err != nil {
			t.Fatalf("ListRecent(%d): %v", limit, err)
		}
		if len(got) != 5 {
			t.Errorf("ListRecent(%d) len = %d, want all 5", limit, len(got))
		}
	}
}

func TestListRecent_Idempotent(t *testing.T) {
	t.Parallel()

	s := New()
	insert(t, s, `{"alertName":"a"}`)
	insert(t, s, `{"alertName":"b"}`)

	first, err := s.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	second, err := s.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d differs between calls", i)
		}
	}
}

func TestConcurrentInsertAndUpdate(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id, err := s.Insert(ctx, http.Header{}, alert.Parse([]byte(`{}`)))
			if err != nil {
				t.Errorf("Insert: %v", err)
				return
			}
			status := fmt.Sprintf("ok-%d", n)
			if err := s.Update(ctx, id, auditlog.Update{DeliveryStatus: &status}); err != nil {
				t.Errorf("Update: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("records = %d, want 20", len(got))
	}
	for _, sm := range got {
		if sm.ProcessedAt.IsZero() {
			t.Errorf("record %s missing processed_at", sm.ID)
		}
	}
}
