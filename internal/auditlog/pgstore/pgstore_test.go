package pgstore_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/linnemanlabs/beacon/internal/alert"
	"github.com/linnemanlabs/beacon/internal/auditlog"
	"github.com/linnemanlabs/beacon/internal/auditlog/pgstore"
	"github.com/linnemanlabs/beacon/internal/postgres"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("BEACON_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BEACON_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

func strPtr(s string) *string { return &s }

func TestInsertAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Webhook-Token", "tok")

	body := `{"alertName":"large_transfer","alertId":"a-77","amount":1000}`
	id, err := s.Insert(ctx, h, alert.Parse([]byte(body)))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, ok, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}
	if got.Kind != "large_transfer" {
		t.Errorf("Kind = %q, want %q", got.Kind, "large_transfer")
	}
	if got.ProviderAlertID != "a-77" {
		t.Errorf("ProviderAlertID = %q, want %q", got.ProviderAlertID, "a-77")
	}
	if string(got.RawPayload) != body {
		t.Errorf("RawPayload = %s, want verbatim body", got.RawPayload)
	}
	if got.Processed() {
		t.Error("ProcessedAt set before any Update")
	}
}

func TestUpdate_SetOnce(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, http.Header{}, alert.Parse([]byte(`{}`)))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := s.Update(ctx, id, auditlog.Update{Analysis: strPtr("first")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Processed() {
		t.Fatal("ProcessedAt not set by first Update")
	}
	firstProcessed := got.ProcessedAt

	if err := s.Update(ctx, id, auditlog.Update{
		Analysis:  strPtr("second"),
		ErrorText: strPtr("late failure"),
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _, err = s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Analysis != "first" {
		t.Errorf("Analysis = %q, want first value kept", got.Analysis)
	}
	if !got.ProcessedAt.Equal(firstProcessed) {
		t.Errorf("ProcessedAt changed: %v -> %v", firstProcessed, got.ProcessedAt)
	}
	if got.ErrorText != "late failure" {
		t.Errorf("ErrorText = %q, want %q", got.ErrorText, "late failure")
	}
}

func TestUpdate_MissingRecord(t *testing.T) {
	s := openStore(t)

	err := s.Update(context.Background(), "01TESTMISSING0000000000000", auditlog.Update{})
	if err == nil {
		t.Fatal("expected error updating missing record")
	}
}

func TestInsert_EmptyPayload(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	// An unreadable body parses to an empty payload; the raw_payload column
	// is NOT NULL, so the empty slice must bind as empty bytes, not NULL.
	id, err := s.Insert(ctx, http.Header{}, alert.Parse(nil))
	if err != nil {
		t.Fatalf("Insert with empty payload: %v", err)
	}

	got, ok, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("record not found")
	}
	if len(got.RawPayload) != 0 {
		t.Errorf("RawPayload = %q, want empty", got.RawPayload)
	}
}

func TestListRecent_NoLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.Insert(ctx, http.Header{}, alert.Parse([]byte(`{}`))); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := s.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent(0): %v", err)
	}
	if len(got) < 2 {
		t.Errorf("ListRecent(0) len = %d, want all records (>= 2)", len(got))
	}
}

func TestListRecent_NewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.Insert(ctx, http.Header{}, alert.Parse([]byte(`{"alertName":"order-test"}`)))
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ids = append(ids, id)
	}

	got, err := s.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// ULIDs sort by creation time, so the newest insert comes back first.
	if got[0].ID != ids[2] {
		t.Errorf("got[0].ID = %q, want most recent %q", got[0].ID, ids[2])
	}
}
