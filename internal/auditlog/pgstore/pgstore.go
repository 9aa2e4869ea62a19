// Package pgstore provides a PostgreSQL implementation of auditlog.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/beacon/internal/alert"
	"github.com/linnemanlabs/beacon/internal/auditlog"
)

var tracer = otel.Tracer("github.com/linnemanlabs/beacon/internal/auditlog/pgstore")

//go:embed schema.sql
var schema string

// Store persists alert records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool is owned by the
// caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const recordColumns = `id, received_at, provider_alert_id, alert_kind, raw_headers, raw_payload,
	processed_at, analysis_text, delivery_status, error_text`

// Insert creates a record from the inbound call and returns its id. The
// insert is durable before return; the webhook handler acknowledges the
// provider only after this succeeds.
func (s *Store) Insert(ctx context.Context, headers http.Header, p *alert.Payload) (string, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Insert", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	rawHeaders, err := json.Marshal(headers)
	if err != nil {
		return "", fmt.Errorf("marshal headers: %w", err)
	}

	id := ulid.Make().String()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO alert_records (id, received_at, provider_alert_id, alert_kind, raw_headers, raw_payload)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, time.Now().UTC(), p.ProviderAlertID(), p.Kind(), rawHeaders, p.Raw,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

// Update applies a processing outcome. COALESCE keeps already-set fields,
// so processed_at and the stage outputs are write-once at the row level even
// if an update is ever replayed.
func (s *Store) Update(ctx context.Context, id string, u auditlog.Update) error {
	ctx, span := tracer.Start(ctx, "pgstore.Update", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	tag, err := s.pool.Exec(ctx,
		`UPDATE alert_records SET
			processed_at    = COALESCE(processed_at, $2),
			analysis_text   = COALESCE(analysis_text, $3),
			delivery_status = COALESCE(delivery_status, $4),
			error_text      = COALESCE(error_text, $5)
		 WHERE id = $1`,
		id, time.Now().UTC(), u.Analysis, u.DeliveryStatus, u.ErrorText,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pgstore: record %s not found", id)
	}
	return nil
}

// Get retrieves a record by id.
func (s *Store) Get(ctx context.Context, id string) (*auditlog.Record, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM alert_records WHERE id = $1`
	r, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// ListRecent returns up to limit record summaries, newest first. A limit
// <= 0 returns everything, matching the memstore contract.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]auditlog.Summary, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListRecent", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	// LIMIT NULL is LIMIT ALL.
	var lim any
	if limit > 0 {
		lim = limit
	}
	query := `SELECT ` + recordColumns + ` FROM alert_records ORDER BY received_at DESC, id DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, lim)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []auditlog.Summary
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r.Summarize())
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// scanRecord scans a single row into a Record. Returns (nil, nil) when no
// row is found.
func scanRecord(row pgx.Row) (*auditlog.Record, error) {
	var (
		r              auditlog.Record
		processedAt    *time.Time
		analysis       *string
		deliveryStatus *string
		errorText      *string
	)

	err := row.Scan(
		&r.ID, &r.ReceivedAt, &r.ProviderAlertID, &r.Kind, &r.RawHeaders, &r.RawPayload,
		&processedAt, &analysis, &deliveryStatus, &errorText,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	if processedAt != nil {
		r.ProcessedAt = *processedAt
	}
	if analysis != nil {
		r.Analysis = *analysis
	}
	if deliveryStatus != nil {
		r.DeliveryStatus = *deliveryStatus
	}
	if errorText != nil {
		r.ErrorText = *errorText
	}
	return &r, nil
}
