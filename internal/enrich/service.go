package enrich

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/beacon/internal/alert"
	"github.com/linnemanlabs/beacon/internal/auditlog"
)

const (
	// EnrichTimeout bounds the language-model call. Unbounded stage calls
	// would let abandoned background tasks pile up.
	EnrichTimeout = 2 * time.Minute

	// DeliverTimeout bounds the channel post.
	DeliverTimeout = 30 * time.Second
)

// Service owns alert admission and the background pipeline.
type Service struct {
	store      auditlog.Store
	summarizer Summarizer
	notifier   Notifier
	logger     log.Logger
	metrics    *Metrics
}

// NewService creates the pipeline service. All dependencies are required;
// a target-less Notifier stands in when delivery is unconfigured.
func NewService(store auditlog.Store, summarizer Summarizer, notifier Notifier, logger log.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:      store,
		summarizer: summarizer,
		notifier:   notifier,
		logger:     logger,
		metrics:    metrics,
	}
}

// Admit durably records an inbound alert and schedules its background
// processing. It returns once the insert is durable; the provider's
// acknowledgment must not wait for enrichment or delivery. An insert failure
// is the one fatal path: without a record the call must not be acknowledged.
func (s *Service) Admit(ctx context.Context, headers http.Header, p *alert.Payload) (string, error) {
	id, err := s.store.Insert(ctx, headers, p)
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}
	s.metrics.AdmitsTotal.Inc()

	// Fire and forget: the pipeline outlives this request. WithoutCancel
	// keeps request-scoped values (logger, trace) without tying the
	// pipeline to the request's lifetime.
	go s.Process(context.WithoutCancel(ctx), id, p)

	return id, nil
}

// Process runs the pipeline for one admitted record: enrich, deliver, then
// a single audit update. Each external call is attempted exactly once; any
// failure is terminal for this record and surfaces only through the audit
// log, never to the original caller.
func (s *Service) Process(ctx context.Context, id string, p *alert.Payload) {
	L := s.logger.With("record_id", id, "alert_kind", p.Kind())
	start := time.Now()

	ectx, cancel := context.WithTimeout(ctx, EnrichTimeout)
	analysis, err := s.summarizer.Summarize(ectx, p)
	cancel()
	s.metrics.StageDuration.WithLabelValues("enrich").Observe(time.Since(start).Seconds())

	if err != nil {
		// Nothing to deliver without an interpretation.
		L.Error(ctx, err, "enrichment failed")
		errText := fmt.Sprintf("enrichment: %v", err)
		s.finish(ctx, L, id, auditlog.Update{ErrorText: &errText}, "enrich_failed", start)
		return
	}

	u := auditlog.Update{Analysis: &analysis}
	outcome := "delivered"

	deliverStart := time.Now()
	dctx, cancel := context.WithTimeout(ctx, DeliverTimeout)
	status, derr := s.notifier.Send(dctx, &Notification{
		RecordID:   id,
		Kind:       p.Kind(),
		Analysis:   analysis,
		ReceivedAt: start,
	})
	cancel()
	s.metrics.StageDuration.WithLabelValues("deliver").Observe(time.Since(deliverStart).Seconds())

	if derr != nil {
		L.Error(ctx, derr, "delivery failed")
		errText := fmt.Sprintf("delivery: %v", derr)
		u.ErrorText = &errText
		outcome = "delivery_failed"
	} else {
		u.DeliveryStatus = &status
		if status == StatusSkipped {
			outcome = StatusSkipped
		}
	}

	s.finish(ctx, L, id, u, outcome, start)
}

func (s *Service) finish(ctx context.Context, L log.Logger, id string, u auditlog.Update, outcome string, start time.Time) {
	if err := s.store.Update(ctx, id, u); err != nil {
		L.Error(ctx, err, "failed to persist pipeline outcome", "outcome", outcome)
		s.metrics.PipelinesTotal.WithLabelValues("store_failed").Inc()
		return
	}
	s.metrics.PipelinesTotal.WithLabelValues(outcome).Inc()
	L.Info(ctx, "pipeline complete",
		"outcome", outcome,
		"duration", time.Since(start).Seconds(),
	)
}
