package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrilink/offer-engine/internal/conversion"
	"github.com/agrilink/offer-engine/internal/metrics"
	"github.com/agrilink/offer-engine/internal/pkg/httputil"
	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

// webhookKeyHeader carries the partner's shared secret on every delivery.
const webhookKeyHeader = "X-Webhook-Key"

// PostConversion ingests one partner conversion delivery.
//
// Partners retry on 5xx, so anything transient (throughput gate, timeout)
// answers with a retryable 503; idempotency keys make the redelivery safe.
// Validation failures answer 400 with the offending field so the partner
// can fix their integration.
func (h *Handlers) PostConversion(w http.ResponseWriter, r *http.Request) {
	partnerID := chi.URLParam(r, "partnerID")

	if !h.webhookGate.Allow() {
		metrics.RecordWebhookEvent("throttled")
		httputil.Unavailable(w, 5)
		return
	}

	var payload conversion.Payload
	if !httputil.Decode(w, r, &payload) {
		metrics.RecordWebhookEvent("rejected")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.webhookTimeout)
	defer cancel()

	res, err := h.conversions.Ingest(ctx, partnerID, r.Header.Get(webhookKeyHeader), payload)
	if err != nil {
		h.writeIngestError(w, partnerID, err)
		return
	}

	status := "accepted"
	if res.Duplicate {
		status = "duplicate"
	}
	metrics.RecordWebhookEvent(status)
	httputil.OK(w, map[string]string{
		"status":   status,
		"event_id": res.Event.ID,
	})
}

func (h *Handlers) writeIngestError(w http.ResponseWriter, partnerID string, err error) {
	var verr *conversion.ValidationError
	switch {
	case errors.As(err, &verr):
		metrics.RecordWebhookEvent("rejected")
		httputil.FieldError(w, verr.Field, verr.Reason)
	case errors.Is(err, conversion.ErrUnauthorized), errors.Is(err, conversion.ErrKeyNotFound):
		metrics.RecordWebhookEvent("unauthorized")
		httputil.Unauthorized(w, "invalid webhook key")
	case errors.Is(err, conversion.ErrOfferNotFound):
		// The event is parked for reconciliation; tell the partner the
		// offer reference is wrong so they stop sending it.
		metrics.RecordWebhookEvent("parked")
		httputil.NotFound(w, "offer not found")
	case errors.Is(err, context.DeadlineExceeded):
		metrics.RecordWebhookEvent("timeout")
		logger.Warn("conversion ingest timed out", "partner_id", partnerID)
		httputil.Unavailable(w, 10)
	default:
		metrics.RecordWebhookEvent("error")
		httputil.InternalError(w, err)
	}
}
