package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/agrilink/offer-engine/internal/lead"
	"github.com/agrilink/offer-engine/internal/metrics"
	"github.com/agrilink/offer-engine/internal/pkg/httputil"
	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

type leadRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	FarmSize int    `json:"farm_size"`
	Message  string `json:"message"`
	OfferID  string `json:"offer_id"`
}

// PostLead accepts one public lead form submission. The endpoint is
// unauthenticated, so it sits behind a sliding-window limiter keyed by
// client IP and by email.
func (h *Handlers) PostLead(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if !httputil.Decode(w, r, &req) {
		metrics.RecordLeadSubmission("rejected")
		return
	}

	ip := realIP(r)
	for _, key := range []string{"ip:" + ip, "email:" + strings.ToLower(strings.TrimSpace(req.Email))} {
		d, err := h.leadLimiter.Allow(r.Context(), key)
		if err != nil {
			// Limiter backend down: admit rather than block the form.
			logger.Warn("lead limiter unavailable", "error", err)
			break
		}
		if !d.Allowed {
			metrics.RecordLeadSubmission("throttled")
			httputil.TooManyRequests(w, int(d.RetryAfter.Seconds())+1)
			return
		}
	}

	_, err := h.leads.Submit(r.Context(), lead.SubmitInput{
		Name:     req.Name,
		Email:    req.Email,
		FarmSize: req.FarmSize,
		Message:  req.Message,
		OfferID:  req.OfferID,
		SourceIP: ip,
	})
	if err != nil {
		var verr *lead.ValidationError
		if errors.As(err, &verr) {
			metrics.RecordLeadSubmission("rejected")
			httputil.FieldError(w, verr.Field, verr.Reason)
			return
		}
		metrics.RecordLeadSubmission("error")
		httputil.InternalError(w, err)
		return
	}

	metrics.RecordLeadSubmission("accepted")
	httputil.Accepted(w)
}
