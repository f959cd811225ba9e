package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/interaction"
	"github.com/agrilink/offer-engine/internal/metrics"
	"github.com/agrilink/offer-engine/internal/pkg/httputil"
)

type interactionRequest struct {
	OfferID    string `json:"offer_id"`
	VariantID  string `json:"variant_id"`
	Type       string `json:"type"`
	SourcePage string `json:"source_page"`
}

// PostInteraction records a farmer action against an offer. The response
// is a bare acknowledgment: interaction detail is internal, and a
// duplicate impression acknowledges exactly like a fresh one.
func (h *Handlers) PostInteraction(w http.ResponseWriter, r *http.Request) {
	farmID := chi.URLParam(r, "farmID")

	var req interactionRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	rec, err := h.interactions.Record(r.Context(), interaction.RecordInput{
		OfferID:    req.OfferID,
		VariantID:  req.VariantID,
		FarmID:     farmID,
		Type:       domain.InteractionType(req.Type),
		SourcePage: req.SourcePage,
		IPAddress:  realIP(r),
		UserAgent:  r.UserAgent(),
	})
	switch {
	case err == nil:
		metrics.RecordInteraction(string(rec.Type))
		httputil.Accepted(w)
	case errors.Is(err, interaction.ErrInvalidType),
		errors.Is(err, interaction.ErrMissingOffer),
		errors.Is(err, interaction.ErrMissingFarm):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
