package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agrilink/offer-engine/internal/metrics"
	"github.com/agrilink/offer-engine/internal/pkg/httputil"
	"github.com/agrilink/offer-engine/internal/repository/postgres"
	"github.com/agrilink/offer-engine/internal/targeting"
)

// feedEntry is one offer of the farm's feed, with the assigned variant's
// content already folded in.
type feedEntry struct {
	OfferID     string `json:"offer_id"`
	VariantID   string `json:"variant_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CTAText     string `json:"cta_text,omitempty"`
	CTAURL      string `json:"cta_url,omitempty"`
	ImageRef    string `json:"image_ref,omitempty"`
	PromoCode   string `json:"promo_code,omitempty"`
	Featured    bool   `json:"featured"`
}

// GetOfferFeed returns the ordered, personalized offer list for a farm.
func (h *Handlers) GetOfferFeed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.FeedDuration.Observe(time.Since(start).Seconds())
	}()
	farmID := chi.URLParam(r, "farmID")

	farm, err := h.farms.Profile(r.Context(), farmID)
	if err != nil {
		if err == postgres.ErrFarmNotFound {
			metrics.FeedRequests.WithLabelValues("error").Inc()
			httputil.NotFound(w, "farm not found")
			return
		}
		metrics.FeedRequests.WithLabelValues("error").Inc()
		httputil.InternalError(w, err)
		return
	}

	placements, err := h.engine.OffersFor(r.Context(), *farm)
	if err != nil {
		metrics.FeedRequests.WithLabelValues("error").Inc()
		httputil.InternalError(w, err)
		return
	}

	entries := make([]feedEntry, 0, len(placements))
	for _, p := range placements {
		entries = append(entries, renderEntry(p))
	}

	metrics.FeedRequests.WithLabelValues("ok").Inc()
	httputil.OK(w, map[string]any{
		"farm_id": farmID,
		"offers":  entries,
	})
}

// renderEntry folds variant overrides onto the parent offer's content.
// Empty variant fields fall back to the offer's own copy.
func renderEntry(p targeting.Placement) feedEntry {
	e := feedEntry{
		OfferID:     p.Offer.ID,
		VariantID:   p.Variant.ID,
		Title:       p.Offer.Title,
		Description: p.Offer.Description,
		CTAText:     p.Offer.CTAText,
		CTAURL:      p.Offer.CTAURL,
		ImageRef:    p.Offer.ImageRef,
		PromoCode:   p.Offer.PromoCode,
		Featured:    p.Offer.Featured,
	}
	if p.Variant.Title != "" {
		e.Title = p.Variant.Title
	}
	if p.Variant.CTAText != "" {
		e.CTAText = p.Variant.CTAText
	}
	if p.Variant.PromoCode != "" {
		e.PromoCode = p.Variant.PromoCode
	}
	return e
}
