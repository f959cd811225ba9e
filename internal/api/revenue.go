package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/pkg/httputil"
	"github.com/agrilink/offer-engine/internal/revenue"
)

// GetRevenueReport returns the computed payment row for one partner and
// calendar month. period is "YYYY-MM"; it defaults to the previous month.
func (h *Handlers) GetRevenueReport(w http.ResponseWriter, r *http.Request) {
	partnerID := chi.URLParam(r, "partnerID")

	period, err := parsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		httputil.FieldError(w, "period", "must be YYYY-MM")
		return
	}

	payment, err := h.revenue.Report(r.Context(), partnerID, period)
	if err != nil {
		if errors.Is(err, revenue.ErrPaymentNotFound) {
			httputil.NotFound(w, "no payment computed for period "+period.Label())
			return
		}
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, payment)
}

func parsePeriod(raw string) (domain.Period, error) {
	if raw == "" {
		return domain.PreviousMonth(time.Now()), nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return domain.Period{}, err
	}
	return domain.MonthPeriod(t.Year(), t.Month()), nil
}
