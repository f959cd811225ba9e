package revenue

import (
	"context"
	"errors"

	"github.com/agrilink/offer-engine/internal/domain"
)

// ErrPaymentNotFound is returned when no payment exists for the requested
// (partner, period).
var ErrPaymentNotFound = errors.New("partner payment not found")

// Repository defines the data access contract for revenue computation.
type Repository interface {
	// ClicksByOffer returns per-offer click counts for the partner's offers
	// inside the period [p.Start, p.End).
	ClicksByOffer(ctx context.Context, partnerID string, p domain.Period) (map[string]int64, error)

	// ConversionsByOffer returns per-offer counts of processed, valid
	// conversion events inside the period. Parked and invalidated events
	// are excluded.
	ConversionsByOffer(ctx context.Context, partnerID string, p domain.Period) (map[string]int64, error)

	// UpsertPendingPayment creates or overwrites the payment row for
	// (partner, period). Rows with status 'paid' must be left untouched;
	// applied is false in that case.
	UpsertPendingPayment(ctx context.Context, payment *domain.PartnerPayment) (applied bool, err error)

	// GetPayment returns the stored payment for (partner, period), or
	// ErrPaymentNotFound.
	GetPayment(ctx context.Context, partnerID string, p domain.Period) (*domain.PartnerPayment, error)
}
