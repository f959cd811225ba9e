package conversion

import (
	"context"

	"github.com/agrilink/offer-engine/internal/domain"
)

// Repository defines the data access contract for conversion ingestion.
// Implementations must enforce uniqueness of (partner_id, idempotency_key)
// at the storage layer; Insert relies on that constraint for its
// at-most-one-effect semantics.
type Repository interface {
	// ActiveWebhookKey returns the partner's single active key, or
	// ErrKeyNotFound.
	ActiveWebhookKey(ctx context.Context, partnerID string) (*domain.WebhookKey, error)

	// RotateWebhookKey deactivates the partner's current key and stores the
	// new secret as the active key, atomically.
	RotateWebhookKey(ctx context.Context, partnerID, newSecret string) (*domain.WebhookKey, error)

	// OfferOwner returns the partner ID owning the offer, or ErrOfferNotFound.
	OfferOwner(ctx context.Context, offerID string) (string, error)

	// FindByIdempotencyKey returns the existing event for (partner, key),
	// or nil if none exists.
	FindByIdempotencyKey(ctx context.Context, partnerID, key string) (*domain.ConversionEvent, error)

	// Insert stores a new conversion event. If (partner, idempotency key)
	// already exists it performs no write and returns the existing event
	// with created=false.
	Insert(ctx context.Context, ev *domain.ConversionEvent) (created bool, existing *domain.ConversionEvent, err error)
}
