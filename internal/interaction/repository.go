package interaction

import (
	"context"
	"time"

	"github.com/agrilink/offer-engine/internal/domain"
)

// Repository defines the data access contract for interactions.
// Implementations must be safe for concurrent use, and counter increments
// must be single-statement atomic updates (no read-modify-write).
type Repository interface {
	// Insert appends a new interaction. Interactions are immutable once
	// written.
	Insert(ctx context.Context, in *domain.Interaction) error

	// FirstForFarmOffer returns the earliest interaction for (offer, farm),
	// or ErrNotFound. Used to pin variant attribution to first exposure.
	FirstForFarmOffer(ctx context.Context, offerID, farmID string) (*domain.Interaction, error)

	// FirstImpression returns the earliest impression for (offer, farm),
	// or ErrNotFound. The pair's first interaction may be a click or a
	// dismiss, so dedupe resolution cannot use FirstForFarmOffer.
	FirstImpression(ctx context.Context, offerID, farmID string) (*domain.Interaction, error)

	// ImpressionSince reports whether an impression for (offer, farm) was
	// recorded at or after the given time. Fallback dedupe check when the
	// shared dedupe store is unavailable.
	ImpressionSince(ctx context.Context, offerID, farmID string, since time.Time) (bool, error)

	// IncrementImpressions atomically bumps the offer's impression counter.
	IncrementImpressions(ctx context.Context, offerID string) error

	// IncrementClicks atomically bumps the offer's click counter.
	IncrementClicks(ctx context.Context, offerID string) error
}
