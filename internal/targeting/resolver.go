package targeting

import (
	"context"
	"fmt"

	"github.com/agrilink/offer-engine/internal/domain"
)

// Resolver derives a deterministic variant assignment outside the feed
// path. Conversion attribution uses it when a farm converts without any
// recorded exposure: the assignment it computes is the same one the feed
// would have served.
type Resolver struct {
	source OfferSource
}

// NewResolver creates a resolver over the given offer source.
func NewResolver(source OfferSource) *Resolver {
	return &Resolver{source: source}
}

// ResolveVariant returns the variant ID the farm is bucketed into for the
// offer. Offers without variants resolve to the offer's own ID.
func (r *Resolver) ResolveVariant(ctx context.Context, offerID, farmID string) (string, error) {
	variants, err := r.source.VariantsFor(ctx, []string{offerID})
	if err != nil {
		return "", fmt.Errorf("load variants: %w", err)
	}
	v := Assign(domain.Offer{ID: offerID}, variants[offerID], farmID)
	return v.ID, nil
}
