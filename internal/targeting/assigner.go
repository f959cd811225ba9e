package targeting

import (
	"hash/fnv"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

// Assign deterministically buckets a farm into one of the offer's variants.
//
// The (offer, farm) pair is hashed with FNV-64a and reduced modulo the total
// variant weight; the bucket is resolved by walking cumulative weight
// boundaries. The same pair therefore always lands on the same variant, for
// the life of the offer, across processes and restarts. No assignment table
// is needed for stability; the interaction recorder additionally pins the
// variant seen at first exposure so later weight edits don't move farms
// between arms.
//
// Degradation: an offer with no variants is its own implicit variant; a
// variant list whose weights don't sum to a positive total is inconsistent
// data, logged and treated the same way rather than failing the feed.
func Assign(offer domain.Offer, variants []domain.OfferVariant, farmID string) domain.OfferVariant {
	if len(variants) == 0 {
		return offer.SelfVariant()
	}

	total := 0
	for _, v := range variants {
		if v.Weight > 0 {
			total += v.Weight
		}
	}
	if total <= 0 {
		logger.Warn("variant weights sum to non-positive total, using offer content",
			"offer_id", offer.ID)
		return offer.SelfVariant()
	}

	bucket := int(bucketHash(offer.ID, farmID) % uint64(total))
	for _, v := range variants {
		if v.Weight <= 0 {
			continue
		}
		bucket -= v.Weight
		if bucket < 0 {
			return v
		}
	}
	// Unreachable: bucket < total by construction.
	return variants[len(variants)-1]
}

func bucketHash(offerID, farmID string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(offerID))
	h.Write([]byte{'|'})
	h.Write([]byte(farmID))
	return h.Sum64()
}
