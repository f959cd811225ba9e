package targeting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/agrilink/offer-engine/internal/domain"
)

// OfferSource is the read contract the engine needs from storage.
type OfferSource interface {
	// ListActive returns all offers flagged active, with targeting rules
	// populated. Scheduling-window filtering happens in the engine.
	ListActive(ctx context.Context) ([]domain.Offer, error)

	// VariantsFor returns the variants of the given offers, keyed by offer ID.
	// Offers without variants may be absent from the map.
	VariantsFor(ctx context.Context, offerIDs []string) (map[string][]domain.OfferVariant, error)
}

// Placement is one entry of a farm's offer feed: the offer plus the variant
// arm this farm is assigned to.
type Placement struct {
	Offer   domain.Offer
	Variant domain.OfferVariant
}

// Engine builds the ordered offer feed for a farm.
type Engine struct {
	source OfferSource
	now    func() time.Time
}

// NewEngine creates a targeting engine over the given offer source.
func NewEngine(source OfferSource) *Engine {
	return &Engine{source: source, now: time.Now}
}

// SetClock overrides the engine's time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// OffersFor returns the ordered list of placements for a farm.
//
// Selection is pure: live-window filter, eligibility filter, deterministic
// variant assignment, then a stable sort by (featured desc, priority desc,
// created_at desc) with offer ID as the final tiebreaker. A problem with
// one offer (inconsistent variants, unknown rule kind) degrades that offer
// only and never aborts the feed. The caller decides how many placements to
// surface and is responsible for recording impressions.
func (e *Engine) OffersFor(ctx context.Context, farm domain.FarmProfile) ([]Placement, error) {
	offers, err := e.source.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active offers: %w", err)
	}

	now := e.now()
	eligible := offers[:0]
	for _, o := range offers {
		if !o.IsLiveAt(now) {
			continue
		}
		if !Matches(o.Rule, farm) {
			continue
		}
		eligible = append(eligible, o)
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	ids := make([]string, len(eligible))
	for i, o := range eligible {
		ids[i] = o.ID
	}
	variants, err := e.source.VariantsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}

	placements := make([]Placement, 0, len(eligible))
	for _, o := range eligible {
		placements = append(placements, Placement{
			Offer:   o,
			Variant: Assign(o, variants[o.ID], farm.ID),
		})
	}

	sort.SliceStable(placements, func(i, j int) bool {
		a, b := placements[i].Offer, placements[j].Offer
		if a.Featured != b.Featured {
			return a.Featured
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	return placements, nil
}
