package interaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/events"
	"github.com/agrilink/offer-engine/internal/kvstore"
	"github.com/agrilink/offer-engine/internal/metrics"
	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

// DefaultDedupeWindow is the impression dedupe horizon when the config
// doesn't set one. Roughly one serving session.
const DefaultDedupeWindow = 30 * time.Minute

// RecordInput holds the fields for recording one interaction.
type RecordInput struct {
	OfferID    string
	VariantID  string
	FarmID     string
	Type       domain.InteractionType
	SourcePage string
	IPAddress  string
	UserAgent  string
}

// Service implements interaction recording. All public methods are safe for
// concurrent use; counter correctness under concurrency comes from the
// repository's atomic increments, and the dedupe window is shared across
// service instances via the kvstore.
type Service struct {
	repo   Repository
	dedupe kvstore.Store
	bus    events.Publisher
	window time.Duration
	now    func() time.Time
}

// NewService creates an interaction service. window <= 0 selects
// DefaultDedupeWindow.
func NewService(repo Repository, dedupe kvstore.Store, bus events.Publisher, window time.Duration) *Service {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	return &Service{
		repo:   repo,
		dedupe: dedupe,
		bus:    bus,
		window: window,
		now:    time.Now,
	}
}

// SetClock overrides the service's time source. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Record validates and persists one interaction.
//
// Repeated impressions for the same (offer, farm) inside the dedupe window
// resolve to the pair's first recorded interaction without a new row or a
// counter bump. Clicks, dismisses and conversions always count: each user
// action is a distinct fact. The variant recorded here pins attribution for
// the pair's first exposure.
func (s *Service) Record(ctx context.Context, in RecordInput) (*domain.Interaction, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, in.Type)
	}
	if in.OfferID == "" {
		return nil, ErrMissingOffer
	}
	if in.FarmID == "" {
		return nil, ErrMissingFarm
	}

	if in.Type == domain.InteractionImpression {
		fresh, err := s.claimImpression(ctx, in.OfferID, in.FarmID)
		if err != nil {
			return nil, err
		}
		if !fresh {
			prior, err := s.repo.FirstImpression(ctx, in.OfferID, in.FarmID)
			if err == nil {
				metrics.InteractionsDeduped.Inc()
				return prior, nil
			}
			if err != ErrNotFound {
				return nil, fmt.Errorf("lookup deduped impression: %w", err)
			}
			// Marker present but no stored row (lost write): fall through
			// and record normally.
		}
	}

	rec := &domain.Interaction{
		ID:         uuid.New().String(),
		OfferID:    in.OfferID,
		VariantID:  in.VariantID,
		FarmID:     in.FarmID,
		Type:       in.Type,
		SourcePage: in.SourcePage,
		IPAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert interaction: %w", err)
	}

	switch in.Type {
	case domain.InteractionImpression:
		if err := s.repo.IncrementImpressions(ctx, in.OfferID); err != nil {
			// The interaction row exists; a missed counter bump is a
			// reporting drift, not a request failure.
			logger.Error("impression counter bump failed", "offer_id", in.OfferID, "error", err)
		}
	case domain.InteractionClick:
		if err := s.repo.IncrementClicks(ctx, in.OfferID); err != nil {
			logger.Error("click counter bump failed", "offer_id", in.OfferID, "error", err)
		}
	}

	s.bus.Publish(domain.InteractionRecorded{Interaction: *rec})
	return rec, nil
}

// PinnedVariant returns the variant recorded at the farm's first exposure
// to the offer, or ErrNotFound if no interaction exists yet.
func (s *Service) PinnedVariant(ctx context.Context, offerID, farmID string) (string, error) {
	first, err := s.repo.FirstForFarmOffer(ctx, offerID, farmID)
	if err != nil {
		return "", err
	}
	return first.VariantID, nil
}

// claimImpression marks (offer, farm) as impressed for the dedupe window.
// Returns true if this request owns the first impression in the window.
// When the shared store is unreachable the repository is consulted instead;
// dedupe degrades but never blocks recording.
func (s *Service) claimImpression(ctx context.Context, offerID, farmID string) (bool, error) {
	key := fmt.Sprintf("imp:%s:%s", offerID, farmID)
	ok, err := s.dedupe.SetNX(ctx, key, "1", s.window)
	if err == nil {
		return ok, nil
	}

	logger.Warn("dedupe store unavailable, falling back to repository check", "error", err)
	seen, repoErr := s.repo.ImpressionSince(ctx, offerID, farmID, s.now().Add(-s.window))
	if repoErr != nil {
		return false, fmt.Errorf("impression dedupe fallback: %w", repoErr)
	}
	return !seen, nil
}
