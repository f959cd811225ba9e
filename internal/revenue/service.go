package revenue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/events"
	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

// Service computes partner earnings. Safe for concurrent use across
// partners; concurrent recomputation for the same (partner, period) is
// overwrite-safe, and the revenue worker additionally serializes runs with
// a per-(partner, period) distributed lock.
type Service struct {
	repo    Repository
	pricing PricingTable
	bus     events.Publisher
	now     func() time.Time
}

// NewService creates a revenue service with the injected pricing table.
func NewService(repo Repository, pricing PricingTable, bus events.Publisher) *Service {
	return &Service{repo: repo, pricing: pricing, bus: bus, now: time.Now}
}

// SetClock overrides the service's time source. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ComputeEarnings aggregates the partner's clicks and valid conversions in
// the period into a payment row:
//
//	amount = Σ clicks(offer) × CPC(offer) + Σ conversions(offer) × CPA(offer)
//
// The pending payment for (partner, period) is created or overwritten; a
// payment already marked paid is returned unchanged.
func (s *Service) ComputeEarnings(ctx context.Context, partnerID string, period domain.Period) (*domain.PartnerPayment, error) {
	clicks, err := s.repo.ClicksByOffer(ctx, partnerID, period)
	if err != nil {
		return nil, fmt.Errorf("count clicks: %w", err)
	}
	conversions, err := s.repo.ConversionsByOffer(ctx, partnerID, period)
	if err != nil {
		return nil, fmt.Errorf("count conversions: %w", err)
	}

	var amount float64
	var totalClicks, totalConversions int64
	for offerID, n := range clicks {
		totalClicks += n
		amount += float64(n) * s.pricing.ClickRate(offerID)
	}
	for offerID, n := range conversions {
		totalConversions += n
		amount += float64(n) * s.pricing.ConversionRate(offerID)
	}

	payment := &domain.PartnerPayment{
		ID:               uuid.New().String(),
		PartnerID:        partnerID,
		PeriodStart:      period.Start,
		PeriodEnd:        period.End,
		TotalClicks:      totalClicks,
		TotalConversions: totalConversions,
		Amount:           amount,
		Status:           domain.PaymentPending,
		CreatedAt:        s.now().UTC(),
		UpdatedAt:        s.now().UTC(),
	}

	applied, err := s.repo.UpsertPendingPayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("upsert payment: %w", err)
	}
	if !applied {
		// Already paid: report the frozen row, don't recompute history.
		existing, err := s.repo.GetPayment(ctx, partnerID, period)
		if err != nil {
			return nil, fmt.Errorf("load paid payment: %w", err)
		}
		logger.Info("skipping recompute of paid period",
			"partner_id", partnerID, "period", period.Label())
		return existing, nil
	}

	s.bus.Publish(domain.PaymentComputed{Payment: *payment})
	return payment, nil
}

// Report returns the stored earnings row for (partner, period).
func (s *Service) Report(ctx context.Context, partnerID string, period domain.Period) (*domain.PartnerPayment, error) {
	return s.repo.GetPayment(ctx, partnerID, period)
}
