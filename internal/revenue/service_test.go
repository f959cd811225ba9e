package revenue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/events"
	"github.com/agrilink/offer-engine/internal/revenue"
)

// memRevRepo is an in-memory revenue repository for unit testing.
type memRevRepo struct {
	mu          sync.Mutex
	clicks      map[string]map[string]int64 // partnerID -> offerID -> count
	conversions map[string]map[string]int64
	payments    map[string]*domain.PartnerPayment // partnerID|periodLabel
}

func newMemRevRepo() *memRevRepo {
	return &memRevRepo{
		clicks:      make(map[string]map[string]int64),
		conversions: make(map[string]map[string]int64),
		payments:    make(map[string]*domain.PartnerPayment),
	}
}

func payKey(partnerID string, p domain.Period) string { return partnerID + "|" + p.Label() }

func (m *memRevRepo) ClicksByOffer(_ context.Context, partnerID string, _ domain.Period) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clicks[partnerID], nil
}

func (m *memRevRepo) ConversionsByOffer(_ context.Context, partnerID string, _ domain.Period) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversions[partnerID], nil
}

func (m *memRevRepo) UpsertPendingPayment(_ context.Context, p *domain.PartnerPayment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := payKey(p.PartnerID, p.Period())
	if existing, ok := m.payments[k]; ok {
		if existing.Status == domain.PaymentPaid {
			return false, nil
		}
		// Overwrite pending amounts, keep the original row identity.
		existing.TotalClicks = p.TotalClicks
		existing.TotalConversions = p.TotalConversions
		existing.Amount = p.Amount
		existing.UpdatedAt = p.UpdatedAt
		*p = *existing
		return true, nil
	}
	cp := *p
	m.payments[k] = &cp
	return true, nil
}

func (m *memRevRepo) GetPayment(_ context.Context, partnerID string, p domain.Period) (*domain.PartnerPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pay, ok := m.payments[payKey(partnerID, p)]; ok {
		cp := *pay
		return &cp, nil
	}
	return nil, revenue.ErrPaymentNotFound
}

var testPeriod = domain.MonthPeriod(2026, time.July)

func TestComputeEarningsArithmetic(t *testing.T) {
	repo := newMemRevRepo()
	repo.clicks["p1"] = map[string]int64{"o1": 40}
	repo.conversions["p1"] = map[string]int64{"o1": 3}

	svc := revenue.NewService(repo, revenue.PricingTable{CPC: 0.10, CPA: 5.00}, events.Nop{})

	pay, err := svc.ComputeEarnings(context.Background(), "p1", testPeriod)
	require.NoError(t, err)

	// 40 × 0.10 + 3 × 5.00 = 19.00
	assert.InDelta(t, 19.00, pay.Amount, 0.0001)
	assert.Equal(t, int64(40), pay.TotalClicks)
	assert.Equal(t, int64(3), pay.TotalConversions)
	assert.Equal(t, domain.PaymentPending, pay.Status)
}

func TestComputeEarningsPerOfferOverride(t *testing.T) {
	repo := newMemRevRepo()
	repo.clicks["p1"] = map[string]int64{"o-flat": 10, "o-premium": 10}
	repo.conversions["p1"] = map[string]int64{"o-premium": 2}

	cpc := 0.50
	cpa := 12.00
	pricing := revenue.PricingTable{
		CPC: 0.10,
		CPA: 5.00,
		PerOffer: map[string]revenue.OfferPricing{
			"o-premium": {CPC: &cpc, CPA: &cpa},
		},
	}
	svc := revenue.NewService(repo, pricing, events.Nop{})

	pay, err := svc.ComputeEarnings(context.Background(), "p1", testPeriod)
	require.NoError(t, err)

	// 10×0.10 + 10×0.50 + 2×12.00 = 30.00
	assert.InDelta(t, 30.00, pay.Amount, 0.0001)
}

func TestComputeEarningsRecomputeOverwritesPending(t *testing.T) {
	repo := newMemRevRepo()
	repo.clicks["p1"] = map[string]int64{"o1": 40}
	svc := revenue.NewService(repo, revenue.PricingTable{CPC: 0.10, CPA: 5.00}, events.Nop{})
	ctx := context.Background()

	first, err := svc.ComputeEarnings(ctx, "p1", testPeriod)
	require.NoError(t, err)
	assert.InDelta(t, 4.00, first.Amount, 0.0001)

	// More clicks land before the period is paid out.
	repo.mu.Lock()
	repo.clicks["p1"]["o1"] = 100
	repo.mu.Unlock()

	second, err := svc.ComputeEarnings(ctx, "p1", testPeriod)
	require.NoError(t, err)
	assert.InDelta(t, 10.00, second.Amount, 0.0001)
	// Same payment row, overwritten.
	assert.Equal(t, first.ID, second.ID)

	stored, err := svc.Report(ctx, "p1", testPeriod)
	require.NoError(t, err)
	assert.InDelta(t, 10.00, stored.Amount, 0.0001)
}

func TestComputeEarningsNeverTouchesPaid(t *testing.T) {
	repo := newMemRevRepo()
	repo.clicks["p1"] = map[string]int64{"o1": 40}
	svc := revenue.NewService(repo, revenue.PricingTable{CPC: 0.10, CPA: 5.00}, events.Nop{})
	ctx := context.Background()

	first, err := svc.ComputeEarnings(ctx, "p1", testPeriod)
	require.NoError(t, err)

	// Admin marks the period paid.
	repo.mu.Lock()
	paidAt := time.Now()
	repo.payments[payKey("p1", testPeriod)].Status = domain.PaymentPaid
	repo.payments[payKey("p1", testPeriod)].PaidAt = &paidAt
	repo.clicks["p1"]["o1"] = 10000
	repo.mu.Unlock()

	got, err := svc.ComputeEarnings(ctx, "p1", testPeriod)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.Status)
	assert.InDelta(t, first.Amount, got.Amount, 0.0001)
}

func TestComputeEarningsEmptyPeriod(t *testing.T) {
	repo := newMemRevRepo()
	svc := revenue.NewService(repo, revenue.PricingTable{CPC: 0.10, CPA: 5.00}, events.Nop{})

	pay, err := svc.ComputeEarnings(context.Background(), "p1", testPeriod)
	require.NoError(t, err)
	assert.Zero(t, pay.Amount)
	assert.Zero(t, pay.TotalClicks)
	assert.Zero(t, pay.TotalConversions)
}

func TestReportNotFound(t *testing.T) {
	svc := revenue.NewService(newMemRevRepo(), revenue.PricingTable{}, events.Nop{})
	_, err := svc.Report(context.Background(), "p-ghost", testPeriod)
	assert.ErrorIs(t, err, revenue.ErrPaymentNotFound)
}
