// Package worker holds the engine's periodic background jobs: partner
// revenue aggregation and offer expiry sweeping. Each job blocks in Start
// until its context is cancelled.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/metrics"
	"github.com/agrilink/offer-engine/internal/pkg/distlock"
	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

// DefaultRevenueInterval is how often the revenue cycle runs. Payments are
// monthly, so hourly recomputes keep pending rows fresh without load.
const DefaultRevenueInterval = 1 * time.Hour

// PartnerSource lists the partners whose earnings are computed.
type PartnerSource interface {
	ActivePartnerIDs(ctx context.Context) ([]string, error)
}

// EarningsComputer is the slice of the revenue service the job needs.
type EarningsComputer interface {
	ComputeEarnings(ctx context.Context, partnerID string, period domain.Period) (*domain.PartnerPayment, error)
}

// LockFactory mints a distributed lock for a key. Injected so tests can
// substitute in-process locks.
type LockFactory func(key string) distlock.DistLock

// RevenueJob periodically recomputes each active partner's earnings for
// the previous calendar month. A per-(partner, period) distributed lock
// keeps concurrent instances from racing on the same payment row.
type RevenueJob struct {
	partners PartnerSource
	computer EarningsComputer
	locks    LockFactory
	interval time.Duration
	now      func() time.Time
}

// NewRevenueJob creates a revenue job. interval <= 0 selects the default.
func NewRevenueJob(partners PartnerSource, computer EarningsComputer, locks LockFactory, interval time.Duration) *RevenueJob {
	if interval <= 0 {
		interval = DefaultRevenueInterval
	}
	return &RevenueJob{
		partners: partners,
		computer: computer,
		locks:    locks,
		interval: interval,
		now:      time.Now,
	}
}

// SetClock overrides the job's time source. Test hook.
func (j *RevenueJob) SetClock(now func() time.Time) { j.now = now }

// Start begins the compute loop. It blocks until ctx is cancelled.
func (j *RevenueJob) Start(ctx context.Context) {
	logger.Info("revenue job starting", "interval", j.interval.String())

	j.RunOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("revenue job stopping")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce computes the previous month's earnings for every active partner.
// One partner's failure never aborts the cycle.
func (j *RevenueJob) RunOnce(ctx context.Context) {
	period := domain.PreviousMonth(j.now())

	partnerIDs, err := j.partners.ActivePartnerIDs(ctx)
	if err != nil {
		logger.Error("revenue job: list partners failed", "error", err)
		return
	}

	for _, partnerID := range partnerIDs {
		if err := j.computePartner(ctx, partnerID, period); err != nil {
			logger.Error("revenue compute failed",
				"partner_id", partnerID, "period", period.Label(), "error", err)
		}
	}
}

func (j *RevenueJob) computePartner(ctx context.Context, partnerID string, period domain.Period) error {
	lock := j.locks(fmt.Sprintf("revenue:%s:%s", partnerID, period.Label()))
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		// Another instance holds this (partner, period). Skip quietly.
		return nil
	}
	defer lock.Release(ctx)

	start := time.Now()
	payment, err := j.computer.ComputeEarnings(ctx, partnerID, period)
	if err != nil {
		return err
	}
	metrics.RevenueComputeDuration.Observe(time.Since(start).Seconds())

	logger.Info("revenue computed",
		"partner_id", partnerID, "period", period.Label(),
		"amount", payment.Amount, "status", string(payment.Status))
	return nil
}
