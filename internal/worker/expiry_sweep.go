package worker

import (
	"context"
	"time"

	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

// DefaultSweepInterval is how often the expiry sweep runs.
const DefaultSweepInterval = 10 * time.Minute

// OfferDeactivator flips expired offers inactive.
type OfferDeactivator interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
}

// ExpirySweep periodically deactivates offers whose end date has passed.
// The feed's live-window filter already hides them; the sweep keeps the
// active flag honest for admin views and partner listings.
type ExpirySweep struct {
	offers   OfferDeactivator
	interval time.Duration
	now      func() time.Time
}

// NewExpirySweep creates a sweep. interval <= 0 selects the default.
func NewExpirySweep(offers OfferDeactivator, interval time.Duration) *ExpirySweep {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &ExpirySweep{offers: offers, interval: interval, now: time.Now}
}

// SetClock overrides the sweep's time source. Test hook.
func (s *ExpirySweep) SetClock(now func() time.Time) { s.now = now }

// Start begins the sweep loop. It blocks until ctx is cancelled.
func (s *ExpirySweep) Start(ctx context.Context) {
	logger.Info("expiry sweep starting", "interval", s.interval.String())

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("expiry sweep stopping")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep.
func (s *ExpirySweep) RunOnce(ctx context.Context) {
	n, err := s.offers.DeactivateExpired(ctx, s.now().UTC())
	if err != nil {
		logger.Error("expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("expired offers deactivated", "count", n)
	}
}
