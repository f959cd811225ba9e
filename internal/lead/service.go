package lead

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/events"
	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// MaxMessageLen caps the free-text field so the public form can't be used
// to dump arbitrary payloads into storage.
const MaxMessageLen = 2000

// SubmitInput holds one lead form submission.
type SubmitInput struct {
	Name     string
	Email    string
	FarmSize int
	Message  string
	OfferID  string
	SourceIP string
}

// Service validates and stores lead submissions.
type Service struct {
	repo Repository
	bus  events.Publisher
	now  func() time.Time
}

func NewService(repo Repository, bus events.Publisher) *Service {
	return &Service{repo: repo, bus: bus, now: time.Now}
}

// SetClock overrides the service's time source. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Submit validates, stores and announces one lead. Validation failures
// return a *ValidationError and persist nothing.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.Lead, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}

	rec := &domain.Lead{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     strings.ToLower(in.Email),
		FarmSize:  in.FarmSize,
		Message:   in.Message,
		OfferID:   in.OfferID,
		SourceIP:  in.SourceIP,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert lead: %w", err)
	}

	logger.Info("lead accepted", "lead_id", rec.ID, "email", rec.Email, "offer_id", rec.OfferID)
	s.bus.Publish(domain.LeadSubmitted{Lead: *rec})
	return rec, nil
}

func validate(in *SubmitInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)

	if in.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if in.Email == "" {
		return &ValidationError{Field: "email", Reason: "is required"}
	}
	if !emailRegex.MatchString(in.Email) {
		return &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	if in.FarmSize < 0 {
		return &ValidationError{Field: "farm_size", Reason: "must not be negative"}
	}
	if len(in.Message) > MaxMessageLen {
		return &ValidationError{Field: "message", Reason: fmt.Sprintf("exceeds %d characters", MaxMessageLen)}
	}
	return nil
}
