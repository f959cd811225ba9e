package conversion

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/events"
	"github.com/agrilink/offer-engine/internal/interaction"
	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

// Payload is the body of a partner conversion webhook.
type Payload struct {
	OfferID           string  `json:"offer_id"`
	ExternalFarmerRef string  `json:"external_farmer_ref"`
	ConversionType    string  `json:"conversion_type"`
	Value             float64 `json:"value"`
	IdempotencyKey    string  `json:"idempotency_key"`
}

// Result is the outcome of one ingest call. Duplicate is true when the
// delivery replayed an already-ingested (partner, idempotency key) pair.
type Result struct {
	Event       *domain.ConversionEvent
	Interaction *domain.Interaction
	Duplicate   bool
}

// Recorder is the slice of the interaction service the processor needs:
// attribution interactions and first-exposure variant pins.
type Recorder interface {
	Record(ctx context.Context, in interaction.RecordInput) (*domain.Interaction, error)
	PinnedVariant(ctx context.Context, offerID, farmID string) (string, error)
}

// VariantResolver derives a variant assignment when no prior exposure
// exists for (offer, farm). Implemented over the targeting assigner.
type VariantResolver interface {
	ResolveVariant(ctx context.Context, offerID, farmID string) (string, error)
}

// Service implements webhook conversion ingestion.
type Service struct {
	repo     Repository
	recorder Recorder
	variants VariantResolver
	bus      events.Publisher
	now      func() time.Time
}

// NewService creates a conversion service.
func NewService(repo Repository, recorder Recorder, variants VariantResolver, bus events.Publisher) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		variants: variants,
		bus:      bus,
		now:      time.Now,
	}
}

// SetClock overrides the service's time source. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Ingest authenticates and processes one conversion delivery.
//
// Order matters: authentication, then payload shape, then replay check,
// then offer resolution. A replayed delivery returns the stored event with
// Duplicate=true and performs no writes. A conversion for an offer this
// partner doesn't own (or that doesn't exist) is parked for manual
// reconciliation and surfaced as ErrOfferNotFound.
func (s *Service) Ingest(ctx context.Context, partnerID, providedKey string, p Payload) (*Result, error) {
	if err := s.authenticate(ctx, partnerID, providedKey); err != nil {
		return nil, err
	}
	if err := validatePayload(p); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByIdempotencyKey(ctx, partnerID, p.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if existing != nil {
		return &Result{Event: existing, Duplicate: true}, nil
	}

	ev := &domain.ConversionEvent{
		ID:             uuid.New().String(),
		PartnerID:      partnerID,
		OfferID:        p.OfferID,
		FarmID:         p.ExternalFarmerRef,
		IdempotencyKey: p.IdempotencyKey,
		ConversionType: p.ConversionType,
		Value:          p.Value,
		Valid:          true,
		ReceivedAt:     s.now().UTC(),
	}

	owner, err := s.repo.OfferOwner(ctx, p.OfferID)
	if err == ErrOfferNotFound || (err == nil && owner != partnerID) {
		return s.park(ctx, ev, "offer unknown or not owned by partner")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve offer owner: %w", err)
	}

	ev.Processed = true
	created, stored, err := s.repo.Insert(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("insert conversion event: %w", err)
	}
	if !created {
		// Lost the race with a concurrent delivery of the same key; the
		// storage constraint guarantees a single effect.
		return &Result{Event: stored, Duplicate: true}, nil
	}

	rec, err := s.attribute(ctx, ev)
	if err != nil {
		// The event is committed; attribution failure must not make the
		// partner retry (the retry would be a duplicate anyway).
		logger.Error("conversion attribution failed",
			"event_id", ev.ID, "offer_id", ev.OfferID, "error", err)
	}

	res := &Result{Event: ev, Interaction: rec}
	if rec != nil {
		s.bus.Publish(domain.ConversionAccepted{Event: *ev, Interaction: *rec})
	}
	return res, nil
}

// RotateKey mints a new webhook secret for a partner, deactivating the old
// one. Admin-triggered.
func (s *Service) RotateKey(ctx context.Context, partnerID string) (*domain.WebhookKey, error) {
	secret := uuid.New().String() + uuid.New().String()
	key, err := s.repo.RotateWebhookKey(ctx, partnerID, secret)
	if err != nil {
		return nil, fmt.Errorf("rotate webhook key: %w", err)
	}
	logger.Info("webhook key rotated", "partner_id", partnerID, "key_id", key.ID)
	return key, nil
}

func (s *Service) authenticate(ctx context.Context, partnerID, providedKey string) error {
	if providedKey == "" {
		return ErrUnauthorized
	}
	key, err := s.repo.ActiveWebhookKey(ctx, partnerID)
	if err == ErrKeyNotFound {
		return ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("load webhook key: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(key.Secret), []byte(providedKey)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

func validatePayload(p Payload) error {
	if p.OfferID == "" {
		return &ValidationError{Field: "offer_id", Reason: "required"}
	}
	if p.ExternalFarmerRef == "" {
		return &ValidationError{Field: "external_farmer_ref", Reason: "required"}
	}
	if p.IdempotencyKey == "" {
		return &ValidationError{Field: "idempotency_key", Reason: "required"}
	}
	if p.Value < 0 {
		return &ValidationError{Field: "value", Reason: "must not be negative"}
	}
	return nil
}

// park stores an unattributable event with processed=false so it shows up
// in reconciliation instead of vanishing, then reports NotFound upstream.
func (s *Service) park(ctx context.Context, ev *domain.ConversionEvent, reason string) (*Result, error) {
	ev.Processed = false
	ev.ParkReason = reason
	created, stored, err := s.repo.Insert(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("park conversion event: %w", err)
	}
	if !created {
		return &Result{Event: stored, Duplicate: true}, nil
	}
	logger.Warn("conversion parked for reconciliation",
		"event_id", ev.ID, "offer_id", ev.OfferID, "partner_id", ev.PartnerID, "reason", reason)
	s.bus.Publish(domain.ConversionParked{Event: *ev, Reason: reason})
	return &Result{Event: ev}, ErrOfferNotFound
}

// attribute creates the conversion-type interaction, linked to the variant
// recorded at first exposure, or to a freshly derived assignment when this
// farm has no prior interaction with the offer.
func (s *Service) attribute(ctx context.Context, ev *domain.ConversionEvent) (*domain.Interaction, error) {
	variantID, err := s.recorder.PinnedVariant(ctx, ev.OfferID, ev.FarmID)
	if err == interaction.ErrNotFound {
		variantID, err = s.variants.ResolveVariant(ctx, ev.OfferID, ev.FarmID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve attribution variant: %w", err)
	}

	return s.recorder.Record(ctx, interaction.RecordInput{
		OfferID:    ev.OfferID,
		VariantID:  variantID,
		FarmID:     ev.FarmID,
		Type:       domain.InteractionConversion,
		SourcePage: "webhook",
	})
}
