package conversion_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilink/offer-engine/internal/conversion"
	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/events"
	"github.com/agrilink/offer-engine/internal/interaction"
	"github.com/agrilink/offer-engine/internal/kvstore"
)

// memConvRepo is an in-memory conversion repository enforcing the
// (partner, idempotency key) uniqueness the real storage layer provides.
type memConvRepo struct {
	mu     sync.Mutex
	keys   map[string]domain.WebhookKey       // partnerID -> active key
	offers map[string]string                  // offerID -> partnerID
	events map[string]*domain.ConversionEvent // partnerID|idemKey -> event
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{
		keys:   make(map[string]domain.WebhookKey),
		offers: make(map[string]string),
		events: make(map[string]*domain.ConversionEvent),
	}
}

func (m *memConvRepo) ActiveWebhookKey(_ context.Context, partnerID string) (*domain.WebhookKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[partnerID]
	if !ok {
		return nil, conversion.ErrKeyNotFound
	}
	cp := k
	return &cp, nil
}

func (m *memConvRepo) RotateWebhookKey(_ context.Context, partnerID, newSecret string) (*domain.WebhookKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := domain.WebhookKey{ID: "key-" + partnerID, PartnerID: partnerID, Secret: newSecret, Active: true}
	m.keys[partnerID] = k
	return &k, nil
}

func (m *memConvRepo) OfferOwner(_ context.Context, offerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.offers[offerID]
	if !ok {
		return "", conversion.ErrOfferNotFound
	}
	return owner, nil
}

func (m *memConvRepo) FindByIdempotencyKey(_ context.Context, partnerID, key string) (*domain.ConversionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := m.events[partnerID+"|"+key]; ok {
		cp := *ev
		return &cp, nil
	}
	return nil, nil
}

func (m *memConvRepo) Insert(_ context.Context, ev *domain.ConversionEvent) (bool, *domain.ConversionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := ev.PartnerID + "|" + ev.IdempotencyKey
	if existing, ok := m.events[k]; ok {
		cp := *existing
		return false, &cp, nil
	}
	cp := *ev
	m.events[k] = &cp
	return true, nil, nil
}

func (m *memConvRepo) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// fixedResolver returns a constant variant for fresh assignments.
type fixedResolver struct{ variant string }

func (f fixedResolver) ResolveVariant(context.Context, string, string) (string, error) {
	return f.variant, nil
}

type convFixture struct {
	repo     *memConvRepo
	intRepo  *interactionMemRepo
	recorder *interaction.Service
	svc      *conversion.Service
}

// interactionMemRepo is a minimal interaction.Repository for these tests.
type interactionMemRepo struct {
	mu   sync.Mutex
	rows []domain.Interaction
}

func (m *interactionMemRepo) Insert(_ context.Context, in *domain.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *in)
	return nil
}

func (m *interactionMemRepo) FirstForFarmOffer(_ context.Context, offerID, farmID string) (*domain.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].OfferID == offerID && m.rows[i].FarmID == farmID {
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, interaction.ErrNotFound
}

func (m *interactionMemRepo) FirstImpression(_ context.Context, offerID, farmID string) (*domain.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		r := m.rows[i]
		if r.OfferID == offerID && r.FarmID == farmID && r.Type == domain.InteractionImpression {
			cp := r
			return &cp, nil
		}
	}
	return nil, interaction.ErrNotFound
}

func (m *interactionMemRepo) ImpressionSince(context.Context, string, string, time.Time) (bool, error) {
	return false, nil
}

func (m *interactionMemRepo) IncrementImpressions(context.Context, string) error { return nil }
func (m *interactionMemRepo) IncrementClicks(context.Context, string) error      { return nil }

func (m *interactionMemRepo) conversions() []domain.Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Interaction
	for _, r := range m.rows {
		if r.Type == domain.InteractionConversion {
			out = append(out, r)
		}
	}
	return out
}

func newFixture(t *testing.T) *convFixture {
	t.Helper()
	repo := newMemConvRepo()
	repo.keys["p1"] = domain.WebhookKey{ID: "k1", PartnerID: "p1", Secret: "sekrit", Active: true}
	repo.offers["o1"] = "p1"
	repo.offers["o-other"] = "p2"

	intRepo := &interactionMemRepo{}
	recorder := interaction.NewService(intRepo, kvstore.NewMemoryStore(), events.Nop{}, 0)
	svc := conversion.NewService(repo, recorder, fixedResolver{variant: "v-fresh"}, events.Nop{})
	return &convFixture{repo: repo, intRepo: intRepo, recorder: recorder, svc: svc}
}

func validPayload() conversion.Payload {
	return conversion.Payload{
		OfferID:           "o1",
		ExternalFarmerRef: "farm-9",
		ConversionType:    "purchase",
		Value:             49.90,
		IdempotencyKey:    "idem-1",
	}
}

func TestIngestHappyPath(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Ingest(context.Background(), "p1", "sekrit", validPayload())
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.True(t, res.Event.Processed)
	assert.True(t, res.Event.Valid)
	require.NotNil(t, res.Interaction)
	assert.Equal(t, domain.InteractionConversion, res.Interaction.Type)
	// No prior exposure: variant comes from a fresh assignment.
	assert.Equal(t, "v-fresh", res.Interaction.VariantID)
}

func TestIngestIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Ingest(ctx, "p1", "sekrit", validPayload())
	require.NoError(t, err)

	second, err := f.svc.Ingest(ctx, "p1", "sekrit", validPayload())
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Event.ID, second.Event.ID)
	// Exactly one stored event and one attribution interaction.
	assert.Equal(t, 1, f.repo.eventCount())
	assert.Len(t, f.intRepo.conversions(), 1)
}

func TestIngestPinsFirstExposureVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The farm saw variant v-b at first exposure.
	_, err := f.recorder.Record(ctx, interaction.RecordInput{
		OfferID: "o1", VariantID: "v-b", FarmID: "farm-9", Type: domain.InteractionImpression,
	})
	require.NoError(t, err)

	res, err := f.svc.Ingest(ctx, "p1", "sekrit", validPayload())
	require.NoError(t, err)
	require.NotNil(t, res.Interaction)
	assert.Equal(t, "v-b", res.Interaction.VariantID)
}

func TestIngestUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, "p1", "wrong", validPayload())
	assert.ErrorIs(t, err, conversion.ErrUnauthorized)

	_, err = f.svc.Ingest(ctx, "p1", "", validPayload())
	assert.ErrorIs(t, err, conversion.ErrUnauthorized)

	// Unknown partner has no active key.
	_, err = f.svc.Ingest(ctx, "p-ghost", "sekrit", validPayload())
	assert.ErrorIs(t, err, conversion.ErrUnauthorized)

	assert.Equal(t, 0, f.repo.eventCount())
}

func TestIngestMalformedPayloadNotPersisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []conversion.Payload{
		{ExternalFarmerRef: "farm-9", IdempotencyKey: "k", ConversionType: "purchase"},
		{OfferID: "o1", IdempotencyKey: "k", ConversionType: "purchase"},
		{OfferID: "o1", ExternalFarmerRef: "farm-9", ConversionType: "purchase"},
		{OfferID: "o1", ExternalFarmerRef: "farm-9", IdempotencyKey: "k", Value: -1},
	}
	for _, p := range cases {
		_, err := f.svc.Ingest(ctx, "p1", "sekrit", p)
		var verr *conversion.ValidationError
		assert.ErrorAs(t, err, &verr)
	}
	assert.Equal(t, 0, f.repo.eventCount())
}

func TestIngestUnknownOfferParked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := validPayload()
	p.OfferID = "o-ghost"
	res, err := f.svc.Ingest(ctx, "p1", "sekrit", p)
	assert.ErrorIs(t, err, conversion.ErrOfferNotFound)

	// Parked, not dropped: stored with processed=false.
	require.NotNil(t, res)
	assert.False(t, res.Event.Processed)
	assert.NotEmpty(t, res.Event.ParkReason)
	assert.Equal(t, 1, f.repo.eventCount())
	assert.Empty(t, f.intRepo.conversions())
}

func TestIngestForeignOfferParked(t *testing.T) {
	f := newFixture(t)

	p := validPayload()
	p.OfferID = "o-other" // owned by p2, delivered by p1
	_, err := f.svc.Ingest(context.Background(), "p1", "sekrit", p)
	assert.ErrorIs(t, err, conversion.ErrOfferNotFound)
	assert.Equal(t, 1, f.repo.eventCount())
}

func TestRotateKeyReplacesActiveKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rotated, err := f.svc.RotateKey(ctx, "p1")
	require.NoError(t, err)
	require.NotEmpty(t, rotated.Secret)

	// The old secret no longer authenticates; the new one does.
	_, err = f.svc.Ingest(ctx, "p1", "sekrit", validPayload())
	assert.ErrorIs(t, err, conversion.ErrUnauthorized)

	_, err = f.svc.Ingest(ctx, "p1", rotated.Secret, validPayload())
	assert.NoError(t, err)
}
