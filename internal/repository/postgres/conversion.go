package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/agrilink/offer-engine/internal/conversion"
	"github.com/agrilink/offer-engine/internal/domain"
)

// ConversionRepo implements conversion.Repository against PostgreSQL.
// Replay safety rests on the unique index over
// (partner_id, idempotency_key) on promo_conversion_events.
type ConversionRepo struct{ db *sql.DB }

// NewConversionRepo creates a Postgres-backed conversion repository.
func NewConversionRepo(db *sql.DB) *ConversionRepo { return &ConversionRepo{db: db} }

func (r *ConversionRepo) ActiveWebhookKey(ctx context.Context, partnerID string) (*domain.WebhookKey, error) {
	k := &domain.WebhookKey{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, partner_id, secret, active, created_at, rotated_at
		FROM promo_webhook_keys
		WHERE partner_id = $1 AND active = true
	`, partnerID).Scan(&k.ID, &k.PartnerID, &k.Secret, &k.Active, &k.CreatedAt, &k.RotatedAt)
	if err == sql.ErrNoRows {
		return nil, conversion.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("active webhook key: %w", err)
	}
	return k, nil
}

func (r *ConversionRepo) RotateWebhookKey(ctx context.Context, partnerID, newSecret string) (*domain.WebhookKey, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rotation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE promo_webhook_keys
		SET active = false, rotated_at = NOW()
		WHERE partner_id = $1 AND active = true
	`, partnerID); err != nil {
		return nil, fmt.Errorf("deactivate old key: %w", err)
	}

	k := &domain.WebhookKey{
		ID:        uuid.New().String(),
		PartnerID: partnerID,
		Secret:    newSecret,
		Active:    true,
	}
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO promo_webhook_keys (id, partner_id, secret, active, created_at)
		VALUES ($1, $2, $3, true, NOW())
		RETURNING created_at
	`, k.ID, k.PartnerID, k.Secret).Scan(&k.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert new key: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rotation: %w", err)
	}
	return k, nil
}

func (r *ConversionRepo) OfferOwner(ctx context.Context, offerID string) (string, error) {
	var partnerID string
	err := r.db.QueryRowContext(ctx,
		`SELECT partner_id FROM promo_offers WHERE id = $1`, offerID,
	).Scan(&partnerID)
	if err == sql.ErrNoRows {
		return "", conversion.ErrOfferNotFound
	}
	if err != nil {
		return "", fmt.Errorf("offer owner: %w", err)
	}
	return partnerID, nil
}

func (r *ConversionRepo) FindByIdempotencyKey(ctx context.Context, partnerID, key string) (*domain.ConversionEvent, error) {
	ev, err := r.selectByIdempotencyKey(ctx, partnerID, key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by idempotency key: %w", err)
	}
	return ev, nil
}

func (r *ConversionRepo) Insert(ctx context.Context, ev *domain.ConversionEvent) (bool, *domain.ConversionEvent, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO promo_conversion_events
			(id, partner_id, offer_id, farm_id, idempotency_key,
			 conversion_type, value, processed, valid, park_reason, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (partner_id, idempotency_key) DO NOTHING
	`, ev.ID, ev.PartnerID, ev.OfferID, ev.FarmID, ev.IdempotencyKey,
		ev.ConversionType, ev.Value, ev.Processed, ev.Valid, ev.ParkReason, ev.ReceivedAt)
	if err != nil {
		return false, nil, fmt.Errorf("insert conversion event: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return true, nil, nil
	}

	// Lost an insert race: surface the winner.
	existing, err := r.selectByIdempotencyKey(ctx, ev.PartnerID, ev.IdempotencyKey)
	if err != nil {
		return false, nil, fmt.Errorf("load winning conversion event: %w", err)
	}
	return false, existing, nil
}

func (r *ConversionRepo) selectByIdempotencyKey(ctx context.Context, partnerID, key string) (*domain.ConversionEvent, error) {
	ev := &domain.ConversionEvent{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, partner_id, offer_id, farm_id, idempotency_key,
		       conversion_type, value, processed, valid,
		       COALESCE(park_reason,''), received_at
		FROM promo_conversion_events
		WHERE partner_id = $1 AND idempotency_key = $2
	`, partnerID, key).Scan(
		&ev.ID, &ev.PartnerID, &ev.OfferID, &ev.FarmID, &ev.IdempotencyKey,
		&ev.ConversionType, &ev.Value, &ev.Processed, &ev.Valid,
		&ev.ParkReason, &ev.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	return ev, nil
}
