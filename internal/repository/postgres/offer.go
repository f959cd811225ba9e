// Package postgres implements the service repository contracts against
// PostgreSQL using database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/agrilink/offer-engine/internal/domain"
)

// OfferRepo implements targeting.OfferSource against PostgreSQL.
type OfferRepo struct{ db *sql.DB }

// NewOfferRepo creates a Postgres-backed offer source.
func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{db: db} }

func (r *OfferRepo) ListActive(ctx context.Context) ([]domain.Offer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, partner_id, title, COALESCE(description,''), COALESCE(cta_text,''),
		       COALESCE(cta_url,''), COALESCE(image_ref,''), COALESCE(promo_code,''),
		       rule_kind, rule_regions, rule_min_flock, rule_max_flock,
		       start_at, end_at, featured, priority,
		       impression_count, click_count, created_at, updated_at
		FROM promo_offers
		WHERE active = true
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active offers: %w", err)
	}
	defer rows.Close()

	var out []domain.Offer
	for rows.Next() {
		var o domain.Offer
		var regions pq.StringArray
		var minFlock, maxFlock sql.NullInt64
		var endAt sql.NullTime
		if err := rows.Scan(
			&o.ID, &o.PartnerID, &o.Title, &o.Description, &o.CTAText,
			&o.CTAURL, &o.ImageRef, &o.PromoCode,
			&o.Rule.Kind, &regions, &minFlock, &maxFlock,
			&o.StartAt, &endAt, &o.Featured, &o.Priority,
			&o.ImpressionCount, &o.ClickCount, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		o.Active = true
		o.Rule.Regions = regions
		if minFlock.Valid {
			v := int(minFlock.Int64)
			o.Rule.MinFlockSize = &v
		}
		if maxFlock.Valid {
			v := int(maxFlock.Int64)
			o.Rule.MaxFlockSize = &v
		}
		if endAt.Valid {
			t := endAt.Time
			o.EndAt = &t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OfferRepo) VariantsFor(ctx context.Context, offerIDs []string) (map[string][]domain.OfferVariant, error) {
	if len(offerIDs) == 0 {
		return map[string][]domain.OfferVariant{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, offer_id, weight, COALESCE(title,''), COALESCE(cta_text,''),
		       COALESCE(promo_code,'')
		FROM promo_offer_variants
		WHERE offer_id = ANY($1)
		ORDER BY offer_id, id
	`, pq.Array(offerIDs))
	if err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.OfferVariant)
	for rows.Next() {
		var v domain.OfferVariant
		if err := rows.Scan(&v.ID, &v.OfferID, &v.Weight, &v.Title, &v.CTAText, &v.PromoCode); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		out[v.OfferID] = append(out[v.OfferID], v)
	}
	return out, rows.Err()
}

// DeactivateExpired flips active=false on offers whose end date has passed.
// Returns the number of offers deactivated.
func (r *OfferRepo) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE promo_offers
		SET active = false, updated_at = NOW()
		WHERE active = true AND end_at IS NOT NULL AND end_at <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired offers: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
