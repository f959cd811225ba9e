package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/interaction"
)

// InteractionRepo implements interaction.Repository against PostgreSQL.
type InteractionRepo struct{ db *sql.DB }

// NewInteractionRepo creates a Postgres-backed interaction repository.
func NewInteractionRepo(db *sql.DB) *InteractionRepo { return &InteractionRepo{db: db} }

func (r *InteractionRepo) Insert(ctx context.Context, in *domain.Interaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO promo_interactions
			(id, offer_id, variant_id, farm_id, interaction_type,
			 source_page, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, in.ID, in.OfferID, in.VariantID, in.FarmID, in.Type,
		in.SourcePage, in.IPAddress, in.UserAgent, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (r *InteractionRepo) FirstForFarmOffer(ctx context.Context, offerID, farmID string) (*domain.Interaction, error) {
	return r.earliest(ctx, `
		SELECT id, offer_id, variant_id, farm_id, interaction_type,
		       COALESCE(source_page,''), COALESCE(ip_address,''),
		       COALESCE(user_agent,''), created_at
		FROM promo_interactions
		WHERE offer_id = $1 AND farm_id = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, offerID, farmID)
}

func (r *InteractionRepo) FirstImpression(ctx context.Context, offerID, farmID string) (*domain.Interaction, error) {
	return r.earliest(ctx, `
		SELECT id, offer_id, variant_id, farm_id, interaction_type,
		       COALESCE(source_page,''), COALESCE(ip_address,''),
		       COALESCE(user_agent,''), created_at
		FROM promo_interactions
		WHERE offer_id = $1 AND farm_id = $2 AND interaction_type = 'impression'
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, offerID, farmID)
}

func (r *InteractionRepo) earliest(ctx context.Context, query string, args ...any) (*domain.Interaction, error) {
	in := &domain.Interaction{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&in.ID, &in.OfferID, &in.VariantID, &in.FarmID, &in.Type,
		&in.SourcePage, &in.IPAddress, &in.UserAgent, &in.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, interaction.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("first interaction: %w", err)
	}
	return in, nil
}

func (r *InteractionRepo) ImpressionSince(ctx context.Context, offerID, farmID string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM promo_interactions
			WHERE offer_id = $1 AND farm_id = $2
			  AND interaction_type = 'impression' AND created_at >= $3
		)
	`, offerID, farmID, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("impression since: %w", err)
	}
	return exists, nil
}

func (r *InteractionRepo) IncrementImpressions(ctx context.Context, offerID string) error {
	return r.bump(ctx, "impression_count", offerID)
}

func (r *InteractionRepo) IncrementClicks(ctx context.Context, offerID string) error {
	return r.bump(ctx, "click_count", offerID)
}

// bump is a single-statement atomic increment. Concurrent callers never
// lose updates because the arithmetic happens inside the UPDATE.
func (r *InteractionRepo) bump(ctx context.Context, column, offerID string) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE promo_offers SET %s = %s + 1, updated_at = NOW() WHERE id = $1`, column, column),
		offerID)
	if err != nil {
		return fmt.Errorf("increment %s: %w", column, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("increment %s: offer %s not found", column, offerID)
	}
	return nil
}
