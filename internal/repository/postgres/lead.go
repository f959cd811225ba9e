package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agrilink/offer-engine/internal/domain"
)

// LeadRepo implements lead.Repository against PostgreSQL.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead repository.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

func (r *LeadRepo) Insert(ctx context.Context, l *domain.Lead) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO promo_leads
			(id, name, email, farm_size, message, offer_id, source_ip, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, $8)
	`, l.ID, l.Name, l.Email, l.FarmSize, l.Message, l.OfferID, l.SourceIP, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}
