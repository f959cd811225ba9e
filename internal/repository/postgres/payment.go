package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/revenue"
)

// PaymentRepo implements revenue.Repository against PostgreSQL.
type PaymentRepo struct{ db *sql.DB }

// NewPaymentRepo creates a Postgres-backed payment repository.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

func (r *PaymentRepo) ClicksByOffer(ctx context.Context, partnerID string, p domain.Period) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.offer_id, COUNT(*)
		FROM promo_interactions i
		JOIN promo_offers o ON o.id = i.offer_id
		WHERE o.partner_id = $1
		  AND i.interaction_type = 'click'
		  AND i.created_at >= $2 AND i.created_at < $3
		GROUP BY i.offer_id
	`, partnerID, p.Start, p.End)
	if err != nil {
		return nil, fmt.Errorf("clicks by offer: %w", err)
	}
	defer rows.Close()
	return scanCounts(rows)
}

func (r *PaymentRepo) ConversionsByOffer(ctx context.Context, partnerID string, p domain.Period) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT offer_id, COUNT(*)
		FROM promo_conversion_events
		WHERE partner_id = $1
		  AND processed = true AND valid = true
		  AND received_at >= $2 AND received_at < $3
		GROUP BY offer_id
	`, partnerID, p.Start, p.End)
	if err != nil {
		return nil, fmt.Errorf("conversions by offer: %w", err)
	}
	defer rows.Close()
	return scanCounts(rows)
}

func (r *PaymentRepo) UpsertPendingPayment(ctx context.Context, payment *domain.PartnerPayment) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO promo_partner_payments
			(id, partner_id, period_start, period_end, total_clicks,
			 total_conversions, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', NOW(), NOW())
		ON CONFLICT (partner_id, period_start) DO UPDATE
		SET total_clicks = EXCLUDED.total_clicks,
		    total_conversions = EXCLUDED.total_conversions,
		    amount = EXCLUDED.amount,
		    updated_at = NOW()
		WHERE promo_partner_payments.status = 'pending'
	`, payment.ID, payment.PartnerID, payment.PeriodStart, payment.PeriodEnd,
		payment.TotalClicks, payment.TotalConversions, payment.Amount)
	if err != nil {
		return false, fmt.Errorf("upsert payment: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *PaymentRepo) GetPayment(ctx context.Context, partnerID string, p domain.Period) (*domain.PartnerPayment, error) {
	out := &domain.PartnerPayment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, partner_id, period_start, period_end, total_clicks,
		       total_conversions, amount, status, paid_at, created_at, updated_at
		FROM promo_partner_payments
		WHERE partner_id = $1 AND period_start = $2
	`, partnerID, p.Start).Scan(
		&out.ID, &out.PartnerID, &out.PeriodStart, &out.PeriodEnd, &out.TotalClicks,
		&out.TotalConversions, &out.Amount, &out.Status, &out.PaidAt,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, revenue.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return out, nil
}

// ActivePartnerIDs returns the IDs of active partners, for the periodic
// revenue job.
func (r *PaymentRepo) ActivePartnerIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM promo_partners WHERE active = true ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("active partners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan partner id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanCounts(rows *sql.Rows) (map[string]int64, error) {
	out := make(map[string]int64)
	for rows.Next() {
		var offerID string
		var n int64
		if err := rows.Scan(&offerID, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[offerID] = n
	}
	return out, rows.Err()
}
