// +build ignore

package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Seeds a demo partner with two targeted offers (one A/B tested) and an
// active webhook key, for local development against an empty database.
//
// Usage: DATABASE_URL=postgres://... go run scripts/seed_demo_offers.go

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	partnerID := uuid.New().String()
	if _, err := db.ExecContext(ctx, `
		INSERT INTO promo_partners (id, company_name, contact_email, verified, active, contract_start, monthly_fee, created_at, updated_at)
		VALUES ($1, 'Prairie Feed Co.', 'partners@prairiefeed.example.com', true, true, NOW(), 500.00, NOW(), NOW())
	`, partnerID); err != nil {
		log.Fatalf("insert partner: %v", err)
	}

	feedOfferID := uuid.New().String()
	if _, err := db.ExecContext(ctx, `
		INSERT INTO promo_offers
			(id, partner_id, title, description, cta_text, cta_url, promo_code,
			 rule_kind, rule_min_flock, start_at, end_at, active, featured, priority,
			 impression_count, click_count, created_at, updated_at)
		VALUES ($1, $2, 'Layer Feed Discount', 'Bulk pricing on premium layer feed.',
			'Claim offer', 'https://prairiefeed.example.com/promo', 'LAYER20',
			'flock_size', 100, NOW(), $3, true, true, 80, 0, 0, NOW(), NOW())
	`, feedOfferID, partnerID, time.Now().AddDate(0, 3, 0)); err != nil {
		log.Fatalf("insert offer: %v", err)
	}

	for _, v := range []struct {
		title  string
		weight int
	}{
		{"Save 20% on layer feed", 70},
		{"Free delivery on bulk layer feed", 30},
	} {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO promo_offer_variants (id, offer_id, weight, title)
			VALUES ($1, $2, $3, $4)
		`, uuid.New().String(), feedOfferID, v.weight, v.title); err != nil {
			log.Fatalf("insert variant: %v", err)
		}
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO promo_offers
			(id, partner_id, title, cta_text, cta_url, rule_kind, rule_regions,
			 start_at, active, featured, priority, impression_count, click_count,
			 created_at, updated_at)
		VALUES ($1, $2, 'Midwest Coop Buying Group', 'Join now',
			'https://prairiefeed.example.com/coop', 'region', '{midwest,plains}',
			NOW(), true, false, 50, 0, 0, NOW(), NOW())
	`, uuid.New().String(), partnerID); err != nil {
		log.Fatalf("insert regional offer: %v", err)
	}

	keySecret := uuid.New().String()
	if _, err := db.ExecContext(ctx, `
		INSERT INTO promo_webhook_keys (id, partner_id, secret, active, created_at)
		VALUES ($1, $2, $3, true, NOW())
	`, uuid.New().String(), partnerID, keySecret); err != nil {
		log.Fatalf("insert webhook key: %v", err)
	}

	log.Printf("seeded partner %s", partnerID)
	log.Printf("webhook key: %s", keySecret)
}
