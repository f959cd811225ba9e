package domain

import (
	"fmt"
	"time"
)

// ConversionEvent is one partner-reported conversion, ingested via webhook.
// (PartnerID, IdempotencyKey) is unique: a retried delivery must resolve to
// the existing event rather than creating a duplicate.
type ConversionEvent struct {
	ID             string    `json:"id" db:"id"`
	PartnerID      string    `json:"partner_id" db:"partner_id"`
	OfferID        string    `json:"offer_id" db:"offer_id"`
	FarmID         string    `json:"farm_id" db:"farm_id"`
	IdempotencyKey string    `json:"idempotency_key" db:"idempotency_key"`
	ConversionType string    `json:"conversion_type" db:"conversion_type"`
	Value          float64   `json:"value" db:"value"`
	Processed      bool      `json:"processed" db:"processed"`
	Valid          bool      `json:"valid" db:"valid"`
	ParkReason     string    `json:"park_reason,omitempty" db:"park_reason"`
	ReceivedAt     time.Time `json:"received_at" db:"received_at"`
}

// PaymentStatus enumerates the lifecycle states of a partner payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Period is a half-open earnings interval [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthPeriod returns the calendar-month period containing the given month.
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// PreviousMonth returns the calendar-month period immediately before the
// one containing t. It steps back from the first of t's month, so month-end
// dates like July 31 never normalize into the current month.
func PreviousMonth(t time.Time) Period {
	t = t.UTC()
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	return MonthPeriod(prev.Year(), prev.Month())
}

// Label renders the period as "YYYY-MM" for reports and payment keys.
func (p Period) Label() string {
	return p.Start.Format("2006-01")
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// PartnerPayment is the computed earnings row for one (partner, period).
// Created and updated only by the revenue calculator while pending; the
// pending -> paid transition is one-directional and admin-triggered.
type PartnerPayment struct {
	ID               string        `json:"id" db:"id"`
	PartnerID        string        `json:"partner_id" db:"partner_id"`
	PeriodStart      time.Time     `json:"period_start" db:"period_start"`
	PeriodEnd        time.Time     `json:"period_end" db:"period_end"`
	TotalClicks      int64         `json:"total_clicks" db:"total_clicks"`
	TotalConversions int64         `json:"total_conversions" db:"total_conversions"`
	Amount           float64       `json:"amount" db:"amount"`
	Status           PaymentStatus `json:"status" db:"status"`
	PaidAt           *time.Time    `json:"paid_at" db:"paid_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// Period returns the payment's interval as a Period value.
func (p *PartnerPayment) Period() Period {
	return Period{Start: p.PeriodStart, End: p.PeriodEnd}
}

// WebhookKey is a per-partner secret authenticating conversion callbacks.
// At most one key per partner is active at a time; rotation deactivates the
// old key and mints a new one atomically.
type WebhookKey struct {
	ID        string     `json:"id" db:"id"`
	PartnerID string     `json:"partner_id" db:"partner_id"`
	Secret    string     `json:"-" db:"secret"`
	Active    bool       `json:"active" db:"active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RotatedAt *time.Time `json:"rotated_at" db:"rotated_at"`
}

// Lead is a public contact-form submission feeding the partner pipeline.
type Lead struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	FarmSize  int       `json:"farm_size" db:"farm_size"`
	Message   string    `json:"message" db:"message"`
	OfferID   string    `json:"offer_id,omitempty" db:"offer_id"`
	SourceIP  string    `json:"-" db:"source_ip"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate checks required lead fields.
func (l *Lead) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("name is required")
	}
	if l.Email == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}
