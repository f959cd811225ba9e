package domain

import (
	"fmt"
	"time"
)

// Partner represents an advertising partner whose offers are shown to farms.
type Partner struct {
	ID            string     `json:"id" db:"id"`
	CompanyName   string     `json:"company_name" db:"company_name"`
	ContactEmail  string     `json:"contact_email" db:"contact_email"`
	Verified      bool       `json:"verified" db:"verified"`
	Active        bool       `json:"active" db:"active"`
	ContractStart time.Time  `json:"contract_start" db:"contract_start"`
	ContractEnd   *time.Time `json:"contract_end" db:"contract_end"`
	MonthlyFee    float64    `json:"monthly_fee" db:"monthly_fee"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// RuleKind enumerates the targeting rule kinds an offer can carry.
type RuleKind string

const (
	RuleAll               RuleKind = "all"
	RuleRegion            RuleKind = "region"
	RuleFlockSize         RuleKind = "flock_size"
	RuleMarketplaceActive RuleKind = "marketplace_active"
	RuleGovernmentProgram RuleKind = "government_program"
)

// TargetingRule is a tagged variant: Kind selects which parameters apply.
// Region rules read Regions; flock-size rules read MinFlockSize/MaxFlockSize
// (a nil bound is unbounded on that side). The attribute-flag kinds carry no
// parameters.
type TargetingRule struct {
	Kind         RuleKind `json:"kind" db:"rule_kind"`
	Regions      []string `json:"regions,omitempty" db:"rule_regions"`
	MinFlockSize *int     `json:"min_flock_size,omitempty" db:"rule_min_flock"`
	MaxFlockSize *int     `json:"max_flock_size,omitempty" db:"rule_max_flock"`
}

// Offer is a promotional placement owned by exactly one partner.
type Offer struct {
	ID          string        `json:"id" db:"id"`
	PartnerID   string        `json:"partner_id" db:"partner_id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	CTAText     string        `json:"cta_text" db:"cta_text"`
	CTAURL      string        `json:"cta_url" db:"cta_url"`
	ImageRef    string        `json:"image_ref" db:"image_ref"`
	PromoCode   string        `json:"promo_code" db:"promo_code"`
	Rule        TargetingRule `json:"targeting_rule"`
	StartAt     time.Time     `json:"start_at" db:"start_at"`
	EndAt       *time.Time    `json:"end_at" db:"end_at"`
	Active      bool          `json:"active" db:"active"`
	Featured    bool          `json:"featured" db:"featured"`
	Priority    int           `json:"priority" db:"priority"`

	// Aggregate counters, maintained by atomic storage increments.
	// Monotonically non-decreasing; never written read-modify-write.
	ImpressionCount int64 `json:"impression_count" db:"impression_count"`
	ClickCount      int64 `json:"click_count" db:"click_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsLiveAt reports whether t falls inside the offer's half-open scheduling
// window [StartAt, EndAt). A nil EndAt means the offer runs until deactivated.
func (o *Offer) IsLiveAt(t time.Time) bool {
	if !o.Active {
		return false
	}
	if t.Before(o.StartAt) {
		return false
	}
	if o.EndAt != nil && !t.Before(*o.EndAt) {
		return false
	}
	return true
}

// Validate checks the offer's internal invariants.
func (o *Offer) Validate() error {
	if o.PartnerID == "" {
		return fmt.Errorf("offer %s: partner_id is required", o.ID)
	}
	if o.Priority < 1 || o.Priority > 100 {
		return fmt.Errorf("offer %s: priority %d out of range [1,100]", o.ID, o.Priority)
	}
	if o.EndAt != nil && o.EndAt.Before(o.StartAt) {
		return fmt.Errorf("offer %s: end_at precedes start_at", o.ID)
	}
	return nil
}

// OfferVariant is one arm of an offer's A/B test. Weight is a relative
// positive integer; variant fields override the parent offer's content
// when non-empty.
type OfferVariant struct {
	ID        string `json:"id" db:"id"`
	OfferID   string `json:"offer_id" db:"offer_id"`
	Weight    int    `json:"weight" db:"weight"`
	Title     string `json:"title" db:"title"`
	CTAText   string `json:"cta_text" db:"cta_text"`
	PromoCode string `json:"promo_code" db:"promo_code"`
}

// SelfVariant returns the implicit single variant of an offer that has no
// explicit variants: the offer's own content under the offer's ID.
func (o *Offer) SelfVariant() OfferVariant {
	return OfferVariant{
		ID:        o.ID,
		OfferID:   o.ID,
		Weight:    1,
		Title:     o.Title,
		CTAText:   o.CTAText,
		PromoCode: o.PromoCode,
	}
}
