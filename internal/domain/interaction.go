package domain

import "time"

// InteractionType enumerates the kinds of farmer behavior recorded against
// an offer placement.
type InteractionType string

const (
	InteractionImpression InteractionType = "impression"
	InteractionClick      InteractionType = "click"
	InteractionDismiss    InteractionType = "dismiss"
	InteractionConversion InteractionType = "conversion"
)

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionImpression, InteractionClick, InteractionDismiss, InteractionConversion:
		return true
	}
	return false
}

// Interaction is a single recorded farmer action on an offer placement.
// Interactions are append-only: once written they are never mutated.
// OfferID and FarmID are weak references; deleting a farm orphans its
// historical interactions rather than cascading.
type Interaction struct {
	ID         string          `json:"id" db:"id"`
	OfferID    string          `json:"offer_id" db:"offer_id"`
	VariantID  string          `json:"variant_id" db:"variant_id"`
	FarmID     string          `json:"farm_id" db:"farm_id"`
	Type       InteractionType `json:"type" db:"interaction_type"`
	SourcePage string          `json:"source_page" db:"source_page"`
	IPAddress  string          `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  string          `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
