package domain

// FarmProfile is the targeting-relevant view of a farm. It is owned by the
// wider platform and read-only to this engine.
type FarmProfile struct {
	ID                string `json:"id" db:"id"`
	Region            string `json:"region" db:"region"`
	FlockSize         int    `json:"flock_size" db:"flock_size"`
	MarketplaceActive bool   `json:"marketplace_active" db:"marketplace_active"`
	GovernmentProgram bool   `json:"government_program" db:"government_program"`
}
