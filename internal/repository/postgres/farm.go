package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agrilink/offer-engine/internal/domain"
)

// ErrFarmNotFound is returned when no farm profile exists for the ID.
var ErrFarmNotFound = errors.New("farm profile not found")

// FarmRepo reads farm profiles. Profiles are owned by the wider platform;
// this engine only ever reads the targeting-relevant columns.
type FarmRepo struct{ db *sql.DB }

// NewFarmRepo creates a Postgres-backed farm profile reader.
func NewFarmRepo(db *sql.DB) *FarmRepo { return &FarmRepo{db: db} }

func (r *FarmRepo) Profile(ctx context.Context, farmID string) (*domain.FarmProfile, error) {
	f := &domain.FarmProfile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(region,''), COALESCE(flock_size,0),
		       marketplace_active, government_program
		FROM farm_profiles
		WHERE id = $1
	`, farmID).Scan(&f.ID, &f.Region, &f.FlockSize, &f.MarketplaceActive, &f.GovernmentProgram)
	if err == sql.ErrNoRows {
		return nil, ErrFarmNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("farm profile: %w", err)
	}
	return f, nil
}
