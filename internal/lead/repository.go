package lead

import (
	"context"

	"github.com/agrilink/offer-engine/internal/domain"
)

// Repository persists accepted leads.
type Repository interface {
	Insert(ctx context.Context, l *domain.Lead) error
}
