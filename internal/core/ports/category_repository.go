package ports

import (
	"context"

	"github.com/inkwell/blog/internal/core/domain"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	// Create inserts c and assigns its identifier. Name uniqueness is
	// enforced by storage and reported as domain.ErrDuplicateKey.
	Create(ctx context.Context, c *domain.Category) error
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	// List returns every category ordered by name.
	List(ctx context.Context) ([]domain.Category, error)
}
