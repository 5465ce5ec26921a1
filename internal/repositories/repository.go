package repositories

import (
	"context"
	"errors"

	"insightpro/internal/models"
)

var (
	// ErrRecordNotFound is returned when no row matches the lookup key.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")
)

// AccountRepository defines the interface for account data access.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// ProductRepository defines the interface for product data access.
// Products are always returned with their comments, ordered by comment id.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	// Create inserts the product and then its comments, in slice order.
	Create(ctx context.Context, product *models.Product) error
	// Update applies only the supplied fields; ErrRecordNotFound when no row matched.
	Update(ctx context.Context, id uint, update models.ProductUpdate) error
	// Delete removes the product and its comments; ErrRecordNotFound when no row matched.
	Delete(ctx context.Context, id uint) error
}
