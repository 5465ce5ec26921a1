package repositories

import (
	"context"
	"errors"
	"fmt"

	"insightpro/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

func orderedComments(db *gorm.DB) *gorm.DB {
	return db.Order("comments.id ASC")
}

// GetAll retrieves all products, each with its comments. Comments for every
// product are loaded with a single query.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Comments", orderedComments).
		Order("products.id ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product and its comments.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Comments", orderedComments).
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Create inserts the product row, then each of its comments tied to the new
// product ID, all inside one transaction.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	comments := product.Comments
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Comments").Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		for i := range comments {
			comments[i].ID = 0
			comments[i].ProductID = product.ID
			if err := tx.Create(&comments[i]).Error; err != nil {
				return fmt.Errorf("failed to create comment %d of product %d: %w", i, product.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		product.ID = 0
		return err
	}
	product.Comments = comments
	return nil
}

// Update applies the supplied fields of update to the product with the given ID.
func (r *GORMProductRepository) Update(ctx context.Context, id uint, update models.ProductUpdate) error {
	sets := update.Assignments()
	if len(sets) == 0 {
		return errors.New("no columns to update")
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(sets)
	if res.Error != nil {
		return fmt.Errorf("failed to update product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", id, ErrRecordNotFound)
	}
	return nil
}

// Delete deletes a product by its ID. The foreign key cascades to its comments.
func (r *GORMProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", id, ErrRecordNotFound)
	}
	return nil
}
