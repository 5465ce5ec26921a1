package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"insightpro/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// IDs for products and comments come from separate counters, like
// autoincrement columns.
type MemoryProductRepository struct {
	products      map[uint]models.Product
	nextProductID uint
	nextCommentID uint
	mu            sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[uint]models.Product),
	}
}

// copyProduct detaches the comment slice so callers cannot mutate stored state.
func copyProduct(p models.Product) models.Product {
	comments := make([]models.Comment, len(p.Comments))
	copy(comments, p.Comments)
	p.Comments = comments
	return p
}

// GetAll returns all products ordered by ID.
func (r *MemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, copyProduct(p))
	}
	sort.Slice(productList, func(i, j int) bool { return productList[i].ID < productList[j].ID })
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %d: %w", id, ErrRecordNotFound)
	}
	product = copyProduct(product)
	return &product, nil
}

// Create adds a new product and assigns IDs to it and its comments.
func (r *MemoryProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextProductID++
	product.ID = r.nextProductID
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	for i := range product.Comments {
		r.nextCommentID++
		product.Comments[i].ID = r.nextCommentID
		product.Comments[i].ProductID = product.ID
	}
	r.products[product.ID] = copyProduct(*product)
	return nil
}

// Update modifies the supplied fields of an existing product.
func (r *MemoryProductRepository) Update(ctx context.Context, id uint, update models.ProductUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %d: %w", id, ErrRecordNotFound)
	}
	update.Apply(&product)
	product.UpdatedAt = time.Now()
	r.products[id] = product
	return nil
}

// Delete removes a product, and with it its comments, by its ID.
func (r *MemoryProductRepository) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %d: %w", id, ErrRecordNotFound)
	}
	delete(r.products, id)
	return nil
}
