package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"insightpro/internal/apperror"
	"insightpro/internal/logging"
	"insightpro/internal/metrics"
	"insightpro/internal/models"
	"insightpro/internal/repositories"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// EventPublisher delivers product lifecycle events to interested consumers.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

// CreateProductRequest is the body of a product submission. comments must be
// present but may be empty.
type CreateProductRequest struct {
	Name          string         `json:"name" validate:"required"`
	Company       string         `json:"company" validate:"required"`
	AverageRating *models.Rating `json:"average_rating" validate:"required"`
	Comments      []string       `json:"comments" validate:"required"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	events   EventPublisher
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   log.Logger
}

// NewProductService creates a new ProductService. events, logger and m may be nil.
func NewProductService(repo repositories.ProductRepository, events EventPublisher, logger log.Logger, m *metrics.Metrics) *ProductService {
	return &ProductService{
		repo:     repo,
		events:   events,
		validate: newValidator(),
		metrics:  m,
		logger:   logging.OrNop(logger),
	}
}

// withComments makes sure a product always serializes a comment list.
func withComments(p *models.Product) {
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
}

// ListProducts retrieves all products with their comments.
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("Could not retrieve products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	for i := range products {
		withComments(&products[i])
	}
	return products, nil
}

// GetProduct retrieves a single product with its comments.
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperror.NewNotFoundError("Product not found", err)
		}
		return nil, apperror.NewDatabaseError("Could not retrieve product", err)
	}
	withComments(product)
	return product, nil
}

// CreateProduct stores a product and its comments, which keep the order they
// were submitted in.
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Company = strings.TrimSpace(req.Company)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if !req.AverageRating.Valid() {
		return nil, apperror.NewValidationError("Validation failed: average_rating must be a finite number", nil)
	}

	product := &models.Product{
		Name:          req.Name,
		Company:       req.Company,
		AverageRating: float64(*req.AverageRating),
		Comments:      make([]models.Comment, 0, len(req.Comments)),
	}
	for _, text := range req.Comments {
		product.Comments = append(product.Comments, models.Comment{Text: text})
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, apperror.NewDatabaseError("Could not save product", err)
	}

	level.Info(s.logger).Log("msg", "product created", "product_id", product.ID, "comments", len(product.Comments))
	s.publish(ctx, models.ProductCreated, product.ID)
	return product, nil
}

// UpdateProduct applies a partial update. Only the supplied fields change.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, update models.ProductUpdate) error {
	if update.Empty() {
		return apperror.NewValidationError("No fields to update", nil)
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return apperror.NewValidationError("Validation failed: name must not be empty", nil)
		}
		update.Name = &name
	}
	if update.Company != nil {
		company := strings.TrimSpace(*update.Company)
		if company == "" {
			return apperror.NewValidationError("Validation failed: company must not be empty", nil)
		}
		update.Company = &company
	}
	if update.AverageRating != nil && !update.AverageRating.Valid() {
		return apperror.NewValidationError("Validation failed: average_rating must be a finite number", nil)
	}

	if err := s.repo.Update(ctx, id, update); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return apperror.NewNotFoundError("Product not found", err)
		}
		return apperror.NewDatabaseError("Could not update product", err)
	}

	s.publish(ctx, models.ProductUpdated, id)
	return nil
}

// DeleteProduct deletes a product, and its comments, by ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return apperror.NewNotFoundError("Product not found", err)
		}
		return apperror.NewDatabaseError("Could not delete product", err)
	}

	level.Info(s.logger).Log("msg", "product deleted", "product_id", id)
	s.publish(ctx, models.ProductDeleted, id)
	return nil
}

// publish sends a lifecycle event when a publisher is configured. Failures are
// logged and never fail the request.
func (s *ProductService) publish(ctx context.Context, eventType string, productID uint) {
	if s.events == nil {
		return
	}
	event := models.ProductEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		ProductID:  productID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishProductEvent(ctx, event); err != nil {
		s.metrics.ProductEvent(eventType, false)
		level.Warn(s.logger).Log("msg", "failed to publish product event", "type", eventType, "product_id", productID, "err", err)
		return
	}
	s.metrics.ProductEvent(eventType, true)
}
