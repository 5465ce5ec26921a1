package handlers

import (
	"fmt"

	"insightpro/internal/apperror"
	"insightpro/internal/logging"
	"insightpro/internal/models"
	"insightpro/internal/services"

	"github.com/go-kit/log"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	logger  log.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger log.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logging.OrNop(logger),
	}
}

// RegisterRoutes registers the product routes with the Fiber app. Reads are
// public; writes go through authRequired.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", authRequired, h.HandleCreateProduct)
	productRoutes.Put("/:id", authRequired, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", authRequired, h.HandleDeleteProduct)

	// Legacy paths still used by older clients.
	router.Post("/saveProductData", authRequired, h.HandleCreateProduct)
	router.Delete("/deleteProduct/:id", authRequired, h.HandleDeleteProduct)
}

// productID parses the :id path parameter. Ids start at 1.
func productID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperror.NewValidationError(fmt.Sprintf("Invalid product id %q", c.Params("id")), err)
	}
	return uint(id), nil
}

// HandleGetProducts retrieves all products with their comments.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext())
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product together with its comments.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req services.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, h.logger, invalidBody(err))
	}

	product, err := h.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates the supplied fields of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	var update models.ProductUpdate
	if err := c.BodyParser(&update); err != nil {
		return writeError(c, h.logger, invalidBody(err))
	}

	if err := h.service.UpdateProduct(c.UserContext(), id, update); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %d updated successfully", id),
	})
}

// HandleDeleteProduct deletes a product and its comments.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %d deleted successfully", id),
	})
}
