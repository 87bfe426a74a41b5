package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"stockpos/internal/middleware"
	"stockpos/internal/models"
	"stockpos/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes. Static paths come before /:id.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/low-stock", h.HandleGetLowStock)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts lists the catalog.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext(), middleware.AuthFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

// HandleGetLowStock lists products at or below ?threshold (configured default otherwise).
func (h *ProductHandler) HandleGetLowStock(c *fiber.Ctx) error {
	threshold := -1
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "threshold must be a non-negative integer", nil)
		}
		threshold = n
	}
	products, err := h.service.GetLowStockProducts(c.UserContext(), middleware.AuthFrom(c), threshold)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}
	product, err := h.service.GetProductByID(c.UserContext(), middleware.AuthFrom(c), id)
	if err != nil {
		return productError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product (admin only).
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	product, err := h.service.CreateProduct(c.UserContext(), middleware.AuthFrom(c), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces a product's editable fields (admin only).
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}
	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	product, err := h.service.UpdateProduct(c.UserContext(), middleware.AuthFrom(c), id, input)
	if err != nil {
		return productError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct soft-deletes a product (admin only).
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}
	if err := h.service.DeleteProduct(c.UserContext(), middleware.AuthFrom(c), id); err != nil {
		return productError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Product %d deleted successfully", id),
	})
}

// productError answers 404 for a missing product addressed by URL.
func productError(c *fiber.Ctx, err error) error {
	var notFound *services.ProductNotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": notFound.Error(),
		})
	}
	return writeError(c, err)
}
