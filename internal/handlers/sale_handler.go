package handlers

import (
	"strconv"

	"stockpos/internal/middleware"
	"stockpos/internal/models"
	"stockpos/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SaleHandler handles checkout and sales history requests.
type SaleHandler struct {
	service *services.SaleService
}

func NewSaleHandler(service *services.SaleService) *SaleHandler {
	return &SaleHandler{service: service}
}

// RegisterRoutes must run before the product routes so /products/sale is not taken by /products/:id.
func (h *SaleHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/products/sale", h.HandleProcessSale)
	router.Get("/sales", h.HandleGetSales)
}

// HandleProcessSale applies a basket: a JSON array of {productId, quantitySold}.
func (h *SaleHandler) HandleProcessSale(c *fiber.Ctx) error {
	var basket []models.SaleLineRequest
	if err := c.BodyParser(&basket); err != nil {
		return badRequest(c, "Request body must be an array of {productId, quantitySold}", err)
	}

	result, err := h.service.ProcessSale(c.UserContext(), middleware.AuthFrom(c), basket)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

// HandleGetSales lists sales (admin only), optionally for the last ?days days.
func (h *SaleHandler) HandleGetSales(c *fiber.Ctx) error {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "days must be a non-negative integer", nil)
		}
		days = n
	}
	sales, err := h.service.ListSales(c.UserContext(), middleware.AuthFrom(c), days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sales)
}
