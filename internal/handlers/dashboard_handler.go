package handlers

import (
	"fmt"
	"strconv"

	"stockpos/internal/middleware"
	"stockpos/internal/services"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/dashboard", h.HandleGetDashboard)
}

// HandleGetDashboard accepts optional ?days= and ?threshold= overrides.
func (h *DashboardHandler) HandleGetDashboard(c *fiber.Ctx) error {
	var opts services.DashboardOptions
	var err error
	if opts.WindowDays, err = optionalInt(c, "days"); err != nil {
		return badRequest(c, err.Error(), nil)
	}
	if opts.Threshold, err = optionalInt(c, "threshold"); err != nil {
		return badRequest(c, err.Error(), nil)
	}

	result, err := h.service.Compute(c.UserContext(), middleware.AuthFrom(c), opts)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

func optionalInt(c *fiber.Ctx, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return &n, nil
}
