package handlers

import (
	"stockpos/internal/middleware"
	"stockpos/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves account listing and profile endpoints.
type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Get("/me", h.HandleGetProfile)
	userRoutes.Put("/me", h.HandleUpdateProfile)
	userRoutes.Put("/:id/role", h.HandleSetRole)
}

func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext(), middleware.AuthFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.service.Profile(c.UserContext(), middleware.AuthFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var input services.ProfileInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	user, err := h.service.UpdateProfile(c.UserContext(), middleware.AuthFrom(c), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) HandleSetRole(c *fiber.Ctx) error {
	var body struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	user, err := h.service.SetRole(c.UserContext(), middleware.AuthFrom(c), c.Params("id"), body.Role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}
