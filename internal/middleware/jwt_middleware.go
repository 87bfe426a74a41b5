package middleware

import (
	"strings"

	"stockpos/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const authContextKey = "auth"

// TokenValidator turns a bearer token into the caller identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (models.AuthContext, error)
}

// AuthRequired is a Fiber middleware that resolves the caller from the JWT once
// and stores it for handlers.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		auth, err := validator.ValidateToken(parts[1])
		if err != nil {
			zap.L().Debug("JWT validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(authContextKey, auth)
		return c.Next()
	}
}

// AuthFrom returns the caller stored by AuthRequired, or an empty context.
func AuthFrom(c *fiber.Ctx) models.AuthContext {
	auth, _ := c.Locals(authContextKey).(models.AuthContext)
	return auth
}
